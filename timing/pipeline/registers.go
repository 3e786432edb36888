// Package pipeline implements the cycle-accurate five-stage in-order
// pipeline model (IF -> ID -> EX -> MEM -> WB) for the toy trace ISA.
package pipeline

import "github.com/sarchlab/pipesim/insts"

// BubbleTag labels a bubble inserted into the ID/EX latch so the timeline
// can distinguish data stalls from control flushes.
type BubbleTag string

// Bubble tags as they appear in timeline CSV cells.
const (
	TagNone         BubbleTag = ""
	TagRAWStall     BubbleTag = "STALL_RAW"
	TagControlFlush BubbleTag = "STALL_CTRL"
)

// IFIDRegister holds state between Fetch and Decode stages. The instruction
// it carries is the one occupying the decode slot this cycle.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	// An invalid register is a bubble; its Ins field is unspecified.
	Valid bool

	// Ins is the fetched instruction.
	Ins insts.Instruction
}

// Clear resets the IF/ID register to a bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Ins is the decoded instruction.
	Ins insts.Instruction

	// Tag labels the bubble when Valid is false. Only the CSV formatter
	// reads it; engine decisions key off Valid alone.
	Tag BubbleTag
}

// Clear resets the ID/EX register to an untagged bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Ins is the instruction in the memory slot.
	Ins insts.Instruction
}

// Clear resets the EX/MEM register to a bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Ins is the instruction in the writeback slot.
	Ins insts.Instruction
}

// Clear resets the MEM/WB register to a bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
