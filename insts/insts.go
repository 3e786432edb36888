// Package insts defines the toy ISA used by the trace-driven pipeline
// simulator.
//
// The instruction set is deliberately small: two ALU ops, a load/store pair,
// two conditional branches, NOP, and HALT. Instructions carry no architectural
// values; the simulator only models their timing, so an Instruction is the
// decoded trace record plus bookkeeping identifiers.
package insts

import "fmt"

// Opcode identifies one of the toy ISA operations.
type Opcode int

// Toy ISA opcodes.
const (
	OpADD Opcode = iota
	OpSUB
	OpLOAD
	OpSTORE
	OpBEQ
	OpBNE
	OpNOP
	OpHALT
)

// NumRegs is the architectural register file size.
const NumRegs = 32

// RegNone marks an unused register field.
const RegNone = -1

// String returns the uppercase mnemonic for the opcode.
func (op Opcode) String() string {
	switch op {
	case OpADD:
		return "ADD"
	case OpSUB:
		return "SUB"
	case OpLOAD:
		return "LOAD"
	case OpSTORE:
		return "STORE"
	case OpBEQ:
		return "BEQ"
	case OpBNE:
		return "BNE"
	case OpNOP:
		return "NOP"
	case OpHALT:
		return "HALT"
	}
	return "UNK"
}

// Instruction is one decoded trace entry. Instructions are immutable after
// parsing; the pipeline only copies them between latches.
type Instruction struct {
	// Op is the opcode tag.
	Op Opcode

	// Rd is the destination register, or RegNone.
	Rd int

	// Rs1 is the first source register (base address for LOAD/STORE), or RegNone.
	Rs1 int

	// Rs2 is the second source register (store data for STORE), or RegNone.
	Rs2 int

	// Imm is the signed immediate: load/store displacement, or branch
	// displacement in instruction units.
	Imm int

	// ID is the globally unique identifier assigned at parse time.
	ID int

	// PC is the instruction's zero-based position in the trace.
	PC int
}

// IsBranch returns true for conditional branch opcodes.
func (i Instruction) IsBranch() bool {
	return i.Op == OpBEQ || i.Op == OpBNE
}

// WritesReg returns true if the instruction produces a register value.
func (i Instruction) WritesReg() bool {
	switch i.Op {
	case OpADD, OpSUB, OpLOAD:
		return i.Rd >= 0
	default:
		return false
	}
}

// DestReg returns the destination register, or RegNone when the instruction
// writes nothing.
func (i Instruction) DestReg() int {
	if i.WritesReg() {
		return i.Rd
	}
	return RegNone
}

// ReadsRs1 returns true if the instruction reads its first source register.
func (i Instruction) ReadsRs1() bool {
	switch i.Op {
	case OpADD, OpSUB, OpLOAD, OpSTORE, OpBEQ, OpBNE:
		return i.Rs1 >= 0
	default:
		return false
	}
}

// ReadsRs2 returns true if the instruction reads its second source register.
// LOAD has no second source; its displacement comes from the immediate.
func (i Instruction) ReadsRs2() bool {
	switch i.Op {
	case OpADD, OpSUB, OpSTORE, OpBEQ, OpBNE:
		return i.Rs2 >= 0
	default:
		return false
	}
}

// ReadsReg returns true if the instruction reads reg on either source.
func (i Instruction) ReadsReg(reg int) bool {
	if reg < 0 {
		return false
	}
	return (i.ReadsRs1() && i.Rs1 == reg) || (i.ReadsRs2() && i.Rs2 == reg)
}

// String renders the instruction for debugging and verbose output,
// e.g. "#3 PC=3 BNE r1 r2 -1".
func (i Instruction) String() string {
	head := fmt.Sprintf("#%d PC=%d %s", i.ID, i.PC, i.Op)
	switch i.Op {
	case OpADD, OpSUB:
		return fmt.Sprintf("%s r%d r%d r%d", head, i.Rd, i.Rs1, i.Rs2)
	case OpLOAD:
		return fmt.Sprintf("%s r%d [r%d%+d]", head, i.Rd, i.Rs1, i.Imm)
	case OpSTORE:
		return fmt.Sprintf("%s r%d [r%d%+d]", head, i.Rs2, i.Rs1, i.Imm)
	case OpBEQ, OpBNE:
		return fmt.Sprintf("%s r%d r%d %d", head, i.Rs1, i.Rs2, i.Imm)
	default:
		return head
	}
}
