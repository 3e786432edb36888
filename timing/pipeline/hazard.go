package pipeline

import "github.com/sarchlab/pipesim/insts"

// HazardKind classifies a data hazard.
type HazardKind int

const (
	// HazardNone means no hazard was detected.
	HazardNone HazardKind = iota
	// HazardRAW is a read-after-write hazard.
	HazardRAW
	// HazardWAR is a write-after-read hazard. Never asserted by this
	// in-order design; kept for taxonomy completeness.
	HazardWAR
	// HazardWAW is a write-after-write hazard. Never asserted by this
	// in-order design; kept for taxonomy completeness.
	HazardWAW
)

// String returns the hazard kind label.
func (k HazardKind) String() string {
	switch k {
	case HazardRAW:
		return "RAW"
	case HazardWAR:
		return "WAR"
	case HazardWAW:
		return "WAW"
	}
	return "None"
}

// HazardDecision is the stall decision for the decode slot this cycle.
type HazardDecision struct {
	// Stall indicates the IF/ID latch must hold and a bubble be inserted
	// into ID/EX.
	Stall bool
	// Kind classifies the hazard. RAW whenever Stall is true.
	Kind HazardKind
}

// HazardUnit detects data hazards for the instruction in the decode slot.
// It is stateless; Detect is a pure function of the latch contents.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// Detect computes the stall decision for the decode slot against producers
// ahead of it in EX, MEM, and WB.
//
// With forwarding on, only the load-use case stalls: EX holds a LOAD whose
// destination is read by the decode slot. Every other producer match is
// resolved by the bypass network. With forwarding off, any producer match in
// EX, MEM, or WB stalls until the producer has left writeback.
func (h *HazardUnit) Detect(
	ifid *IFIDRegister,
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
	forwarding bool,
) HazardDecision {
	d := HazardDecision{Kind: HazardNone}

	if !ifid.Valid {
		return d
	}
	id := ifid.Ins

	producerMatch := func(prod insts.Instruction, valid bool) bool {
		if !valid {
			return false
		}
		return id.ReadsReg(prod.DestReg())
	}

	if forwarding {
		if idex.Valid && idex.Ins.Op == insts.OpLOAD && producerMatch(idex.Ins, true) {
			d.Stall = true
			d.Kind = HazardRAW
		}
		return d
	}

	if producerMatch(idex.Ins, idex.Valid) ||
		producerMatch(exmem.Ins, exmem.Valid) ||
		producerMatch(memwb.Ins, memwb.Valid) {
		d.Stall = true
		d.Kind = HazardRAW
	}
	return d
}
