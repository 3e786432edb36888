package pipeline

import (
	"fmt"
	"strings"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
)

// instBytes is the footprint of one instruction in the I-cache address
// space. The trace index scaled by this gives the fetch address.
const instBytes = 4

// Oracle is the ground-truth branch outcome predicate. It stands in for a
// functional execution model: the engine never computes register values, so
// the oracle alone decides whether a branch in EX is taken.
type Oracle func(insts.Instruction) bool

// DefaultOracle reports a branch taken iff its immediate is strictly
// negative. A placeholder pending functional execution.
func DefaultOracle(ins insts.Instruction) bool {
	return ins.Imm < 0
}

// StallBreakdown counts stall bubbles by cause.
type StallBreakdown struct {
	// RAW counts data-hazard stall bubbles inserted into ID/EX.
	RAW uint64
	// WAR is kept for taxonomy completeness; never incremented in-order.
	WAR uint64
	// WAW is kept for taxonomy completeness; never incremented in-order.
	WAW uint64
	// Control counts flush bubbles charged to branch mispredictions,
	// two per mispredict, counted at the mispredict site.
	Control uint64
	// ICache counts whole-pipeline freeze cycles from instruction cache
	// misses. Zero unless the I-cache model is enabled.
	ICache uint64
}

// Total returns the total stall count.
func (s StallBreakdown) Total() uint64 {
	return s.RAW + s.WAR + s.WAW + s.Control + s.ICache
}

// Statistics holds pipeline performance counters. Snapshots are values;
// callers cannot mutate engine state through them.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Retired is the number of committed instructions. NOP and HALT do
	// not count.
	Retired uint64
	// BranchPredictions is the number of predictions the engine requested
	// at decode.
	BranchPredictions uint64
	// BranchMispredictions is the number of decode-time predictions that
	// disagreed with the oracle at resolution.
	BranchMispredictions uint64
	// Stalls is the per-cause stall breakdown.
	Stalls StallBreakdown
}

// CPI returns the cycles per retired instruction, 0 when nothing retired.
func (s Statistics) CPI() float64 {
	if s.Retired == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Retired)
}

// BranchAccuracy returns the prediction accuracy as a percentage, 0 when no
// predictions were issued.
func (s Statistics) BranchAccuracy() float64 {
	if s.BranchPredictions == 0 {
		return 0
	}
	correct := s.BranchPredictions - s.BranchMispredictions
	return float64(correct) / float64(s.BranchPredictions) * 100
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithForwarding enables or disables the operand bypass network. Forwarding
// is on by default.
func WithForwarding(on bool) PipelineOption {
	return func(p *Pipeline) {
		p.forwarding = on
	}
}

// WithPredictor attaches a branch predictor. The predictor is borrowed for
// the lifetime of the pipeline. Without one, fetch stays sequential and
// branches resolve without penalty accounting.
func WithPredictor(bp Predictor) PipelineOption {
	return func(p *Pipeline) {
		p.predictor = bp
	}
}

// WithOracle replaces the branch outcome predicate.
func WithOracle(o Oracle) PipelineOption {
	return func(p *Pipeline) {
		p.oracle = o
	}
}

// WithICache enables the instruction-fetch cache timing model. A fetch miss
// freezes the pipeline for the configured miss latency; freeze cycles are
// counted in Stalls.ICache.
func WithICache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.icache = cache.New(config)
	}
}

// Pipeline is the five-stage in-order pipeline engine. It owns the four
// inter-stage latches, the fetch cursor, and all counters. Step advances
// exactly one cycle, performs no I/O, and never reaches outside the
// dependencies it was constructed with; runs are fully deterministic.
type Pipeline struct {
	prog []insts.Instruction

	// cursor is the next sequential fetch index into prog.
	cursor int

	cycle  uint64
	halted bool

	forwarding bool
	predictor  Predictor
	oracle     Oracle

	hazardUnit *HazardUnit

	// Pipeline registers.
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// wbSnapshot is the MEM/WB latch captured before shifting, so the
	// timeline reports the instruction that retired this cycle.
	wbSnapshot MEMWBRegister

	// flushCountdown forces bubbles into ID/EX and suppresses fetch after
	// a mispredict. Re-armed only at mispredict resolution.
	flushCountdown int

	// predictions maps instruction ID to the direction predicted at
	// decode. Entries live from decode until resolution.
	predictions map[int]bool

	// Optional I-cache timing model.
	icache     *cache.Cache
	icacheWait uint64

	stats Statistics
}

// NewPipeline creates a pipeline over prog. Defaults: forwarding on, no
// predictor, oracle = DefaultOracle. The first fetch is primed here, so the
// instruction at trace index 0 already occupies the decode slot when cycle 1
// begins.
func NewPipeline(prog []insts.Instruction, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		prog:        prog,
		forwarding:  true,
		oracle:      DefaultOracle,
		hazardUnit:  NewHazardUnit(),
		predictions: make(map[int]bool),
	}

	for _, opt := range opts {
		opt(p)
	}

	if len(prog) > 0 {
		p.ifid = IFIDRegister{Valid: true, Ins: prog[0]}
		p.cursor = 1
		p.touchICache(0)
	}

	return p
}

// Cycle returns the number of cycles simulated so far.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Halted returns true once a HALT instruction has retired.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// ICacheStats returns the I-cache counters, zero when the model is off.
func (p *Pipeline) ICacheStats() cache.Statistics {
	if p.icache == nil {
		return cache.Statistics{}
	}
	return p.icache.Stats()
}

// RunCycles steps the pipeline for at most the given number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Step()
	}
	return !p.halted
}

// Step advances the pipeline by exactly one cycle.
//
// Cycle order: retire from WB, hazard check for the decode slot, choose the
// ID/EX input (flush bubble, stall bubble, or the decoded instruction with
// branch prediction steering fetch), fetch, resolve any branch in EX against
// the oracle, then latch everything and advance the counters.
//
// Stepping past halt is a no-op on pipeline state but still advances the
// cycle counters.
func (p *Pipeline) Step() {
	if p.halted {
		p.cycle++
		p.stats.Cycles++
		return
	}

	// An in-flight I-cache miss freezes every latch in place.
	if p.icacheWait > 0 {
		p.icacheWait--
		p.stats.Stalls.ICache++
		p.wbSnapshot.Clear()
		p.cycle++
		p.stats.Cycles++
		return
	}

	// Retire.
	p.wbSnapshot = p.memwb
	if p.memwb.Valid {
		switch p.memwb.Ins.Op {
		case insts.OpHALT:
			p.halted = true
		case insts.OpNOP:
			// Bubble filler, never counted.
		default:
			p.stats.Retired++
		}
	}

	// Hazard check for the decode slot.
	hz := p.hazardUnit.Detect(&p.ifid, &p.idex, &p.exmem, &p.memwb, p.forwarding)

	// Default next-latch candidates: shift everything one stage, hold IF/ID.
	nextWB := MEMWBRegister{Valid: p.exmem.Valid, Ins: p.exmem.Ins}
	nextMEM := EXMEMRegister{Valid: p.idex.Valid, Ins: p.idex.Ins}
	nextEX := IDEXRegister{Valid: p.ifid.Valid, Ins: p.ifid.Ins}
	nextIF := p.ifid

	fetchSuppressed := false
	fetchAddr := p.cursor

	// Decide the ID/EX input and the fetch behaviour.
	switch {
	case p.flushCountdown > 0:
		nextEX = IDEXRegister{Tag: TagControlFlush}
		p.flushCountdown--
		fetchSuppressed = true

	case hz.Stall:
		nextEX = IDEXRegister{Tag: TagRAWStall}
		fetchSuppressed = true // holds both the cursor and IF/ID
		p.stats.Stalls.RAW++

	default:
		if p.ifid.Valid && p.ifid.Ins.IsBranch() && p.predictor != nil {
			br := p.ifid.Ins
			taken := p.predictor.Predict(br.PC)
			p.predictions[br.ID] = taken
			p.stats.BranchPredictions++
			fetchAddr = br.PC + 1
			if taken {
				fetchAddr = br.PC + 1 + br.Imm
			}
		}
	}

	// Fetch.
	if !fetchSuppressed {
		if fetchAddr >= 0 && fetchAddr < len(p.prog) && !p.halted {
			nextIF = IFIDRegister{Valid: true, Ins: p.prog[fetchAddr]}
			p.cursor = fetchAddr + 1
			p.touchICache(fetchAddr)
		} else {
			nextIF.Clear()
		}
	}

	// Branch resolution at execute.
	if p.idex.Valid && p.idex.Ins.IsBranch() && p.predictor != nil {
		br := p.idex.Ins
		actual := p.oracle(br)
		// A missing entry reads as predicted not-taken.
		predicted := p.predictions[br.ID]

		if predicted != actual {
			p.stats.BranchMispredictions++
			p.stats.Stalls.Control += 2
			p.flushCountdown = 2
			p.cursor = br.PC + 1
			if actual {
				p.cursor = br.PC + 1 + br.Imm
			}
			// Squash the fetch performed above.
			nextIF.Clear()
		}

		p.predictor.Update(br.PC, actual)
		delete(p.predictions, br.ID)
	}

	// Commit.
	p.memwb = nextWB
	p.exmem = nextMEM
	p.idex = nextEX
	p.ifid = nextIF

	// Advance cycle.
	p.cycle++
	p.stats.Cycles++
}

// touchICache runs the fetch of trace index addr through the I-cache model,
// arming the freeze counter on a miss. No-op when the model is off.
func (p *Pipeline) touchICache(addr int) {
	if p.icache == nil {
		return
	}
	res := p.icache.Read(uint64(addr) * instBytes)
	if !res.Hit {
		p.icacheWait = res.Latency
	}
}

// CSVHeader is the timeline header row.
const CSVHeader = "cycle,IF,ID,EX,MEM,WB"

// CSVRow renders the timeline row for the just-completed cycle. Cells show
// OPCODE#ID for occupied slots, a stall tag for labelled ID/EX bubbles, and
// "-" otherwise. The WB column reports the latch snapshot taken at the start
// of the cycle: the instruction that retired this cycle.
func (p *Pipeline) CSVRow() string {
	cell := func(ins insts.Instruction, valid bool) string {
		if !valid {
			return "-"
		}
		return fmt.Sprintf("%s#%d", ins.Op, ins.ID)
	}

	idCell := cell(p.idex.Ins, p.idex.Valid)
	if !p.idex.Valid && p.idex.Tag != TagNone {
		idCell = string(p.idex.Tag)
	}

	cells := []string{
		fmt.Sprintf("%d", p.cycle),
		cell(p.ifid.Ins, p.ifid.Valid),
		idCell,
		cell(p.exmem.Ins, p.exmem.Valid),
		cell(p.memwb.Ins, p.memwb.Valid),
		cell(p.wbSnapshot.Ins, p.wbSnapshot.Valid),
	}
	return strings.Join(cells, ",")
}
