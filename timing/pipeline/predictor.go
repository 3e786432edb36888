package pipeline

import "strings"

// PredictorStats holds prediction accounting for one predictor.
type PredictorStats struct {
	// Predictions is the total number of predictions issued.
	Predictions uint64
	// Mispredictions is the number of predictions that disagreed with the
	// actual outcome.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s PredictorStats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Predictions-s.Mispredictions) / float64(s.Predictions) * 100
}

// Predictor is the common contract of the branch predictor family.
//
// Predict reports the predicted direction for the branch at pc and bumps the
// prediction counter; it does not change direction state. Update records the
// actual outcome: it bumps the misprediction counter iff the most recent
// Predict for pc disagreed, then trains the direction state. The engine calls
// Predict exactly once per branch, at decode; resolution reuses that recorded
// prediction and never re-queries.
type Predictor interface {
	Predict(pc int) bool
	Update(pc int, taken bool)
	Name() string
	Stats() PredictorStats
	Reset()
}

// StaticPredictor always predicts the same direction.
type StaticPredictor struct {
	taken bool
	stats PredictorStats
}

// NewStaticPredictor creates a static predictor with the given fixed
// direction.
func NewStaticPredictor(taken bool) *StaticPredictor {
	return &StaticPredictor{taken: taken}
}

// Predict returns the fixed direction.
func (p *StaticPredictor) Predict(_ int) bool {
	p.stats.Predictions++
	return p.taken
}

// Update counts a misprediction when the outcome differs from the fixed
// direction. There is no direction state to train.
func (p *StaticPredictor) Update(_ int, actual bool) {
	if p.taken != actual {
		p.stats.Mispredictions++
	}
}

// Name returns the predictor name.
func (p *StaticPredictor) Name() string {
	if p.taken {
		return "Static-AlwaysTaken"
	}
	return "Static-AlwaysNotTaken"
}

// Stats returns prediction accounting.
func (p *StaticPredictor) Stats() PredictorStats { return p.stats }

// Reset clears the statistics.
func (p *StaticPredictor) Reset() { p.stats = PredictorStats{} }

// OneBitPredictor remembers the last outcome per branch address.
// Unseen addresses predict not-taken.
type OneBitPredictor struct {
	table map[int]bool
	stats PredictorStats
}

// NewOneBitPredictor creates an empty one-bit predictor.
func NewOneBitPredictor() *OneBitPredictor {
	return &OneBitPredictor{table: make(map[int]bool)}
}

// Predict returns the last observed outcome for pc.
func (p *OneBitPredictor) Predict(pc int) bool {
	p.stats.Predictions++
	return p.table[pc]
}

// Update overwrites the remembered outcome with the actual one.
func (p *OneBitPredictor) Update(pc int, actual bool) {
	if p.table[pc] != actual {
		p.stats.Mispredictions++
	}
	p.table[pc] = actual
}

// Name returns the predictor name.
func (p *OneBitPredictor) Name() string { return "OneBit" }

// Stats returns prediction accounting.
func (p *OneBitPredictor) Stats() PredictorStats { return p.stats }

// Reset clears all state and statistics.
func (p *OneBitPredictor) Reset() {
	p.table = make(map[int]bool)
	p.stats = PredictorStats{}
}

// TwoBitPredictor keeps a saturating counter in [0,3] per branch address.
// States 2 and 3 predict taken; unseen addresses start at 0 (strongly
// not-taken).
type TwoBitPredictor struct {
	table map[int]uint8
	stats PredictorStats
}

// NewTwoBitPredictor creates an empty two-bit predictor.
func NewTwoBitPredictor() *TwoBitPredictor {
	return &TwoBitPredictor{table: make(map[int]uint8)}
}

// Predict returns taken iff the counter for pc is at least 2.
func (p *TwoBitPredictor) Predict(pc int) bool {
	p.stats.Predictions++
	return p.table[pc] >= 2
}

// Update trains the saturating counter toward the actual outcome.
func (p *TwoBitPredictor) Update(pc int, actual bool) {
	state := p.table[pc]
	if (state >= 2) != actual {
		p.stats.Mispredictions++
	}
	if actual {
		if state < 3 {
			p.table[pc] = state + 1
		}
	} else {
		if state > 0 {
			p.table[pc] = state - 1
		}
	}
}

// Name returns the predictor name.
func (p *TwoBitPredictor) Name() string { return "TwoBit" }

// Stats returns prediction accounting.
func (p *TwoBitPredictor) Stats() PredictorStats { return p.stats }

// Reset clears all state and statistics.
func (p *TwoBitPredictor) Reset() {
	p.table = make(map[int]uint8)
	p.stats = PredictorStats{}
}

// TournamentPredictor composes a one-bit and a two-bit predictor with a
// per-address chooser counter in [0,3]. A chooser value of 2 or 3 trusts the
// two-bit component. The tournament's own counters are authoritative for
// reported accuracy; the components keep their own bookkeeping.
type TournamentPredictor struct {
	one *OneBitPredictor
	two *TwoBitPredictor

	chooser map[int]uint8

	// What each component said at the most recent Predict, per address.
	lastOne map[int]bool
	lastTwo map[int]bool

	stats PredictorStats
}

// NewTournamentPredictor creates a tournament predictor with fresh
// components.
func NewTournamentPredictor() *TournamentPredictor {
	return &TournamentPredictor{
		one:     NewOneBitPredictor(),
		two:     NewTwoBitPredictor(),
		chooser: make(map[int]uint8),
		lastOne: make(map[int]bool),
		lastTwo: make(map[int]bool),
	}
}

// Predict consults both components, remembers what each said, and returns
// the answer of the component the chooser currently trusts.
func (p *TournamentPredictor) Predict(pc int) bool {
	oneSays := p.one.Predict(pc)
	twoSays := p.two.Predict(pc)
	p.lastOne[pc] = oneSays
	p.lastTwo[pc] = twoSays

	p.stats.Predictions++
	if p.chooser[pc] >= 2 {
		return twoSays
	}
	return oneSays
}

// Update routes the outcome to both components and, when exactly one of them
// was right, moves the chooser one step toward the winner.
func (p *TournamentPredictor) Update(pc int, actual bool) {
	oneSaid := p.lastOne[pc]
	twoSaid := p.lastTwo[pc]

	chosenSaid := oneSaid
	c := p.chooser[pc]
	if c >= 2 {
		chosenSaid = twoSaid
	}
	if chosenSaid != actual {
		p.stats.Mispredictions++
	}

	p.one.Update(pc, actual)
	p.two.Update(pc, actual)

	oneCorrect := oneSaid == actual
	twoCorrect := twoSaid == actual
	switch {
	case twoCorrect && !oneCorrect:
		if c < 3 {
			p.chooser[pc] = c + 1
		}
	case oneCorrect && !twoCorrect:
		if c > 0 {
			p.chooser[pc] = c - 1
		}
	}
}

// Name returns the predictor name.
func (p *TournamentPredictor) Name() string { return "Tournament" }

// Stats returns the tournament's own prediction accounting.
func (p *TournamentPredictor) Stats() PredictorStats { return p.stats }

// ComponentStats returns the bookkeeping counters of the one-bit and two-bit
// components.
func (p *TournamentPredictor) ComponentStats() (onebit, twobit PredictorStats) {
	return p.one.Stats(), p.two.Stats()
}

// Reset clears the components, the chooser, and all statistics.
func (p *TournamentPredictor) Reset() {
	p.one.Reset()
	p.two.Reset()
	p.chooser = make(map[int]uint8)
	p.lastOne = make(map[int]bool)
	p.lastTwo = make(map[int]bool)
	p.stats = PredictorStats{}
}

// NewPredictor builds a predictor by name. Names are case-insensitive:
// static_nt, static_t, 1bit, 2bit, tournament. Unknown names fall back to
// static_nt.
func NewPredictor(name string) Predictor {
	switch strings.ToLower(name) {
	case "static_t":
		return NewStaticPredictor(true)
	case "1bit":
		return NewOneBitPredictor()
	case "2bit":
		return NewTwoBitPredictor()
	case "tournament":
		return NewTournamentPredictor()
	default: // static_nt and unknown names
		return NewStaticPredictor(false)
	}
}
