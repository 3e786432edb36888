package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/timing/pipeline"
)

var _ = Describe("StaticPredictor", func() {
	It("should always predict its fixed direction", func() {
		nt := pipeline.NewStaticPredictor(false)
		t := pipeline.NewStaticPredictor(true)

		for i := 0; i < 3; i++ {
			Expect(nt.Predict(i)).To(BeFalse())
			Expect(t.Predict(i)).To(BeTrue())
		}
		Expect(nt.Name()).To(Equal("Static-AlwaysNotTaken"))
		Expect(t.Name()).To(Equal("Static-AlwaysTaken"))
	})

	It("should count mispredictions against the fixed direction", func() {
		nt := pipeline.NewStaticPredictor(false)

		nt.Predict(0)
		nt.Update(0, true)
		nt.Predict(0)
		nt.Update(0, false)

		stats := nt.Stats()
		Expect(stats.Predictions).To(Equal(uint64(2)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(stats.Accuracy()).To(BeNumerically("~", 50.0))
	})
})

var _ = Describe("OneBitPredictor", func() {
	var bp *pipeline.OneBitPredictor

	BeforeEach(func() {
		bp = pipeline.NewOneBitPredictor()
	})

	It("should predict not-taken for an unseen address", func() {
		Expect(bp.Predict(7)).To(BeFalse())
	})

	It("should repeat the last observed outcome", func() {
		bp.Predict(0)
		bp.Update(0, true)
		Expect(bp.Predict(0)).To(BeTrue())

		bp.Update(0, false)
		Expect(bp.Predict(0)).To(BeFalse())
	})

	It("should keep per-address state", func() {
		bp.Predict(0)
		bp.Update(0, true)

		Expect(bp.Predict(1)).To(BeFalse())
		Expect(bp.Predict(0)).To(BeTrue())
	})

	It("should mispredict every flip of an alternating branch", func() {
		outcome := true
		for i := 0; i < 10; i++ {
			bp.Predict(0)
			bp.Update(0, outcome)
			outcome = !outcome
		}

		// First round misses (table starts not-taken, outcome taken), then
		// the single history bit is always one outcome behind.
		Expect(bp.Stats().Mispredictions).To(Equal(uint64(10)))
	})

	It("should forget everything on Reset", func() {
		bp.Predict(0)
		bp.Update(0, true)
		bp.Reset()

		Expect(bp.Predict(0)).To(BeFalse())
		Expect(bp.Stats().Predictions).To(Equal(uint64(1)))
		Expect(bp.Stats().Mispredictions).To(Equal(uint64(0)))
	})
})

var _ = Describe("TwoBitPredictor", func() {
	var bp *pipeline.TwoBitPredictor

	BeforeEach(func() {
		bp = pipeline.NewTwoBitPredictor()
	})

	It("should need two taken outcomes before predicting taken", func() {
		Expect(bp.Predict(0)).To(BeFalse())
		bp.Update(0, true)
		Expect(bp.Predict(0)).To(BeFalse())
		bp.Update(0, true)
		Expect(bp.Predict(0)).To(BeTrue())
	})

	It("should tolerate one flip once saturated", func() {
		for i := 0; i < 3; i++ {
			bp.Update(0, true)
		}

		bp.Update(0, false)
		Expect(bp.Predict(0)).To(BeTrue())

		bp.Update(0, false)
		bp.Update(0, false)
		Expect(bp.Predict(0)).To(BeFalse())
	})

	It("should saturate at both ends", func() {
		for i := 0; i < 10; i++ {
			bp.Update(0, false)
		}
		bp.Update(0, true)
		bp.Update(0, true)
		Expect(bp.Predict(0)).To(BeTrue())
	})

	It("should hold its ground on an alternating branch", func() {
		outcome := true
		for i := 0; i < 10; i++ {
			bp.Predict(0)
			bp.Update(0, outcome)
			outcome = !outcome
		}

		// The counter oscillates between 0 and 1, predicting not-taken
		// throughout, so only the taken outcomes miss.
		Expect(bp.Stats().Mispredictions).To(Equal(uint64(5)))
	})
})

var _ = Describe("TournamentPredictor", func() {
	var bp *pipeline.TournamentPredictor

	BeforeEach(func() {
		bp = pipeline.NewTournamentPredictor()
	})

	It("should predict not-taken cold", func() {
		Expect(bp.Predict(0)).To(BeFalse())
	})

	It("should drive both components on every prediction", func() {
		bp.Predict(0)
		bp.Predict(0)

		onebit, twobit := bp.ComponentStats()
		Expect(onebit.Predictions).To(Equal(uint64(2)))
		Expect(twobit.Predictions).To(Equal(uint64(2)))
	})

	It("should learn a heavily taken branch with one miss", func() {
		for i := 0; i < 10; i++ {
			bp.Predict(0)
			bp.Update(0, true)
		}

		stats := bp.Stats()
		Expect(stats.Predictions).To(Equal(uint64(10)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(bp.Predict(0)).To(BeTrue())
	})

	It("should migrate to the two-bit component on an alternating branch", func() {
		outcome := false
		for i := 0; i < 20; i++ {
			bp.Predict(5)
			bp.Update(5, outcome)
			outcome = !outcome
		}

		// One-bit chases the alternation and is almost always wrong. Two-bit
		// sticks to not-taken and misses only the taken half. The chooser
		// hands control to the two-bit side within a few rounds, so the
		// tournament lands between the two.
		onebit, twobit := bp.ComponentStats()
		Expect(onebit.Mispredictions).To(Equal(uint64(19)))
		Expect(twobit.Mispredictions).To(Equal(uint64(10)))

		stats := bp.Stats()
		Expect(stats.Mispredictions).To(Equal(uint64(12)))
		Expect(stats.Mispredictions).To(BeNumerically("<", onebit.Mispredictions))
	})

	It("should clear components and chooser on Reset", func() {
		for i := 0; i < 5; i++ {
			bp.Predict(0)
			bp.Update(0, true)
		}
		bp.Reset()

		Expect(bp.Predict(0)).To(BeFalse())
		onebit, twobit := bp.ComponentStats()
		Expect(onebit.Predictions).To(Equal(uint64(1)))
		Expect(twobit.Predictions).To(Equal(uint64(1)))
		Expect(bp.Stats().Mispredictions).To(Equal(uint64(0)))
	})
})

var _ = Describe("NewPredictor", func() {
	DescribeTable("building by name",
		func(name, want string) {
			Expect(pipeline.NewPredictor(name).Name()).To(Equal(want))
		},
		Entry("static not-taken", "static_nt", "Static-AlwaysNotTaken"),
		Entry("static taken", "static_t", "Static-AlwaysTaken"),
		Entry("one bit", "1bit", "OneBit"),
		Entry("two bit", "2bit", "TwoBit"),
		Entry("tournament", "tournament", "Tournament"),
		Entry("uppercase", "TOURNAMENT", "Tournament"),
		Entry("unknown falls back to static not-taken", "gshare", "Static-AlwaysNotTaken"),
	)
})

var _ = Describe("PredictorStats", func() {
	It("should report zero accuracy with no predictions", func() {
		Expect(pipeline.PredictorStats{}.Accuracy()).To(BeZero())
	})

	It("should report accuracy as a percentage", func() {
		s := pipeline.PredictorStats{Predictions: 8, Mispredictions: 2}
		Expect(s.Accuracy()).To(BeNumerically("~", 75.0))
	})
})
