package analysis_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pacesim/internal/analysis"
	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/tracebuf"
)

var _ = Describe("Classifier", func() {
	const (
		capacity = tracebuf.DefaultCapacity
		final    = -80.0
		amp      = 2.0
		rate     = 0.1
	)

	var (
		buf        *tracebuf.Buffer
		classifier *analysis.Classifier
	)

	BeforeEach(func() {
		buf = tracebuf.New(capacity)
		classifier = analysis.NewClassifier([]string{dynamo.VoltageName, "flat"})
	})

	fill := func(n int) {
		for i := 0; i < n; i++ {
			v := final - amp*math.Exp(-rate*float64(i))
			Expect(buf.Push(tracebuf.NewRecord(dynamo.State{v, 1.5}, 1e-3))).To(Succeed())
		}
	}

	Context("with a full buffer of exponentially relaxing paces", func() {
		BeforeEach(func() { fill(capacity) })

		It("reports a correlation close to -1 for the relaxing variable", func() {
			verdicts, err := classifier.Classify(buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(verdicts).To(HaveLen(2))

			v := verdicts[0]
			Expect(v.Name).To(Equal(dynamo.VoltageName))
			Expect(v.Status).To(Equal(analysis.StatusOK))
			Expect(v.PMCC).To(BeNumerically("~", -1, 0.01))
			Expect(v.Rate).To(BeNumerically("<", 0))
			Expect(v.Points).To(Equal(capacity - 1))
		})

		It("leaves a constant variable undefined", func() {
			verdicts, err := classifier.Classify(buf)
			Expect(err).NotTo(HaveOccurred())

			v := verdicts[1]
			Expect(v.Status).To(Equal(analysis.StatusUndefined))
			Expect(math.IsNaN(v.PMCC)).To(BeTrue())
			Expect(v.Points).To(BeZero())
		})

		It("summarizes the verdicts", func() {
			verdicts, _ := classifier.Classify(buf)
			s := analysis.Summarize(verdicts)
			Expect(s.OK).To(Equal(1))
			Expect(s.Undefined).To(Equal(1))
			Expect(s.Unstable).To(BeZero())
			Expect(s.Slowest).To(Equal(0))
			Expect(s.MeanPMCC).To(BeNumerically("~", -1, 0.01))
		})
	})

	It("rejects a buffer that is not yet full", func() {
		fill(capacity - 1)
		_, err := classifier.Classify(buf)
		Expect(err).To(MatchError(dynamo.ErrDomain))
	})

	It("rejects more names than record columns", func() {
		fill(capacity)
		wide := analysis.NewClassifier([]string{"a", "b", "c", "d"})
		_, err := wide.Classify(buf)
		Expect(err).To(MatchError(dynamo.ErrIndex))
	})

	It("reports a correlation beyond the bound as a numerical assertion", func() {
		fill(capacity)
		classifier.Correlate = func(xs, ys []float64) (float64, error) { return 1.2, nil }

		verdicts, err := classifier.Classify(buf)
		Expect(err).To(MatchError(dynamo.ErrNumericalAssertion))

		var assertion *dynamo.NumericalAssertionError
		Expect(errors.As(err, &assertion)).To(BeTrue())
		Expect(assertion.Value).To(Equal(1.2))
		Expect(assertion.Bound).To(Equal(analysis.PMCCBound))

		Expect(verdicts).To(HaveLen(2))
		Expect(verdicts[0].Status).To(Equal(analysis.StatusUnstable))
		Expect(verdicts[0].PMCC).To(Equal(1.2))
		Expect(analysis.Summarize(verdicts).Unstable).To(Equal(2))
	})

	It("accepts a correlation within rounding of one", func() {
		fill(capacity)
		classifier.Correlate = func(xs, ys []float64) (float64, error) { return -1.0005, nil }

		verdicts, err := classifier.Classify(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(verdicts[0].Status).To(Equal(analysis.StatusOK))
	})
})

var _ = Describe("ClassifyTrace", func() {
	It("is undefined with fewer than three usable points", func() {
		v := analysis.ClassifyTrace([]float64{1, 2, 2})
		Expect(v.Status).To(Equal(analysis.StatusUndefined))
		Expect(v.Points).To(Equal(1))
	})

	It("reports oscillatory approach with a weak correlation", func() {
		swings := []float64{0.5, -0.01, 0.2}
		trace := make([]float64, 60)
		for i := range trace[:59] {
			trace[i] = 1 + swings[i%3]
		}
		trace[59] = 1
		v := analysis.ClassifyTrace(trace)
		Expect(v.Status).To(Equal(analysis.StatusOK))
		Expect(math.Abs(v.PMCC)).To(BeNumerically("<", 0.5))
	})
})

var _ = Describe("Summarize", func() {
	It("counts unstable verdicts separately", func() {
		s := analysis.Summarize([]analysis.Verdict{
			{Index: 0, PMCC: -0.9, Rate: -0.2, Status: analysis.StatusOK},
			{Index: 1, PMCC: -0.5, Rate: -0.01, Status: analysis.StatusOK},
			{Index: 2, PMCC: 1.2, Status: analysis.StatusUnstable},
		})
		Expect(s.OK).To(Equal(2))
		Expect(s.Unstable).To(Equal(1))
		Expect(s.Slowest).To(Equal(1))
		Expect(s.MeanPMCC).To(BeNumerically("~", -0.7, 1e-12))
		Expect(analysis.StatusUnstable.String()).To(Equal("unstable"))
	})
})
