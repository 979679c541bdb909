package pacing_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pacesim/internal/analysis"
	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/features"
	"github.com/san-kum/pacesim/internal/metrics"
	"github.com/san-kum/pacesim/internal/pacing"
)

var _ = Describe("Protocol", func() {
	It("splits a pace at the stimulus edges", func() {
		p := pacing.Protocol{Period: 1000, Duration: 2, Start: 10}
		Expect(p.Validate()).To(Succeed())
		Expect(p.SamplingStep).To(Equal(1.0))
	})

	DescribeTable("rejects protocols that do not fit a period",
		func(p pacing.Protocol) {
			Expect(p.Validate()).To(MatchError(dynamo.ErrDomain))
		},
		Entry("zero period", pacing.Protocol{Period: 0, Duration: 1}),
		Entry("negative duration", pacing.Protocol{Period: 10, Duration: -1}),
		Entry("negative start", pacing.Protocol{Period: 10, Duration: 1, Start: -1}),
		Entry("stimulus past period", pacing.Protocol{Period: 10, Duration: 5, Start: 6}),
		Entry("negative sampling", pacing.Protocol{Period: 10, Duration: 1, SamplingStep: -1}),
	)
})

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		model  *halvingModel
		driver *pacing.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		model = newHalvingModel(1)
		var err error
		driver, err = pacing.NewDriver(model, pacing.Protocol{Period: 1, Duration: 0.1, Amplitude: 5, SamplingStep: 0.1})
		Expect(err).NotTo(HaveOccurred())
	})

	It("installs the protocol's stimulus on the model", func() {
		Expect(model.stim).To(Equal(dynamo.Stimulus{Amplitude: 5, Duration: 0.1, Period: 1}))
	})

	Describe("RunSimulation", func() {
		It("stops at the first pace whose MRMS falls below tolerance", func() {
			res, err := driver.RunSimulation(ctx, 50, 1e-6)
			Expect(err).NotTo(HaveOccurred())

			// 0.5^19 > 1e-6 > 0.5^20
			Expect(res.Converged).To(BeTrue())
			Expect(res.Paces).To(Equal(20))
			Expect(res.History).To(HaveLen(20))
			Expect(res.History[0]).To(BeNumerically("~", 0.5, 1e-12))
			Expect(res.FinalMRMS).To(BeNumerically("<", 1e-6))
			Expect(res.Final[0]).To(BeNumerically("~", math.Pow(0.5, 20), 1e-15))
			Expect(model.State()).To(Equal(res.Final))
		})

		It("never runs more than the requested paces", func() {
			res, err := driver.RunSimulation(ctx, 10, 1e-6)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.Paces).To(Equal(10))
			Expect(res.History).To(HaveLen(10))
			Expect(res.Records).To(HaveLen(10))
			Expect(res.Records[9]).To(HaveLen(3))
		})

		It("rejects a non-positive pace count", func() {
			_, err := driver.RunSimulation(ctx, 0, 1e-6)
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})

		It("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			res, err := driver.RunSimulation(cctx, 10, 1e-6)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Paces).To(BeZero())
		})

		It("propagates solver failures with the pace number", func() {
			model.failAt = 5
			_, err := driver.RunSimulation(ctx, 10, 1e-6)

			var solverErr *dynamo.SolverError
			Expect(errors.As(err, &solverErr)).To(BeTrue())
			Expect(err).To(MatchError(dynamo.ErrStepLimit))
			Expect(err.Error()).To(HavePrefix("pace 3:"))
		})
	})

	Describe("GetPace", func() {
		It("returns the joined trajectory of both phases", func() {
			tr, err := driver.GetPace(dynamo.State{1, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Len()).To(Equal(11))
			Expect(tr.Times[0]).To(Equal(0.0))
			Expect(tr.Times[1]).To(BeNumerically("~", 0.1, 1e-15))

			end, final := tr.Final()
			Expect(end).To(Equal(1.0))
			Expect(final[0]).To(BeNumerically("~", 0.5, 1e-12))
			Expect(model.State()).To(Equal(final))
		})

		It("adds a lead-in phase when the stimulus starts late", func() {
			Expect(driver.SetProtocol(pacing.Protocol{Period: 1, Start: 0.2, Duration: 0.1, SamplingStep: 0.1})).To(Succeed())
			model.calls = 0
			_, err := driver.GetPace(dynamo.State{1, 1})
			Expect(err).NotTo(HaveOccurred())
			// [0,0.2] in 2 samples, [0.2,0.3] in 1, [0.3,1] in 7
			Expect(model.calls).To(Equal(10))
		})
	})

	Describe("pace comparisons", func() {
		BeforeEach(func() {
			Expect(model.SetState(dynamo.State{3, 3})).To(Succeed())
		})

		It("reduces the two-norm trace by its maximum", func() {
			d, err := driver.Pace2Norm(dynamo.State{1, 1}, dynamo.State{2, 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(BeNumerically("~", math.Sqrt2, 1e-12))
			Expect(model.State()).To(Equal(dynamo.State{3, 3}))
		})

		It("reduces the MRMS trace by its maximum", func() {
			d, err := driver.PaceMRMS(dynamo.State{1, 1}, dynamo.State{2, 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(BeNumerically("~", 1, 1e-12))
			Expect(model.State()).To(Equal(dynamo.State{3, 3}))
		})

		It("reduces with the configured reducer", func() {
			final, err := pacing.NewDriver(model, driver.Protocol(), pacing.WithReducer(metrics.Final))
			Expect(err).NotTo(HaveOccurred())

			d, err := final.Pace2Norm(dynamo.State{1, 1}, dynamo.State{2, 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(BeNumerically("~", math.Sqrt(0.5), 1e-12))
		})

		It("is zero for identical states", func() {
			d, err := driver.PaceMRMS(dynamo.State{0.2, 0.7}, dynamo.State{0.2, 0.7})
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(BeZero())
		})

		It("restores the state after a failure", func() {
			_, err := driver.Pace2Norm(dynamo.State{1}, dynamo.State{2, 2})
			Expect(err).To(MatchError(dynamo.ErrDomain))
			Expect(model.State()).To(Equal(dynamo.State{3, 3}))
		})
	})

	Describe("CalculateAPD", func() {
		It("reports a pace without an action potential", func() {
			_, err := driver.CalculateAPD(90)
			Expect(err).To(MatchError(features.ErrNoActionPotential))
		})
	})

	Describe("Analyze", func() {
		It("classifies the window on cadence once it is full", func() {
			res, err := driver.Analyze(ctx, pacing.AnalysisConfig{Paces: 30, BufferSize: 10, Cadence: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.Paces).To(Equal(30))
			Expect(res.Records).To(HaveLen(30))
			Expect(res.MRMS()[0]).To(BeNumerically("~", 0.5, 1e-12))

			Expect(res.Rows).To(HaveLen(5))
			Expect(res.Rows[0].Pace).To(Equal(10))
			last := res.LastRow()
			Expect(last.Pace).To(Equal(30))
			Expect(last.Err).NotTo(HaveOccurred())
			Expect(last.Verdicts).To(HaveLen(2))
			for _, v := range last.Verdicts {
				Expect(v.Status).To(Equal(analysis.StatusOK))
				Expect(v.PMCC).To(BeNumerically("<", -0.99))
				Expect(v.Rate).To(BeNumerically("<", 0))
			}
			Expect(last.Summary.OK).To(Equal(2))
		})

		It("stops early on tolerance", func() {
			res, err := driver.Analyze(ctx, pacing.AnalysisConfig{Paces: 50, Tolerance: 1e-6})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.Paces).To(Equal(20))
			Expect(res.Rows).To(BeEmpty())
		})

		Context("when the correlation leaves its bound", func() {
			outOfBound := func(xs, ys []float64) (float64, error) { return 1.2, nil }

			It("aborts at the first classified pace in strict mode", func() {
				res, err := driver.Analyze(ctx, pacing.AnalysisConfig{
					Paces: 30, BufferSize: 10, Cadence: 5, Strict: true, Correlate: outOfBound,
				})
				Expect(err).To(MatchError(dynamo.ErrNumericalAssertion))
				Expect(err.Error()).To(HavePrefix("pace 10:"))

				var assertion *dynamo.NumericalAssertionError
				Expect(errors.As(err, &assertion)).To(BeTrue())
				Expect(assertion.Value).To(Equal(1.2))

				Expect(res.Paces).To(Equal(10))
				Expect(res.Rows).To(HaveLen(1))
				Expect(res.Rows[0].Summary.Unstable).To(Equal(2))
			})

			It("keeps pacing and records the error otherwise", func() {
				res, err := driver.Analyze(ctx, pacing.AnalysisConfig{
					Paces: 30, BufferSize: 10, Cadence: 5, Correlate: outOfBound,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Paces).To(Equal(30))
				Expect(res.Rows).To(HaveLen(5))
				for _, row := range res.Rows {
					Expect(row.Err).To(MatchError(dynamo.ErrNumericalAssertion))
					for _, v := range row.Verdicts {
						Expect(v.Status).To(Equal(analysis.StatusUnstable))
					}
				}
			})
		})

		It("validates its configuration", func() {
			_, err := driver.Analyze(ctx, pacing.AnalysisConfig{})
			Expect(err).To(MatchError(dynamo.ErrDomain))
			_, err = driver.Analyze(ctx, pacing.AnalysisConfig{Paces: 5, BufferSize: 2})
			Expect(err).To(MatchError(dynamo.ErrDomain))
		})
	})

	Describe("APDSeries", func() {
		It("records NaN for paces without an action potential", func() {
			series, err := driver.APDSeries(ctx, 3, 90)
			Expect(err).NotTo(HaveOccurred())
			Expect(series.Samples).To(HaveLen(3))
			for _, apd := range series.APDs() {
				Expect(math.IsNaN(apd)).To(BeTrue())
			}
			Expect(series.Samples[2].State[0]).To(BeNumerically("~", 0.125, 1e-12))
		})
	})
})

var _ = Describe("Observers", func() {
	It("sees every pace", func() {
		var events []pacing.PaceEvent
		model := newHalvingModel(1)
		driver, err := pacing.NewDriver(model, pacing.Protocol{Period: 1, Duration: 0.1},
			pacing.WithObserver(pacing.ObserverFunc(func(ev pacing.PaceEvent) {
				events = append(events, ev)
			})))
		Expect(err).NotTo(HaveOccurred())

		_, err = driver.RunSimulation(context.Background(), 5, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(5))
		for i, ev := range events {
			Expect(ev.Model).To(Equal("halving"))
			Expect(ev.Loop).To(Equal(pacing.LoopSteadyState))
			Expect(ev.Pace).To(Equal(i + 1))
			Expect(ev.Total).To(Equal(5))
			Expect(math.IsNaN(ev.APD)).To(BeTrue())
		}
	})

	It("drops events instead of blocking on a full channel", func() {
		ch := make(chan pacing.PaceEvent, 2)
		driver, err := pacing.NewDriver(newHalvingModel(1), pacing.Protocol{Period: 1, Duration: 0.1},
			pacing.WithObserver(pacing.ChannelObserver(ch)))
		Expect(err).NotTo(HaveOccurred())

		_, err = driver.RunSimulation(context.Background(), 5, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(ch).To(HaveLen(2))
		Expect((<-ch).Pace).To(Equal(1))
	})
})

var _ = Describe("RunEnsemble", func() {
	newJob := func(name string, failAt int) pacing.Job {
		model := newHalvingModel(1)
		model.failAt = failAt
		driver, err := pacing.NewDriver(model, pacing.Protocol{Period: 1, Duration: 0.1})
		Expect(err).NotTo(HaveOccurred())
		return pacing.Job{Name: name, Driver: driver, Paces: 50, Tolerance: 1e-6}
	}

	It("runs independent models and reports per-job errors", func() {
		jobs := []pacing.Job{newJob("a", 0), newJob("b", 3), newJob("c", 0)}
		results := pacing.RunEnsemble(context.Background(), jobs, pacing.EnsembleOptions{Workers: 2})

		Expect(results).To(HaveLen(3))
		Expect(results[0].Name).To(Equal("a"))
		Expect(results[0].Err).NotTo(HaveOccurred())
		Expect(results[0].Steady.Paces).To(Equal(20))
		Expect(results[1].Err).To(MatchError(dynamo.ErrSolver))
		Expect(results[2].Err).NotTo(HaveOccurred())
		Expect(results[2].Steady.Converged).To(BeTrue())
	})

	It("cancels the remaining jobs after a failure when failing fast", func() {
		jobs := []pacing.Job{newJob("bad", 1), newJob("late", 0)}
		results := pacing.RunEnsemble(context.Background(), jobs, pacing.EnsembleOptions{Workers: 1, FailFast: true})

		Expect(results[0].Err).To(MatchError(dynamo.ErrSolver))
		Expect(results[1].Err).To(MatchError(context.Canceled))
	})
})
