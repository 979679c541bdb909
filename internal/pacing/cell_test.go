package pacing_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pacesim/internal/cell"
	"github.com/san-kum/pacesim/internal/integrators"
	"github.com/san-kum/pacesim/internal/models"
	"github.com/san-kum/pacesim/internal/pacing"
)

var _ = Describe("Mitchell-Schaeffer cell", func() {
	var (
		ctx    context.Context
		c      *cell.Cell
		driver *pacing.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		opts := integrators.DefaultOptions()
		opts.MaxDt = 1
		c = cell.New(models.NewMitchellSchaeffer(), nil, opts)

		var err error
		driver, err = pacing.NewDriver(c, pacing.Protocol{Period: 1000, Duration: 1, Amplitude: 0.5, SamplingStep: 0.5})
		Expect(err).NotTo(HaveOccurred())
	})

	It("measures the action potential of one pace", func() {
		props, err := driver.CalculateAPD(90)
		Expect(err).NotTo(HaveOccurred())
		Expect(props.APD).To(BeNumerically("~", 287, 15))
		Expect(props.Peak).To(BeNumerically(">", 0.9))
		Expect(props.MaxUpstrokeVelocity).To(BeNumerically(">", 0.3))
	})

	It("records an APD for every pace", func() {
		series, err := driver.APDSeries(ctx, 3, 90)
		Expect(err).NotTo(HaveOccurred())
		for _, apd := range series.APDs() {
			Expect(math.IsNaN(apd)).To(BeFalse())
		}
	})

	It("shortens the action potential at a shorter cycle length", func() {
		points, err := driver.Restitution(ctx, pacing.RestitutionConfig{
			CycleLengths:       []float64{1000, 500},
			Paces:              10,
			Tolerance:          1e-4,
			Percent:            90,
			AlternansThreshold: 5,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(2))
		Expect(points[1].APD[1]).To(BeNumerically("<", points[0].APD[1]))
		Expect(points[1].DI).To(BeNumerically("~", 500-points[1].APD[1], 1e-9))
		Expect(driver.Protocol().Period).To(Equal(1000.0))
	})
})

var _ = Describe("Pacing a real cell", func() {
	proto := pacing.Protocol{Period: 1000, Duration: 2, Amplitude: 1, SamplingStep: 0.5}

	newDriver := func(kin cell.Kinetics) (*cell.Cell, *pacing.Driver) {
		c := cell.New(kin, nil, integrators.DefaultOptions())
		d, err := pacing.NewDriver(c, proto)
		Expect(err).NotTo(HaveOccurred())
		return c, d
	}

	DescribeTable("compares a state with itself as zero",
		func(kin cell.Kinetics) {
			c, d := newDriver(kin)
			rest := c.State()

			norm, err := d.Pace2Norm(rest, rest)
			Expect(err).NotTo(HaveOccurred())
			Expect(norm).To(BeZero())

			mrms, err := d.PaceMRMS(rest, rest)
			Expect(err).NotTo(HaveOccurred())
			Expect(mrms).To(BeZero())
		},
		Entry("mitchell-schaeffer", cell.Kinetics(models.NewMitchellSchaeffer())),
		Entry("aliev-panfilov", cell.Kinetics(models.NewAlievPanfilov())),
		Entry("fitzhugh-nagumo", cell.Kinetics(models.NewFitzHughNagumo())),
	)

	It("paces the same after a comparison as on a fresh cell", func() {
		ctx := context.Background()

		freshCell, fresh := newDriver(models.NewMitchellSchaeffer())
		rest := freshCell.State()
		want, err := fresh.RunSimulation(ctx, 3, 0)
		Expect(err).NotTo(HaveOccurred())

		usedCell, used := newDriver(models.NewMitchellSchaeffer())
		_, err = used.Pace2Norm(rest, rest)
		Expect(err).NotTo(HaveOccurred())
		Expect(usedCell.State()).To(Equal(rest))

		got, err := used.RunSimulation(ctx, 3, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.History).To(Equal(want.History))
		Expect(got.Final).To(Equal(want.Final))
	})
})
