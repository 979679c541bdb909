package pacing

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// Protocol is a regular pacing protocol. Times are in the model's time unit.
type Protocol struct {
	Period       float64 // basic cycle length
	Duration     float64 // stimulus duration
	Start        float64 // stimulus onset within each pace
	Amplitude    float64
	SamplingStep float64 // trajectory sampling interval; zero selects Period/1000
}

// Validate fills the default sampling step and checks the protocol fits in
// one period.
func (p *Protocol) Validate() error {
	switch {
	case !(p.Period > 0) || math.IsInf(p.Period, 0):
		return dynamo.Domainf("protocol", "period must be positive and finite, got %g", p.Period)
	case p.Duration < 0:
		return dynamo.Domainf("protocol", "stimulus duration must not be negative, got %g", p.Duration)
	case p.Start < 0:
		return dynamo.Domainf("protocol", "stimulus start must not be negative, got %g", p.Start)
	case p.Start+p.Duration > p.Period:
		return dynamo.Domainf("protocol", "stimulus [%g, %g] does not fit in period %g", p.Start, p.Start+p.Duration, p.Period)
	case p.SamplingStep < 0:
		return dynamo.Domainf("protocol", "sampling step must not be negative, got %g", p.SamplingStep)
	}
	if p.SamplingStep == 0 {
		p.SamplingStep = p.Period / 1000
	}
	return nil
}

// Stimulus returns the stimulus current the protocol installs on a model.
func (p Protocol) Stimulus() dynamo.Stimulus {
	return dynamo.Stimulus{
		Amplitude: p.Amplitude,
		Start:     p.Start,
		Duration:  p.Duration,
		Period:    p.Period,
	}
}

type phase struct{ start, end float64 }

// phases splits one pace at the stimulus edges so no solver step straddles
// them. Empty phases are dropped.
func (p Protocol) phases() []phase {
	edges := []float64{0}
	if p.Start > 0 {
		edges = append(edges, p.Start)
	}
	edges = append(edges, p.Start+p.Duration, p.Period)

	out := make([]phase, 0, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		if edges[i] > edges[i-1] {
			out = append(out, phase{edges[i-1], edges[i]})
		}
	}
	return out
}
