// Package features measures action potential properties from a sampled
// voltage trace.
package features

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// ErrNoActionPotential is returned when a trace holds no complete action
// potential: no upstroke, or no repolarization to the requested level.
var ErrNoActionPotential = &dynamo.DomainError{Op: "extract features", Reason: "no action potential"}

const DefaultMinAmplitude = 0.1

// Properties of the last action potential in a trace. Times share the unit
// of the input times.
type Properties struct {
	Percent             float64
	APD                 float64
	Onset               float64
	Repolarization      float64
	MaxUpstrokeVelocity float64
	Peak                float64
	Resting             float64
}

// Extractor finds action potentials whose excursion exceeds MinAmplitude.
type Extractor struct {
	MinAmplitude float64
}

func NewExtractor() Extractor {
	return Extractor{MinAmplitude: DefaultMinAmplitude}
}

// Extract returns the duration at percent repolarization of the last action
// potential in voltages, together with its maximum upstroke velocity. The
// onset is the time of maximum dV/dt; repolarization is interpolated
// linearly between samples.
func (e Extractor) Extract(voltages, times []float64, percent float64) (*Properties, error) {
	if len(voltages) != len(times) {
		return nil, dynamo.Domainf("extract features", "%d voltages for %d times", len(voltages), len(times))
	}
	if len(voltages) < 3 {
		return nil, dynamo.Domainf("extract features", "need at least 3 samples, got %d", len(voltages))
	}
	if !(percent > 0 && percent <= 100) {
		return nil, dynamo.Domainf("extract features", "repolarization percent %g outside (0, 100]", percent)
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, dynamo.Domainf("extract features", "times not increasing at sample %d", i)
		}
	}

	lo, hi := voltages[0], voltages[0]
	for _, v := range voltages {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < e.MinAmplitude || hi == lo {
		return nil, ErrNoActionPotential
	}
	mid := lo + 0.5*(hi-lo)

	// last upward crossing of the midpoint
	cross := -1
	for i := len(voltages) - 2; i >= 0; i-- {
		if voltages[i] < mid && voltages[i+1] >= mid {
			cross = i
			break
		}
	}
	if cross < 0 {
		return nil, ErrNoActionPotential
	}

	// the upstroke starts after the previous downward crossing
	start := 0
	for i := cross - 1; i >= 0; i-- {
		if voltages[i] >= mid && voltages[i+1] < mid {
			start = i + 1
			break
		}
	}

	peakIdx := cross + 1
	for i := cross + 1; i < len(voltages); i++ {
		if voltages[i] < mid {
			break
		}
		if voltages[i] > voltages[peakIdx] {
			peakIdx = i
		}
	}

	onsetIdx := start
	maxSlope := math.Inf(-1)
	for i := start; i < peakIdx; i++ {
		slope := (voltages[i+1] - voltages[i]) / (times[i+1] - times[i])
		if slope > maxSlope {
			maxSlope = slope
			onsetIdx = i
		}
	}

	resting := voltages[start]
	for i := start; i <= onsetIdx; i++ {
		resting = math.Min(resting, voltages[i])
	}

	p := &Properties{
		Percent:             percent,
		Onset:               times[onsetIdx],
		MaxUpstrokeVelocity: maxSlope,
		Peak:                voltages[peakIdx],
		Resting:             resting,
	}

	level := p.Peak - percent/100*(p.Peak-p.Resting)
	for i := peakIdx; i < len(voltages)-1; i++ {
		if voltages[i] >= level && voltages[i+1] < level {
			frac := (voltages[i] - level) / (voltages[i] - voltages[i+1])
			p.Repolarization = times[i] + frac*(times[i+1]-times[i])
			p.APD = p.Repolarization - p.Onset
			return p, nil
		}
	}
	return nil, ErrNoActionPotential
}
