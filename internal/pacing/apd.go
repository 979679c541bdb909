package pacing

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/features"
)

// APDSample is one pace of an APD series. APD is NaN when the pace had no
// complete action potential.
type APDSample struct {
	Pace       int
	APD        float64
	Properties *features.Properties
	State      dynamo.State // end of pace
}

type APDSeries struct {
	Percent float64
	Samples []APDSample
}

// APDs returns the APD column of the series.
func (s *APDSeries) APDs() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.APD
	}
	return out
}

// APDSeries paces the model paces times from its current state, recording
// the APD at percent repolarization and the end state of every pace.
func (d *Driver) APDSeries(ctx context.Context, paces int, percent float64) (*APDSeries, error) {
	if paces < 1 {
		return nil, dynamo.Domainf("apd series", "pace count must be positive, got %d", paces)
	}

	series := &APDSeries{Percent: percent, Samples: make([]APDSample, 0, paces)}
	for pace := 1; pace <= paces; pace++ {
		select {
		case <-ctx.Done():
			return series, ctx.Err()
		default:
		}

		smp, err := d.measurePace(pace, percent)
		if err != nil {
			return series, err
		}
		series.Samples = append(series.Samples, smp)

		ev := newEvent(LoopAPD, pace, paces, smp.State)
		ev.APD = smp.APD
		d.notify(ev)
	}
	return series, nil
}

// measurePace runs one pace from the current state and measures it. A pace
// without an action potential is not an error.
func (d *Driver) measurePace(pace int, percent float64) (APDSample, error) {
	smp := APDSample{Pace: pace, APD: math.NaN()}
	tr, err := d.GetPace(d.model.State())
	if err != nil {
		return smp, err
	}
	smp.State = d.model.State()

	props, err := d.extract(tr, percent)
	switch {
	case errors.Is(err, features.ErrNoActionPotential):
		d.log.Warn("no action potential", "pace", pace)
	case err != nil:
		return smp, err
	default:
		smp.APD = props.APD
		smp.Properties = props
	}
	return smp, nil
}
