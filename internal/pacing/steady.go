package pacing

import (
	"context"
	"fmt"

	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/metrics"
	"github.com/san-kum/pacesim/internal/tracebuf"
)

// SteadyState is the outcome of RunSimulation.
type SteadyState struct {
	Converged bool
	Paces     int // paces run; the converged pace when Converged
	FinalMRMS float64
	History   []float64 // MRMS of each pace against the one before
	Records   []tracebuf.Record
	Final     dynamo.State
}

// RunSimulation paces the model from its current state until the MRMS
// between consecutive end-of-pace states drops below tolerance, or paces
// paces have run. The first pace is compared with the starting state.
func (d *Driver) RunSimulation(ctx context.Context, paces int, tolerance float64) (*SteadyState, error) {
	if paces < 1 {
		return nil, dynamo.Domainf("run simulation", "pace count must be positive, got %d", paces)
	}

	res := &SteadyState{
		History: make([]float64, 0, paces),
		Records: make([]tracebuf.Record, 0, paces),
	}
	prev := d.model.State()
	res.Final = prev

	for pace := 1; pace <= paces; pace++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if err := d.advance(pace); err != nil {
			return res, err
		}
		cur := d.model.State()
		mrms, err := metrics.MRMS(cur, prev)
		if err != nil {
			return res, fmt.Errorf("pace %d: %w", pace, err)
		}

		res.Paces = pace
		res.FinalMRMS = mrms
		res.History = append(res.History, mrms)
		res.Records = append(res.Records, tracebuf.NewRecord(cur, mrms))
		res.Final = cur

		d.log.Debug("pace complete", "pace", pace, "mrms", mrms)
		ev := newEvent(LoopSteadyState, pace, paces, cur)
		ev.MRMS = mrms
		d.notify(ev)

		if mrms < tolerance {
			res.Converged = true
			d.log.Info("steady state reached", "paces", pace, "mrms", mrms, "tolerance", tolerance)
			return res, nil
		}
		prev = cur
	}

	d.log.Info("steady state not reached", "paces", paces, "mrms", res.FinalMRMS, "tolerance", tolerance)
	return res, nil
}
