package pacing

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// RestitutionConfig describes a dynamic restitution sweep.
type RestitutionConfig struct {
	CycleLengths       []float64 // visited in the given order, normally decreasing
	Paces              int       // pacing budget per cycle length
	Tolerance          float64   // steady-state MRMS threshold
	Percent            float64   // repolarization percent for APD
	AlternansThreshold float64   // APD difference flagging alternans
}

// RestitutionPoint is the response at one cycle length.
type RestitutionPoint struct {
	CycleLength float64
	APD         [2]float64 // two consecutive paces after pacing
	DI          float64    // diastolic interval following the second pace
	Alternans   bool
	Converged   bool
	Paces       int
}

// Restitution paces towards steady state at each cycle length in turn and
// measures the APD on two consecutive paces. The model state carries over
// from one cycle length to the next. The driver's protocol is restored when
// the sweep ends.
func (d *Driver) Restitution(ctx context.Context, cfg RestitutionConfig) ([]RestitutionPoint, error) {
	if len(cfg.CycleLengths) == 0 {
		return nil, dynamo.Domainf("restitution", "no cycle lengths")
	}
	if cfg.Paces < 1 {
		return nil, dynamo.Domainf("restitution", "pace count must be positive, got %d", cfg.Paces)
	}

	base := d.proto
	defer func() {
		d.proto = base
		d.model.SetStimulus(base.Stimulus())
	}()

	points := make([]RestitutionPoint, 0, len(cfg.CycleLengths))
	for i, bcl := range cfg.CycleLengths {
		proto := base
		proto.Period = bcl
		if err := d.SetProtocol(proto); err != nil {
			return points, fmt.Errorf("cycle length %g: %w", bcl, err)
		}

		steady, err := d.RunSimulation(ctx, cfg.Paces, cfg.Tolerance)
		if err != nil {
			return points, fmt.Errorf("cycle length %g: %w", bcl, err)
		}

		pt := RestitutionPoint{CycleLength: bcl, Converged: steady.Converged, Paces: steady.Paces}
		for k := range pt.APD {
			smp, err := d.measurePace(steady.Paces+k+1, cfg.Percent)
			if err != nil {
				return points, fmt.Errorf("cycle length %g: %w", bcl, err)
			}
			pt.APD[k] = smp.APD
		}
		pt.DI = bcl - pt.APD[1]
		pt.Alternans = math.Abs(pt.APD[0]-pt.APD[1]) > cfg.AlternansThreshold
		points = append(points, pt)

		d.log.Info("restitution point", "bcl", bcl, "apd", pt.APD[1], "alternans", pt.Alternans)
		ev := newEvent(LoopRestitution, i+1, len(cfg.CycleLengths), d.model.State())
		ev.APD = pt.APD[1]
		d.notify(ev)
	}
	return points, nil
}
