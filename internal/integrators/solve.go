package integrators

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
)

// Options bound an integration run. They mirror the knobs a cell model
// exposes: tolerances, the largest step allowed (so a stimulus pulse cannot
// be stepped over) and the step budget before giving up.
type Options struct {
	RelTol    float64
	AbsTol    float64
	MaxDt     float64
	MinDt     float64
	InitialDt float64
	MaxSteps  int
}

func DefaultOptions() Options {
	return Options{
		RelTol:   1e-6,
		AbsTol:   1e-8,
		MaxDt:    1.0,
		MinDt:    1e-10,
		MaxSteps: 100000,
	}
}

// Stats reports the work done by Integrate.
type Stats struct {
	Steps    int
	Rejected int
	NextDt   float64
}

// Integrate advances x from t0 to t1 and returns the state at t1. Adaptive
// integrators take error-controlled steps no larger than MaxDt; fixed-step
// integrators take steps of MaxDt (or InitialDt when set), shortening the
// last one to land on t1. ctrl may be nil.
//
// The returned error is one of dynamo.ErrStepLimit, dynamo.ErrStepTooSmall,
// dynamo.ErrInvalidState or dynamo.ErrDimensionMismatch; callers wrap it with
// model context.
func Integrate(integ dynamo.Integrator, dyn dynamo.System, ctrl dynamo.Controller, x dynamo.State, t0, t1 float64, opts Options) (dynamo.State, Stats, error) {
	var stats Stats
	if len(x) != dyn.StateDim() {
		return x, stats, dynamo.ErrDimensionMismatch
	}
	if t1 < t0 {
		return x, stats, dynamo.Domainf("integrate", "end time %g before start time %g", t1, t0)
	}

	x = x.Clone()
	if t1 == t0 {
		stats.NextDt = opts.InitialDt
		return x, stats, nil
	}

	maxDt := opts.MaxDt
	if maxDt <= 0 {
		maxDt = t1 - t0
	}
	dt := opts.InitialDt
	if dt <= 0 {
		dt = math.Min(maxDt, (t1-t0)/100)
	}
	dt = math.Min(dt, maxDt)

	adaptive, isAdaptive := integ.(dynamo.AdaptiveIntegrator)
	if !isAdaptive && opts.InitialDt <= 0 {
		dt = maxDt
	}

	zero := make(dynamo.Control, dyn.ControlDim())
	t := t0
	for t < t1 {
		if opts.MaxSteps > 0 && stats.Steps+stats.Rejected >= opts.MaxSteps {
			return x, stats, dynamo.ErrStepLimit
		}

		last := false
		h := dt
		if t+h >= t1 {
			h = t1 - t
			last = true
		}

		u := zero
		if ctrl != nil {
			u = ctrl.Compute(x, t)
		}

		var xNew dynamo.State
		if isAdaptive {
			var next float64
			var ok bool
			xNew, next, ok = adaptive.StepAdaptive(dyn, x, u, t, h, opts.RelTol, opts.AbsTol)
			if !ok {
				stats.Rejected++
				if next < opts.MinDt {
					return x, stats, dynamo.ErrStepTooSmall
				}
				dt = next
				continue
			}
			if !last || next < dt {
				dt = math.Min(next, maxDt)
			}
		} else {
			xNew = integ.Step(dyn, x, u, t, h)
		}

		if !xNew.IsValid() {
			return x, stats, dynamo.ErrInvalidState
		}

		stats.Steps++
		x = xNew
		if last {
			t = t1
		} else {
			t += h
		}
	}

	stats.NextDt = dt
	return x, stats, nil
}
