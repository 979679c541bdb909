package models

import "github.com/san-kum/pacesim/internal/dynamo"

// FitzHughNagumo implements the FitzHugh-Nagumo excitable system.
// State: [v, w]
// Equations (model time τ = t/TimeScale):
//
//	dv/dτ = v - v³/3 - w + I
//	dw/dτ = ε(v + a - b·w)
type FitzHughNagumo struct {
	A         float64
	B         float64
	Epsilon   float64
	TimeScale float64 // ms per model time unit
}

func NewFitzHughNagumo() *FitzHughNagumo {
	return &FitzHughNagumo{
		A:         0.7,
		B:         0.8,
		Epsilon:   0.08,
		TimeScale: 10,
	}
}

func (f *FitzHughNagumo) Name() string    { return "fitzhugh-nagumo" }
func (f *FitzHughNagumo) StateDim() int   { return 2 }
func (f *FitzHughNagumo) ControlDim() int { return 1 }

func (f *FitzHughNagumo) StateNames() []string {
	return []string{dynamo.VoltageName, "recovery"}
}

func (f *FitzHughNagumo) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	v, w := x[0], x[1]

	dv := v - v*v*v/3 - w + stimulus(u)
	dw := f.Epsilon * (v + f.A - f.B*w)

	return dynamo.State{dv / f.TimeScale, dw / f.TimeScale}
}

// DefaultState is the resting point for the default parameters.
func (f *FitzHughNagumo) DefaultState() dynamo.State {
	return dynamo.State{-1.19941, -0.62426}
}

// GetParams implements dynamo.Configurable
func (f *FitzHughNagumo) GetParams() map[string]float64 {
	return map[string]float64{
		"a":          f.A,
		"b":          f.B,
		"epsilon":    f.Epsilon,
		"time_scale": f.TimeScale,
	}
}

// SetParam implements dynamo.Configurable
func (f *FitzHughNagumo) SetParam(name string, value float64) error {
	switch name {
	case "a":
		f.A = value
	case "b":
		f.B = value
	case "epsilon":
		f.Epsilon = value
	case "time_scale":
		if err := positiveParam(f.Name(), name, value); err != nil {
			return err
		}
		f.TimeScale = value
	default:
		return unknownParam(f.Name(), name, f.GetParams())
	}
	return nil
}
