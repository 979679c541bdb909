package models

import "github.com/san-kum/pacesim/internal/dynamo"

// AlievPanfilov implements the Aliev-Panfilov cardiac model.
// State: [v, w]
// Equations (model time τ = t/TimeScale):
//
//	dv/dτ = k·v(1-v)(v-a) - v·w + I
//	dw/dτ = (ε + μ1·w/(μ2+v))·(-w - k·v(v-a-1))
type AlievPanfilov struct {
	K         float64
	A         float64
	Epsilon   float64
	Mu1       float64
	Mu2       float64
	TimeScale float64 // ms per model time unit
}

func NewAlievPanfilov() *AlievPanfilov {
	return &AlievPanfilov{
		K:         8.0,
		A:         0.15,
		Epsilon:   0.002,
		Mu1:       0.2,
		Mu2:       0.3,
		TimeScale: 12.9,
	}
}

func (m *AlievPanfilov) Name() string    { return "aliev-panfilov" }
func (m *AlievPanfilov) StateDim() int   { return 2 }
func (m *AlievPanfilov) ControlDim() int { return 1 }

func (m *AlievPanfilov) StateNames() []string {
	return []string{dynamo.VoltageName, "recovery"}
}

func (m *AlievPanfilov) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	v, w := x[0], x[1]

	dv := m.K*v*(1-v)*(v-m.A) - v*w + stimulus(u)
	gate := m.Epsilon + m.Mu1*w/(m.Mu2+v)
	dw := gate * (-w - m.K*v*(v-m.A-1))

	return dynamo.State{dv / m.TimeScale, dw / m.TimeScale}
}

func (m *AlievPanfilov) DefaultState() dynamo.State {
	return dynamo.State{0, 0}
}

// GetParams implements dynamo.Configurable
func (m *AlievPanfilov) GetParams() map[string]float64 {
	return map[string]float64{
		"k":          m.K,
		"a":          m.A,
		"epsilon":    m.Epsilon,
		"mu1":        m.Mu1,
		"mu2":        m.Mu2,
		"time_scale": m.TimeScale,
	}
}

// SetParam implements dynamo.Configurable
func (m *AlievPanfilov) SetParam(name string, value float64) error {
	switch name {
	case "k":
		m.K = value
	case "a":
		m.A = value
	case "epsilon":
		m.Epsilon = value
	case "mu1":
		m.Mu1 = value
	case "mu2":
		if err := positiveParam(m.Name(), name, value); err != nil {
			return err
		}
		m.Mu2 = value
	case "time_scale":
		if err := positiveParam(m.Name(), name, value); err != nil {
			return err
		}
		m.TimeScale = value
	default:
		return unknownParam(m.Name(), name, m.GetParams())
	}
	return nil
}
