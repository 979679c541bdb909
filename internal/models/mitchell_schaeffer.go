package models

import "github.com/san-kum/pacesim/internal/dynamo"

// MitchellSchaeffer implements the Mitchell-Schaeffer two-current model.
// State: [v, h] with v normalized to [0, 1]
// Equations:
//
//	dv/dt = h·v²(1-v)/τ_in - v/τ_out + J
//	dh/dt = (1-h)/τ_open   if v < v_gate
//	dh/dt = -h/τ_close     otherwise
type MitchellSchaeffer struct {
	TauIn    float64
	TauOut   float64
	TauOpen  float64
	TauClose float64
	VGate    float64
}

func NewMitchellSchaeffer() *MitchellSchaeffer {
	return &MitchellSchaeffer{
		TauIn:    0.3,
		TauOut:   6.0,
		TauOpen:  120.0,
		TauClose: 150.0,
		VGate:    0.13,
	}
}

func (m *MitchellSchaeffer) Name() string    { return "mitchell-schaeffer" }
func (m *MitchellSchaeffer) StateDim() int   { return 2 }
func (m *MitchellSchaeffer) ControlDim() int { return 1 }

func (m *MitchellSchaeffer) StateNames() []string {
	return []string{dynamo.VoltageName, "gate_h"}
}

func (m *MitchellSchaeffer) Derive(x dynamo.State, u dynamo.Control, _ float64) dynamo.State {
	v, h := x[0], x[1]

	jIn := h * v * v * (1 - v) / m.TauIn
	jOut := -v / m.TauOut
	dv := jIn + jOut + stimulus(u)

	var dh float64
	if v < m.VGate {
		dh = (1 - h) / m.TauOpen
	} else {
		dh = -h / m.TauClose
	}

	return dynamo.State{dv, dh}
}

func (m *MitchellSchaeffer) DefaultState() dynamo.State {
	return dynamo.State{0, 1}
}

// GetParams implements dynamo.Configurable
func (m *MitchellSchaeffer) GetParams() map[string]float64 {
	return map[string]float64{
		"tau_in":    m.TauIn,
		"tau_out":   m.TauOut,
		"tau_open":  m.TauOpen,
		"tau_close": m.TauClose,
		"v_gate":    m.VGate,
	}
}

// SetParam implements dynamo.Configurable
func (m *MitchellSchaeffer) SetParam(name string, value float64) error {
	var field *float64
	switch name {
	case "tau_in":
		field = &m.TauIn
	case "tau_out":
		field = &m.TauOut
	case "tau_open":
		field = &m.TauOpen
	case "tau_close":
		field = &m.TauClose
	case "v_gate":
		m.VGate = value
		return nil
	default:
		return unknownParam(m.Name(), name, m.GetParams())
	}
	if err := positiveParam(m.Name(), name, value); err != nil {
		return err
	}
	*field = value
	return nil
}
