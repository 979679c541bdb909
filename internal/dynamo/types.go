package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Control carries external inputs to a System. For cell kinetics Control[0]
// is the stimulus current.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Named is implemented by systems that label their state variables.
type Named interface {
	StateNames() []string
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, u Control, t, dt, rtol, atol float64) (State, float64, bool)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Stimulus is a regular square-pulse stimulus current. The pulse of height
// Amplitude is on during [Start + n*Period, Start + n*Period + Duration).
type Stimulus struct {
	Amplitude float64
	Start     float64
	Duration  float64
	Period    float64
}

// Current returns the stimulus current at time t.
func (s Stimulus) Current(t float64) float64 {
	if s.Amplitude == 0 || s.Duration <= 0 || t < s.Start {
		return 0
	}
	phase := t - s.Start
	if s.Period > 0 {
		phase = math.Mod(phase, s.Period)
	}
	if phase < s.Duration {
		return s.Amplitude
	}
	return 0
}

// Compute implements Controller so a Stimulus can drive any System.
func (s Stimulus) Compute(x State, t float64) Control {
	return Control{s.Current(t)}
}

// Trajectory holds time-ordered samples of a model's state.
type Trajectory struct {
	Times  []float64
	States []State
}

// Add records a copy of x at time t.
func (tr *Trajectory) Add(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())
}

// Append joins other onto tr. A leading sample of other that repeats the
// final time of tr is dropped.
func (tr *Trajectory) Append(other Trajectory) {
	start := 0
	if n := len(tr.Times); n > 0 && len(other.Times) > 0 && other.Times[0] == tr.Times[n-1] {
		start = 1
	}
	tr.Times = append(tr.Times, other.Times[start:]...)
	tr.States = append(tr.States, other.States[start:]...)
}

func (tr Trajectory) Len() int { return len(tr.Times) }

// Final returns the last sample. It panics on an empty trajectory.
func (tr Trajectory) Final() (float64, State) {
	n := len(tr.Times) - 1
	return tr.Times[n], tr.States[n]
}

// Variable extracts the samples of one state variable.
func (tr Trajectory) Variable(index int) ([]float64, error) {
	out := make([]float64, len(tr.States))
	for i, s := range tr.States {
		if index < 0 || index >= len(s) {
			return nil, &IndexError{Op: "trajectory variable", Index: index, Len: len(s)}
		}
		out[i] = s[index]
	}
	return out, nil
}

// Rows returns the samples as plain vectors, sharing storage with tr.
func (tr Trajectory) Rows() [][]float64 {
	rows := make([][]float64, len(tr.States))
	for i, s := range tr.States {
		rows[i] = s
	}
	return rows
}

// CellModel is a paced ODE cell model that can be advanced and checkpointed.
//
// AdvanceTo and ComputeTrajectory mutate the model's state in place, leaving
// it at tEnd. Failures are reported as *SolverError.
type CellModel interface {
	Name() string
	AdvanceTo(tStart, tEnd float64) error
	ComputeTrajectory(tStart, tEnd, step float64) (Trajectory, error)
	State() State
	SetState(x State) error
	StateDim() int
	StateNames() []string
	StateIndex(name string) (int, error)
	SetStimulus(s Stimulus)
}

// VoltageName is the state variable name cell models use for the
// transmembrane potential.
const VoltageName = "membrane_voltage"
