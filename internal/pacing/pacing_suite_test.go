package pacing_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pacesim/internal/dynamo"
)

func TestPacing(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pacing Suite")
}

// halvingModel decays as s(t) = s(0)·2^(-t/period), so every full pace
// halves the state.
type halvingModel struct {
	state  dynamo.State
	period float64
	stim   dynamo.Stimulus

	// fail the n-th AdvanceTo call; zero never fails
	failAt int
	calls  int
}

func newHalvingModel(period float64) *halvingModel {
	return &halvingModel{state: dynamo.State{1, 1}, period: period}
}

func (m *halvingModel) Name() string                  { return "halving" }
func (m *halvingModel) StateDim() int                 { return len(m.state) }
func (m *halvingModel) StateNames() []string          { return []string{dynamo.VoltageName, "gate"} }
func (m *halvingModel) State() dynamo.State           { return m.state.Clone() }
func (m *halvingModel) SetStimulus(s dynamo.Stimulus) { m.stim = s }

func (m *halvingModel) SetState(x dynamo.State) error {
	if len(x) != len(m.state) {
		return dynamo.Domainf("set state", "want %d values, got %d", len(m.state), len(x))
	}
	m.state = x.Clone()
	return nil
}

func (m *halvingModel) StateIndex(name string) (int, error) {
	for i, n := range m.StateNames() {
		if n == name {
			return i, nil
		}
	}
	return -1, dynamo.Domainf("state index", "unknown variable %q", name)
}

func (m *halvingModel) AdvanceTo(tStart, tEnd float64) error {
	m.calls++
	if m.failAt > 0 && m.calls >= m.failAt {
		return &dynamo.SolverError{Model: m.Name(), Start: tStart, End: tEnd, Wrapped: dynamo.ErrStepLimit}
	}
	f := math.Pow(0.5, (tEnd-tStart)/m.period)
	next := make(dynamo.State, len(m.state))
	for i, v := range m.state {
		next[i] = v * f
	}
	m.state = next
	return nil
}

func (m *halvingModel) ComputeTrajectory(tStart, tEnd, step float64) (dynamo.Trajectory, error) {
	var tr dynamo.Trajectory
	tr.Add(tStart, m.state)
	t := tStart
	for i := 1; t < tEnd; i++ {
		next := tStart + float64(i)*step
		if next > tEnd || tEnd-next < step*1e-9 {
			next = tEnd
		}
		if err := m.AdvanceTo(t, next); err != nil {
			return tr, err
		}
		tr.Add(next, m.state)
		t = next
	}
	return tr, nil
}
