// Package cell binds cell kinetics, a stimulus and an integrator into a
// stateful [dynamo.CellModel].
package cell

import (
	"math"

	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/integrators"
)

// Kinetics is the right-hand side a Cell integrates.
type Kinetics interface {
	dynamo.System
	dynamo.Named
	Name() string
	DefaultState() dynamo.State
}

// Cell is a single paced cell. It is not safe for concurrent use; pacing
// loops own one Cell each.
type Cell struct {
	kin   Kinetics
	integ dynamo.Integrator
	opts  integrators.Options
	stim  dynamo.Stimulus
	state dynamo.State
	names []string

	// step size carried between consecutive solves; cleared whenever the
	// state is replaced
	lastDt float64
}

// New returns a cell at its kinetics' resting state. A nil integ selects RK45.
func New(kin Kinetics, integ dynamo.Integrator, opts integrators.Options) *Cell {
	if integ == nil {
		integ = integrators.NewRK45()
	}
	return &Cell{
		kin:   kin,
		integ: integ,
		opts:  opts,
		state: kin.DefaultState().Clone(),
		names: kin.StateNames(),
	}
}

func (c *Cell) Name() string                  { return c.kin.Name() }
func (c *Cell) StateDim() int                 { return c.kin.StateDim() }
func (c *Cell) Kinetics() Kinetics            { return c.kin }
func (c *Cell) Stimulus() dynamo.Stimulus     { return c.stim }
func (c *Cell) SetStimulus(s dynamo.Stimulus) { c.stim = s }
func (c *Cell) Options() integrators.Options  { return c.opts }

// SetOptions replaces the solver options: tolerances, maximum step and the
// step budget per solve.
func (c *Cell) SetOptions(opts integrators.Options) { c.opts = opts }

func (c *Cell) StateNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Cell) StateIndex(name string) (int, error) {
	for i, n := range c.names {
		if n == name {
			return i, nil
		}
	}
	return -1, dynamo.Domainf("state index", "%s has no state variable %q", c.Name(), name)
}

// State returns a copy of the current state.
func (c *Cell) State() dynamo.State { return c.state.Clone() }

// SetState replaces the state and restarts the solver, so a solve from x
// does not depend on what was solved before.
func (c *Cell) SetState(x dynamo.State) error {
	if len(x) != c.StateDim() {
		return dynamo.Domainf("set state", "%s expects %d values, got %d", c.Name(), c.StateDim(), len(x))
	}
	if !x.IsValid() {
		return dynamo.Domainf("set state", "%v", dynamo.ErrInvalidState)
	}
	c.state = x.Clone()
	c.lastDt = 0
	return nil
}

// Reset returns the cell to its resting state and forgets the step size.
func (c *Cell) Reset() {
	c.state = c.kin.DefaultState().Clone()
	c.lastDt = 0
}

func (c *Cell) AdvanceTo(tStart, tEnd float64) error {
	x, err := c.solve(c.state, tStart, tEnd)
	if err != nil {
		return err
	}
	c.state = x
	return nil
}

// ComputeTrajectory advances the cell from tStart to tEnd, sampling the
// state every step. Both endpoints are included; the final interval may be
// shorter than step.
func (c *Cell) ComputeTrajectory(tStart, tEnd, step float64) (dynamo.Trajectory, error) {
	var tr dynamo.Trajectory
	if step <= 0 || math.IsNaN(step) {
		return tr, dynamo.Domainf("compute trajectory", "sampling step must be positive, got %g", step)
	}
	if tEnd < tStart {
		return tr, dynamo.Domainf("compute trajectory", "end time %g before start time %g", tEnd, tStart)
	}

	x := c.state
	tr.Add(tStart, x)
	t := tStart
	for i := 1; t < tEnd; i++ {
		next := tStart + float64(i)*step
		if next > tEnd || tEnd-next < step*1e-9 {
			next = tEnd
		}
		var err error
		x, err = c.solve(x, t, next)
		if err != nil {
			return tr, err
		}
		tr.Add(next, x)
		t = next
	}

	c.state = x
	return tr, nil
}

func (c *Cell) solve(x dynamo.State, tStart, tEnd float64) (dynamo.State, error) {
	opts := c.opts
	if c.lastDt > 0 {
		opts.InitialDt = c.lastDt
	}
	out, stats, err := integrators.Integrate(c.integ, c.kin, c.stim, x, tStart, tEnd, opts)
	if err != nil {
		return x, &dynamo.SolverError{
			Model:   c.Name(),
			Start:   tStart,
			End:     tEnd,
			Step:    stats.Steps,
			Wrapped: err,
		}
	}
	if stats.NextDt > 0 {
		c.lastDt = stats.NextDt
	}
	return out, nil
}

var _ dynamo.CellModel = (*Cell)(nil)
