package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/pacesim/internal/dynamo"
)

type simpleDynamics struct{}

func (s *simpleDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *simpleDynamics) StateDim() int   { return 2 }
func (s *simpleDynamics) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &simpleDynamics{}
	integ := NewRK4()

	x0 := dynamo.State{1.0, 0.0}
	u := dynamo.Control{}
	dt := 0.01
	steps := 100

	x := x0
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, u, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	dyn := &simpleDynamics{}
	x := NewEuler().Step(dyn, dynamo.State{1, 0}, nil, 0, 0.1)
	if x[0] != 1 || math.Abs(x[1]+0.1) > 1e-15 {
		t.Errorf("Euler step = %v, want [1 -0.1]", x)
	}
}

func TestExplicitOrder(t *testing.T) {
	errAt := func(integ dynamo.Integrator, dt float64) float64 {
		dyn := &simpleDynamics{}
		x := dynamo.State{1, 0}
		steps := int(math.Round(1 / dt))
		for i := 0; i < steps; i++ {
			x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		}
		return math.Hypot(x[0]-math.Cos(1), x[1]+math.Sin(1))
	}

	tests := []struct {
		name  string
		integ dynamo.Integrator
		order float64
	}{
		{"euler", NewEuler(), 1},
		{"rk4", NewRK4(), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio := errAt(tt.integ, 0.02) / errAt(tt.integ, 0.01)
			got := math.Log2(ratio)
			if math.Abs(got-tt.order) > 0.2 {
				t.Errorf("observed order %.2f, want %.0f", got, tt.order)
			}
		})
	}
}
