package integrators

// RK4 is the classical fourth-order Runge-Kutta method with fixed steps.
type RK4 struct {
	explicitRK
}

func NewRK4() *RK4 {
	return &RK4{explicitRK{tab: rk4Tableau}}
}
