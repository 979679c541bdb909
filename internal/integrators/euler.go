package integrators

// Euler is the forward Euler method. It is only stable for steps well below
// the fastest time constant of a model, so cells using it need a small MaxDt.
type Euler struct {
	explicitRK
}

func NewEuler() *Euler {
	return &Euler{explicitRK{tab: eulerTableau}}
}
