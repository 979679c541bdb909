package integrators

import "github.com/san-kum/pacesim/internal/dynamo"

// tableau is the Butcher tableau of an explicit Runge-Kutta method. a is
// strictly lower triangular: row i weights the stages before stage i.
type tableau struct {
	a [][]float64
	b []float64
	c []float64
}

var (
	eulerTableau = tableau{
		a: [][]float64{nil},
		b: []float64{1},
		c: []float64{0},
	}

	rk4Tableau = tableau{
		a: [][]float64{nil, {0.5}, {0, 0.5}, {0, 0, 1}},
		b: []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
		c: []float64{0, 0.5, 0.5, 1},
	}
)

// explicitRK takes fixed steps of one tableau. Stage buffers are reused
// between steps, so a value must not be shared between cells.
type explicitRK struct {
	tab   tableau
	k     []dynamo.State
	stage dynamo.State
}

func (r *explicitRK) ensureScratch(n int) {
	if r.k != nil && len(r.stage) == n {
		return
	}
	r.stage = make(dynamo.State, n)
	r.k = make([]dynamo.State, len(r.tab.b))
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
}

func (r *explicitRK) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	for i, row := range r.tab.a {
		copy(r.stage, x)
		for j, aij := range row {
			if aij == 0 {
				continue
			}
			for m := 0; m < n; m++ {
				r.stage[m] += dt * aij * r.k[j][m]
			}
		}
		// Derive may hand back its own buffer
		copy(r.k[i], dyn.Derive(r.stage, u, t+r.tab.c[i]*dt))
	}

	out := x.Clone()
	for i, bi := range r.tab.b {
		for m := 0; m < n; m++ {
			out[m] += dt * bi * r.k[i][m]
		}
	}
	return out
}
