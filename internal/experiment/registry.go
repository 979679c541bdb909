package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pacesim/internal/cell"
	"github.com/san-kum/pacesim/internal/dynamo"
	"github.com/san-kum/pacesim/internal/integrators"
	"github.com/san-kum/pacesim/internal/models"
)

// Model is cell kinetics with tunable parameters.
type Model interface {
	cell.Kinetics
	dynamo.Configurable
}

// Registry maps configuration names to constructors.
type Registry struct {
	models      map[string]func() Model
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() Model),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.Register("fitzhugh-nagumo", func() Model { return models.NewFitzHughNagumo() })
	r.Register("mitchell-schaeffer", func() Model { return models.NewMitchellSchaeffer() })
	r.Register("aliev-panfilov", func() Model { return models.NewAlievPanfilov() })

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// Register adds or replaces a model constructor.
func (r *Registry) Register(name string, fn func() Model) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s (have %v)", name, r.ListModels())
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (have %v)", name, r.ListIntegrators())
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
