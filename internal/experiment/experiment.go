// Package experiment turns a configuration into a paced cell and converts
// pacing results into stored runs.
package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pacesim/internal/cell"
	"github.com/san-kum/pacesim/internal/config"
	"github.com/san-kum/pacesim/internal/integrators"
	"github.com/san-kum/pacesim/internal/pacing"
	"github.com/san-kum/pacesim/internal/storage"
)

// Experiment is a configured cell and the driver pacing it.
type Experiment struct {
	cfg    config.Config
	model  Model
	cell   *cell.Cell
	driver *pacing.Driver
}

// New validates cfg and builds the cell and driver it describes. Parameter
// overrides are applied in name order; an unknown parameter fails the build.
// When cfg.InitialStateFile is set the cell starts from that state instead of
// the model's resting state.
func New(cfg *config.Config, reg *Registry, opts ...pacing.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	model, err := reg.GetModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cfg.Params))
	for name := range cfg.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := model.SetParam(name, cfg.Params[name]); err != nil {
			return nil, err
		}
	}

	integ, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	c := cell.New(model, integ, SolverOptions(cfg.Solver))
	if cfg.InitialStateFile != "" {
		x0, err := storage.LoadState(cfg.InitialStateFile, c.StateNames())
		if err != nil {
			return nil, err
		}
		if err := c.SetState(x0); err != nil {
			return nil, fmt.Errorf("initial state: %w", err)
		}
	}

	driver, err := pacing.NewDriver(c, ProtocolFrom(cfg.Protocol), opts...)
	if err != nil {
		return nil, err
	}

	return &Experiment{cfg: *cfg, model: model, cell: c, driver: driver}, nil
}

func SolverOptions(s config.SolverConfig) integrators.Options {
	return integrators.Options{
		RelTol:   s.RelTol,
		AbsTol:   s.AbsTol,
		MaxDt:    s.MaxDt,
		MinDt:    s.MinDt,
		MaxSteps: s.MaxSteps,
	}
}

func ProtocolFrom(p config.ProtocolConfig) pacing.Protocol {
	return pacing.Protocol{
		Period:       p.Period,
		Duration:     p.Duration,
		Start:        p.Start,
		Amplitude:    p.Amplitude,
		SamplingStep: p.SamplingStep,
	}
}

func (e *Experiment) Config() config.Config  { return e.cfg }
func (e *Experiment) Cell() *cell.Cell       { return e.cell }
func (e *Experiment) Driver() *pacing.Driver { return e.driver }

// Params returns the model parameters in effect.
func (e *Experiment) Params() map[string]float64 { return e.model.GetParams() }

// AnalysisConfig returns the classifier loop settings from the configuration.
func (e *Experiment) AnalysisConfig(strict bool) pacing.AnalysisConfig {
	return pacing.AnalysisConfig{
		Paces:      e.cfg.Paces,
		BufferSize: e.cfg.BufferSize,
		Cadence:    e.cfg.Cadence,
		Tolerance:  e.cfg.Tolerance,
		Strict:     strict,
	}
}

// Job returns a steady-state ensemble job for this experiment.
func (e *Experiment) Job() pacing.Job {
	return pacing.Job{
		Name:      e.cfg.Model,
		Driver:    e.driver,
		Paces:     e.cfg.Paces,
		Tolerance: e.cfg.Tolerance,
	}
}

func (e *Experiment) metadata(kind string) storage.RunMetadata {
	p := e.driver.Protocol()
	return storage.RunMetadata{
		Kind:       kind,
		Model:      e.cfg.Model,
		Integrator: e.cfg.Integrator,
		Protocol: storage.ProtocolInfo{
			Period:       p.Period,
			Duration:     p.Duration,
			Start:        p.Start,
			Amplitude:    p.Amplitude,
			SamplingStep: p.SamplingStep,
		},
		Params:     e.Params(),
		Tolerance:  e.cfg.Tolerance,
		StateNames: e.cell.StateNames(),
		Metrics:    make(map[string]float64),
	}
}
