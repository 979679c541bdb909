package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel      = "mitchell-schaeffer"
	DefaultIntegrator = "rk45"
	DefaultPaces      = 1000
	DefaultTolerance  = 1e-6
	DefaultBufferSize = 150
	DefaultCadence    = 20
	DefaultAPDPercent = 90.0
	DefaultDataDir    = ".pacesim"
	DefaultLogLevel   = "info"
)

// Models enumerates the cell models the registry can build.
var Models = []string{"fitzhugh-nagumo", "mitchell-schaeffer", "aliev-panfilov"}

var Integrators = []string{"euler", "rk4", "rk45"}

type Config struct {
	Model            string             `yaml:"model"`
	Integrator       string             `yaml:"integrator"`
	Protocol         ProtocolConfig     `yaml:"protocol"`
	Solver           SolverConfig       `yaml:"solver"`
	Params           map[string]float64 `yaml:"params,omitempty"`
	Paces            int                `yaml:"paces"`
	Tolerance        float64            `yaml:"tolerance"`
	BufferSize       int                `yaml:"buffer_size"`
	Cadence          int                `yaml:"cadence"`
	APDPercent       float64            `yaml:"apd_percent"`
	InitialStateFile string             `yaml:"initial_state_file,omitempty"`
	DataDir          string             `yaml:"data_dir"`
	LogLevel         string             `yaml:"log_level"`
}

type ProtocolConfig struct {
	Period       float64 `yaml:"period"`
	Duration     float64 `yaml:"duration"`
	Start        float64 `yaml:"start"`
	Amplitude    float64 `yaml:"amplitude"`
	SamplingStep float64 `yaml:"sampling_step"`
}

type SolverConfig struct {
	RelTol   float64 `yaml:"rel_tol"`
	AbsTol   float64 `yaml:"abs_tol"`
	MaxDt    float64 `yaml:"max_dt"`
	MinDt    float64 `yaml:"min_dt"`
	MaxSteps int     `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		Protocol: ProtocolConfig{
			Period:       1000,
			Duration:     1,
			Amplitude:    0.5,
			SamplingStep: 0.5,
		},
		Solver: SolverConfig{
			RelTol:   1e-6,
			AbsTol:   1e-8,
			MaxDt:    1,
			MinDt:    1e-10,
			MaxSteps: 100000,
		},
		Paces:      DefaultPaces,
		Tolerance:  DefaultTolerance,
		BufferSize: DefaultBufferSize,
		Cadence:    DefaultCadence,
		APDPercent: DefaultAPDPercent,
		DataDir:    DefaultDataDir,
		LogLevel:   DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(slices.Contains(Models, c.Model), "unknown model %q (have %v)", c.Model, Models)
	check(slices.Contains(Integrators, c.Integrator), "unknown integrator %q (have %v)", c.Integrator, Integrators)

	p := c.Protocol
	check(p.Period > 0, "protocol.period must be positive, got %g", p.Period)
	check(p.Duration >= 0, "protocol.duration must not be negative, got %g", p.Duration)
	check(p.Start >= 0, "protocol.start must not be negative, got %g", p.Start)
	check(p.Start+p.Duration <= p.Period, "stimulus [%g, %g] does not fit in period %g", p.Start, p.Start+p.Duration, p.Period)
	check(p.SamplingStep >= 0, "protocol.sampling_step must not be negative, got %g", p.SamplingStep)

	s := c.Solver
	check(s.RelTol >= 0 && s.AbsTol >= 0, "solver tolerances must not be negative")
	check(s.MaxDt > 0, "solver.max_dt must be positive, got %g", s.MaxDt)
	check(s.MinDt >= 0 && s.MinDt < s.MaxDt, "solver.min_dt must be in [0, max_dt), got %g", s.MinDt)
	check(s.MaxSteps > 0, "solver.max_steps must be positive, got %d", s.MaxSteps)

	check(c.Paces > 0, "paces must be positive, got %d", c.Paces)
	check(c.Tolerance >= 0, "tolerance must not be negative, got %g", c.Tolerance)
	check(c.BufferSize >= 3, "buffer_size must be at least 3, got %d", c.BufferSize)
	check(c.Cadence > 0, "cadence must be positive, got %d", c.Cadence)
	check(c.APDPercent > 0 && c.APDPercent <= 100, "apd_percent must be in (0, 100], got %g", c.APDPercent)

	return errors.Join(errs...)
}
