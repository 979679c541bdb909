package config

import "sort"

// stimulus settings that reliably excite each model from rest
var stimuli = map[string]ProtocolConfig{
	"fitzhugh-nagumo":    {Duration: 10, Amplitude: 1, SamplingStep: 0.5},
	"mitchell-schaeffer": {Duration: 1, Amplitude: 0.5, SamplingStep: 0.5},
	"aliev-panfilov":     {Duration: 2, Amplitude: 3, SamplingStep: 0.5},
}

var Presets = map[string]map[string]*Config{
	"fitzhugh-nagumo": {
		"1hz":  preset("fitzhugh-nagumo", 1000, 1000),
		"2hz":  preset("fitzhugh-nagumo", 500, 1000),
		"fast": preset("fitzhugh-nagumo", 250, 2000),
	},
	"mitchell-schaeffer": {
		"1hz":  preset("mitchell-schaeffer", 1000, 1000),
		"2hz":  preset("mitchell-schaeffer", 500, 1000),
		"fast": preset("mitchell-schaeffer", 330, 2000),
	},
	"aliev-panfilov": {
		"1hz":  preset("aliev-panfilov", 1000, 1000),
		"2hz":  preset("aliev-panfilov", 500, 1000),
		"fast": preset("aliev-panfilov", 400, 2000),
	},
}

func preset(model string, period float64, paces int) *Config {
	cfg := DefaultConfig()
	cfg.Model = model
	cfg.Protocol = stimuli[model]
	cfg.Protocol.Period = period
	cfg.Paces = paces
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
