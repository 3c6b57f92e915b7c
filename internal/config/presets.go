package config

import "sort"

// Presets for common judgment calls on the advisory thresholds. "strict"
// tightens everything for screening, "lenient" loosens the advisory
// bounds for exploratory fits on short records.
var presets = map[string]func() *Config{
	"default": DefaultConfig,
	"strict": func() *Config {
		cfg := DefaultConfig()
		cfg.TauMultiples = []int{2, 3, 4}
		cfg.CondThreshold = 1e8
		cfg.QEigenTolerance = 1e-10
		cfg.TauDivergence = 0.25
		cfg.MinSampleRatio = 10
		return cfg
	},
	"lenient": func() *Config {
		cfg := DefaultConfig()
		cfg.TauMultiples = []int{2}
		cfg.QEigenTolerance = 1e-6
		cfg.TauDivergence = 1.0
		cfg.MinSampleRatio = 1.5
		return cfg
	},
}

// GetPreset returns a named preset, or nil if unknown.
func GetPreset(name string) *Config {
	mk, ok := presets[name]
	if !ok {
		return nil
	}
	return mk()
}

// ListPresets lists preset names in stable order.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
