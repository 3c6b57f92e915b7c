package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/climdyn/limfit/internal/lim"
)

const (
	DefaultTau0             = 1
	DefaultCondThreshold    = 1e10
	DefaultImagTolerance    = 1e-6
	DefaultNyquistTolerance = 1e-8
	DefaultQEigenTolerance  = 1e-8
	DefaultTauDivergence    = 0.5
	DefaultMinSampleRatio   = 2.0
)

// Config is the yaml-facing analysis configuration. The Q-positivity and
// tau-divergence thresholds are deliberately configuration rather than
// constants: they are analysis-dependent and the defaults are only
// conservative placeholders.
type Config struct {
	Tau0             int     `yaml:"tau0"`
	TauMultiples     []int   `yaml:"tau_multiples"`
	CondThreshold    float64 `yaml:"cond_threshold"`
	ImagTolerance    float64 `yaml:"imag_tolerance"`
	NyquistTolerance float64 `yaml:"nyquist_tolerance"`
	QEigenTolerance  float64 `yaml:"q_eigen_tolerance"`
	TauDivergence    float64 `yaml:"tau_divergence"`
	MinSampleRatio   float64 `yaml:"min_sample_ratio"`
}

func DefaultConfig() *Config {
	return &Config{
		Tau0:             DefaultTau0,
		TauMultiples:     []int{2, 3},
		CondThreshold:    DefaultCondThreshold,
		ImagTolerance:    DefaultImagTolerance,
		NyquistTolerance: DefaultNyquistTolerance,
		QEigenTolerance:  DefaultQEigenTolerance,
		TauDivergence:    DefaultTauDivergence,
		MinSampleRatio:   DefaultMinSampleRatio,
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the yaml file at path onto cfg in place: fields the
// file omits keep their current value, so a file can refine a preset
// rather than replace it.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Tolerances converts the configuration into the core numeric knobs.
func (c *Config) Tolerances() lim.Tolerances {
	return lim.Tolerances{
		CondThreshold:    c.CondThreshold,
		ImagTolerance:    c.ImagTolerance,
		NyquistTolerance: c.NyquistTolerance,
		QEigenTolerance:  c.QEigenTolerance,
		TauDivergence:    c.TauDivergence,
		MinSampleRatio:   c.MinSampleRatio,
	}
}
