package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vhci/internal/vib"
)

const (
	DefaultNStates        = 10
	DefaultMaxQuanta      = 4
	DefaultMaxTotalQuanta = 3
	DefaultEps1           = 0.1
	DefaultEps2           = 0.01
	DefaultTol            = 0.01
	DefaultMaxIter        = 1000
	DefaultDenseThreshold = 2000
	DefaultWalkers        = 200
	DefaultSamples        = 50
)

// PT2 modes.
const (
	PT2None           = "none"
	PT2Deterministic  = "deterministic"
	PT2Stochastic     = "stochastic"
	PT2SemiStochastic = "semistochastic"
	PT2Compare        = "compare"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name                string                `yaml:"name"`
	Frequencies         []float64             `yaml:"frequencies"`
	ForceConstants      []ForceConstantConfig `yaml:"force_constants"`
	ScaleForceConstants bool                  `yaml:"scale_force_constants"`
	NStates             int                   `yaml:"n_states"`
	Threads             int                   `yaml:"threads"`
	Basis               BasisConfig           `yaml:"basis"`
	HCI                 HCIConfig             `yaml:"hci"`
	PT2                 PT2Config             `yaml:"pt2"`
}

type ForceConstantConfig struct {
	Value float64 `yaml:"value"`
	Modes []int   `yaml:"modes"`
}

type BasisConfig struct {
	// MaxQuanta bounds each mode exclusively; a single entry applies to all modes.
	MaxQuanta      []int  `yaml:"max_quanta"`
	MaxTotalQuanta int    `yaml:"max_total_quanta"`
	Checkpoint     string `yaml:"checkpoint"`
}

type HCIConfig struct {
	Eps1                  float64 `yaml:"eps1"`
	Tol                   float64 `yaml:"tol"`
	MaxIter               int     `yaml:"max_iter"`
	SingleDoubleScreening bool    `yaml:"single_double_screening"`
	DenseThreshold        int     `yaml:"dense_threshold"`
	NCV                   int     `yaml:"ncv"`
	MaxQuantaCap          []int   `yaml:"max_quanta_cap"`
}

type PT2Config struct {
	Mode    string  `yaml:"mode"`
	Eps2    float64 `yaml:"eps2"`
	Eps3    float64 `yaml:"eps3"`
	Walkers int     `yaml:"walkers"`
	Samples int     `yaml:"samples"`
	Seed    uint64  `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:                "vhci",
		ScaleForceConstants: true,
		NStates:             DefaultNStates,
		Basis: BasisConfig{
			MaxQuanta:      []int{DefaultMaxQuanta},
			MaxTotalQuanta: DefaultMaxTotalQuanta,
		},
		HCI: HCIConfig{
			Eps1:                  DefaultEps1,
			Tol:                   DefaultTol,
			MaxIter:               DefaultMaxIter,
			SingleDoubleScreening: true,
			DenseThreshold:        DefaultDenseThreshold,
		},
		PT2: PT2Config{
			Mode:    PT2Deterministic,
			Eps2:    DefaultEps2,
			Eps3:    -1,
			Walkers: DefaultWalkers,
			Samples: DefaultSamples,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration before any basis or matrix is built.
func (c *Config) Validate() error {
	m := len(c.Frequencies)
	if m == 0 {
		return invalid("no frequencies")
	}
	for i, f := range c.Frequencies {
		if f <= 0 {
			return invalid("frequency %d is %g", i, f)
		}
	}
	for i, fc := range c.ForceConstants {
		if len(fc.Modes) == 0 {
			return invalid("force constant %d has no modes", i)
		}
		for _, k := range fc.Modes {
			if k < 0 || k >= m {
				return invalid("force constant %d touches mode %d of %d", i, k, m)
			}
		}
	}
	if c.NStates < 1 {
		return invalid("n_states %d", c.NStates)
	}
	if n := len(c.Basis.MaxQuanta); n != 1 && n != m {
		return invalid("%d max_quanta entries for %d modes", n, m)
	}
	for _, q := range c.Basis.MaxQuanta {
		if q < 1 {
			return invalid("max_quanta %d", q)
		}
	}
	if c.Basis.MaxTotalQuanta < 0 {
		return invalid("max_total_quanta %d", c.Basis.MaxTotalQuanta)
	}
	if n := len(c.HCI.MaxQuantaCap); n != 0 && n != 1 && n != m {
		return invalid("%d max_quanta_cap entries for %d modes", n, m)
	}
	if c.HCI.Eps1 <= 0 || c.HCI.Tol < 0 || c.HCI.MaxIter < 1 {
		return invalid("hci eps1 %g, tol %g, max_iter %d", c.HCI.Eps1, c.HCI.Tol, c.HCI.MaxIter)
	}

	switch c.PT2.Mode {
	case PT2None:
		return nil
	case PT2Deterministic, PT2Stochastic, PT2SemiStochastic, PT2Compare:
	default:
		return invalid("unknown pt2 mode %q", c.PT2.Mode)
	}
	if c.PT2.Eps2 <= 0 || c.PT2.Eps2 >= c.HCI.Eps1 {
		return invalid("pt2 eps2 %g must lie in (0, eps1 %g)", c.PT2.Eps2, c.HCI.Eps1)
	}
	if c.PT2.Mode == PT2Deterministic {
		return nil
	}
	if c.PT2.Walkers < 2 || c.PT2.Samples < 2 {
		return invalid("pt2 walkers %d, samples %d", c.PT2.Walkers, c.PT2.Samples)
	}
	if c.PT2.Mode != PT2Stochastic && (c.PT2.Eps3 <= 0 || c.PT2.Eps3 >= c.PT2.Eps2) {
		return invalid("pt2 eps3 %g must lie in (0, eps2 %g)", c.PT2.Eps3, c.PT2.Eps2)
	}
	return nil
}

func broadcast(v []int, m int) []int {
	if len(v) == 1 && m > 1 {
		out := make([]int, m)
		for i := range out {
			out[i] = v[0]
		}
		return out
	}
	return v
}

// QuantaLimits returns one exclusive quanta bound per mode.
func (c *Config) QuantaLimits() []int {
	return broadcast(c.Basis.MaxQuanta, len(c.Frequencies))
}

// QuantaCap returns the per-mode heat-bath cap, nil when unset.
func (c *Config) QuantaCap() []int {
	if len(c.HCI.MaxQuantaCap) == 0 {
		return nil
	}
	return broadcast(c.HCI.MaxQuantaCap, len(c.Frequencies))
}

// Potential builds the force-constant terms.
func (c *Config) Potential() (vib.Potential, error) {
	pot := make(vib.Potential, 0, len(c.ForceConstants))
	for i, fcc := range c.ForceConstants {
		fc, err := vib.NewForceConstant(fcc.Value, fcc.Modes, c.ScaleForceConstants)
		if err != nil {
			return nil, fmt.Errorf("force constant %d: %w", i, err)
		}
		pot = append(pot, fc)
	}
	if err := pot.Validate(len(c.Frequencies)); err != nil {
		return nil, err
	}
	return pot, nil
}

// InitialBasis enumerates the truncated starting basis.
func (c *Config) InitialBasis() (*vib.Basis, error) {
	return vib.TruncatedBasis(c.Frequencies, c.QuantaLimits(), c.Basis.MaxTotalQuanta)
}
