package config

import "sort"

// Presets are built-in model systems, in cm^-1.
var Presets = map[string]func() *Config{
	"harmonic": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "harmonic"
		cfg.Frequencies = []float64{1000, 2000}
		cfg.NStates = 4
		cfg.Basis.MaxQuanta = []int{3}
		cfg.Basis.MaxTotalQuanta = 4
		cfg.PT2.Mode = PT2None
		return cfg
	},
	"fermi": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "fermi"
		cfg.Frequencies = []float64{1000, 2010}
		cfg.ForceConstants = []ForceConstantConfig{
			{Value: 140, Modes: []int{0, 0, 1}},
			{Value: -20, Modes: []int{0, 0, 0, 0}},
		}
		cfg.NStates = 5
		cfg.Basis.MaxQuanta = []int{4}
		cfg.Basis.MaxTotalQuanta = 3
		cfg.HCI.Eps1 = 0.5
		cfg.PT2.Eps2 = 0.05
		return cfg
	},
	"triatomic": func() *Config {
		cfg := DefaultConfig()
		cfg.Name = "triatomic"
		cfg.Frequencies = []float64{1600, 3700, 3800}
		cfg.ForceConstants = []ForceConstantConfig{
			{Value: -150, Modes: []int{0, 0, 0}},
			{Value: 120, Modes: []int{0, 1, 1}},
			{Value: -80, Modes: []int{0, 2, 2}},
			{Value: 45, Modes: []int{0, 0, 1, 1}},
			{Value: 30, Modes: []int{1, 1, 1, 1}},
			{Value: 25, Modes: []int{1, 1, 2, 2}},
			{Value: 12, Modes: []int{0, 0, 0, 0}},
		}
		cfg.NStates = 6
		cfg.Basis.MaxQuanta = []int{4, 3, 3}
		cfg.Basis.MaxTotalQuanta = 3
		cfg.HCI.Eps1 = 1
		cfg.PT2.Mode = PT2SemiStochastic
		cfg.PT2.Eps2 = 0.1
		cfg.PT2.Eps3 = 0.01
		cfg.PT2.Walkers = 100
		cfg.PT2.Samples = 20
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, nil if unknown.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
