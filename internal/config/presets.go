package config

import (
	"sort"

	"github.com/san-kum/skglass/internal/grid"
)

// Preset fixes the simulation size and grid; store and logging settings
// are left alone.
type Preset struct {
	Description string
	Spins       int
	TDim        int
	ConfNum     int
	Thermal     int
	Mu, SD      grid.Axis
}

var Presets = map[string]Preset{
	"reference": {
		Description: "full-size scan, 264 spins over the 25×21 grid",
		Spins:       DefaultSpins, TDim: DefaultTDim, ConfNum: DefaultConfNum, Thermal: DefaultThermal,
		Mu: DefaultMu, SD: DefaultSD,
	},
	"quick": {
		Description: "32 spins over the full grid, minutes instead of days",
		Spins:       32, TDim: 200, ConfNum: 4, Thermal: 100,
		Mu: DefaultMu, SD: DefaultSD,
	},
	"smoke": {
		Description: "4 spins, one cell at mu=sd=0",
		Spins:       4, TDim: 2, ConfNum: 1, Thermal: 0,
		Mu: grid.Axis{Min: 0, Max: 0, Step: 1}, SD: grid.Axis{Min: 0, Max: 0, Step: 1},
	},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's simulation fields into c.
func (p Preset) Apply(c *Config) {
	c.Spins = p.Spins
	c.TDim = p.TDim
	c.ConfNum = p.ConfNum
	c.Thermal = p.Thermal
	c.Mu = p.Mu
	c.SD = p.SD
}
