// Package grid builds the (mu, sd) parameter grid and names its cells.
package grid

import (
	"fmt"
	"math"
)

// Build returns round((max-min)/step)+1 values v[i] = min + i*step.
// It assumes max >= min and step > 0.
func Build(min, max, step float64) []float64 {
	size := int(math.Round((max-min)/step)) + 1
	values := make([]float64, size)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	return values
}

// Axis is a (min, max, step) triple.
type Axis struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

func (a Axis) Values() []float64 { return Build(a.Min, a.Max, a.Step) }

func (a Axis) Size() int { return int(math.Round((a.Max-a.Min)/a.Step)) + 1 }

func (a Axis) Validate(name string) error {
	if a.Step <= 0 || math.IsNaN(a.Step) {
		return fmt.Errorf("%s step must be positive, got %g", name, a.Step)
	}
	if a.Max < a.Min {
		return fmt.Errorf("%s max (%g) must not be below min (%g)", name, a.Max, a.Min)
	}
	return nil
}

// Cell addresses one grid point by its mu and sd indices.
type Cell struct {
	MuIndex int
	SDIndex int
}

// Key is the result-store entry name of the cell.
func (c Cell) Key() string {
	return fmt.Sprintf("file_%d_%d", c.MuIndex, c.SDIndex)
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.MuIndex, c.SDIndex)
}

// ParseKey is the inverse of Cell.Key.
func ParseKey(key string) (Cell, error) {
	var c Cell
	if _, err := fmt.Sscanf(key, "file_%d_%d", &c.MuIndex, &c.SDIndex); err != nil {
		return Cell{}, fmt.Errorf("grid: malformed cell key %q: %w", key, err)
	}
	if c.Key() != key {
		return Cell{}, fmt.Errorf("grid: malformed cell key %q", key)
	}
	return c, nil
}

// Grid holds the immutable mu and sd sequences of a run.
type Grid struct {
	Mu []float64
	SD []float64
}

func New(mu, sd Axis) *Grid {
	return &Grid{Mu: mu.Values(), SD: sd.Values()}
}

func (g *Grid) Len() int { return len(g.Mu) * len(g.SD) }

// Contains reports whether c indexes a point of the grid.
func (g *Grid) Contains(c Cell) bool {
	return c.MuIndex >= 0 && c.MuIndex < len(g.Mu) && c.SDIndex >= 0 && c.SDIndex < len(g.SD)
}

// Params returns the (mu, sd) pair of c.
func (g *Grid) Params(c Cell) (mu, sd float64) {
	return g.Mu[c.MuIndex], g.SD[c.SDIndex]
}

// Cells lists every cell in scan order: mu index outer, sd index inner,
// both ascending.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, g.Len())
	for a := range g.Mu {
		for b := range g.SD {
			cells = append(cells, Cell{MuIndex: a, SDIndex: b})
		}
	}
	return cells
}
