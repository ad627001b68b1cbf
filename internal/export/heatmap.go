// Package export writes scan results to files: heat maps through
// gonum/plot and CSV tables.
package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/scan"
)

// observableGrid adapts a report to plotter.GridXYZ with mu on the x axis
// and sd on the y axis. Cells that are not done are NaN.
type observableGrid struct {
	g        *grid.Grid
	z        []float64 // mu-major, like Report.Cells
	min, max float64
}

func newObservableGrid(rep scan.Report, g *grid.Grid, observable string) (*observableGrid, error) {
	if len(rep.Cells) != g.Len() {
		return nil, fmt.Errorf("report has %d cells, grid has %d", len(rep.Cells), g.Len())
	}
	og := &observableGrid{g: g, z: make([]float64, len(rep.Cells)), min: math.Inf(1), max: math.Inf(-1)}
	for i, cs := range rep.Cells {
		if cs.State != scan.Done {
			og.z[i] = math.NaN()
			continue
		}
		v, err := cs.Result.Observable(observable)
		if err != nil {
			return nil, err
		}
		og.z[i] = v
		og.min = math.Min(og.min, v)
		og.max = math.Max(og.max, v)
	}
	if math.IsInf(og.min, 1) {
		return nil, fmt.Errorf("no completed cells to plot")
	}
	if og.min == og.max {
		og.min -= 0.5
		og.max += 0.5
	}
	return og, nil
}

func (o *observableGrid) Dims() (c, r int) { return len(o.g.Mu), len(o.g.SD) }

func (o *observableGrid) Z(c, r int) float64 { return o.z[c*len(o.g.SD)+r] }

func (o *observableGrid) X(c int) float64 { return o.g.Mu[c] }

func (o *observableGrid) Y(r int) float64 { return o.g.SD[r] }

func (o *observableGrid) Min() float64 { return o.min }

func (o *observableGrid) Max() float64 { return o.max }

// Heatmap plots one observable over the (mu, sd) grid.
func Heatmap(rep scan.Report, g *grid.Grid, observable string) (*plot.Plot, error) {
	og, err := newObservableGrid(rep, g, observable)
	if err != nil {
		return nil, err
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(og.min)
	cm.SetMax(og.max)

	hm := plotter.NewHeatMap(og, cm.Palette(255))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  [%.4g, %.4g]", observable, og.min, og.max)
	p.X.Label.Text = "mu"
	p.Y.Label.Text = "sd"
	p.Add(hm)
	return p, nil
}

// SaveHeatmap renders p to path; the extension picks the format
// (png, svg, pdf, ...).
func SaveHeatmap(p *plot.Plot, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return fmt.Errorf("output %q needs an extension such as .png or .svg", path)
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}
