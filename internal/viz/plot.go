package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/scan"
)

// Axis names accepted by Profile.
const (
	AlongMu = "mu"
	AlongSD = "sd"
)

// Profile extracts one observable along an axis with the other axis index
// fixed. Cells that are not done are left out, so xs may have gaps.
func Profile(rep scan.Report, g *grid.Grid, observable, along string, fixed int) (xs, ys []float64, err error) {
	var cells []grid.Cell
	switch along {
	case AlongMu:
		if fixed < 0 || fixed >= len(g.SD) {
			return nil, nil, fmt.Errorf("sd index %d out of range [0, %d)", fixed, len(g.SD))
		}
		for a := range g.Mu {
			cells = append(cells, grid.Cell{MuIndex: a, SDIndex: fixed})
		}
	case AlongSD:
		if fixed < 0 || fixed >= len(g.Mu) {
			return nil, nil, fmt.Errorf("mu index %d out of range [0, %d)", fixed, len(g.Mu))
		}
		for b := range g.SD {
			cells = append(cells, grid.Cell{MuIndex: fixed, SDIndex: b})
		}
	default:
		return nil, nil, fmt.Errorf("unknown axis %q (want %s or %s)", along, AlongMu, AlongSD)
	}

	for _, c := range cells {
		cs := rep.Cells[c.MuIndex*len(g.SD)+c.SDIndex]
		if cs.State != scan.Done {
			continue
		}
		v, err := cs.Result.Observable(observable)
		if err != nil {
			return nil, nil, err
		}
		if along == AlongMu {
			xs = append(xs, cs.Mu)
		} else {
			xs = append(xs, cs.SD)
		}
		ys = append(ys, v)
	}
	if len(ys) == 0 {
		return nil, nil, fmt.Errorf("no completed cells along %s", along)
	}
	return xs, ys, nil
}

// PlotProfile draws ys with asciigraph; xs only labels the caption.
func PlotProfile(xs, ys []float64, caption string) string {
	if len(ys) == 1 {
		ys = []float64{ys[0], ys[0]}
	}
	if len(xs) > 0 {
		caption = fmt.Sprintf("%s  [%g … %g]", caption, xs[0], xs[len(xs)-1])
	}
	return asciigraph.Plot(ys,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(caption),
	)
}

// Glyphs for StateMap.
const (
	GlyphDone    = "█"
	GlyphClaimed = "▒"
	GlyphPending = "·"
)

// StateMap draws the grid with one row per mu value and one glyph per sd
// value, coloured by the current theme.
func StateMap(rep scan.Report, sdLen int) string {
	if sdLen <= 0 || len(rep.Cells) == 0 {
		return ""
	}
	done := lipgloss.NewStyle().Foreground(CurrentTheme.Done)
	claimed := lipgloss.NewStyle().Foreground(CurrentTheme.Claimed)
	pending := lipgloss.NewStyle().Foreground(CurrentTheme.Pending)
	label := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)

	var b strings.Builder
	for row := 0; row*sdLen < len(rep.Cells); row++ {
		cells := rep.Cells[row*sdLen : min((row+1)*sdLen, len(rep.Cells))]
		b.WriteString(label.Render(fmt.Sprintf("%9.5f ", cells[0].Mu)))
		for _, cs := range cells {
			switch cs.State {
			case scan.Done:
				b.WriteString(done.Render(GlyphDone))
			case scan.Claimed:
				b.WriteString(claimed.Render(GlyphClaimed))
			default:
				b.WriteString(pending.Render(GlyphPending))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
