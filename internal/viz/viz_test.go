package viz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/skglass/internal/grid"
	"github.com/san-kum/skglass/internal/scan"
	"github.com/san-kum/skglass/internal/storage"
)

// report builds a 3×2 report where done cells carry m = mu*10 + sd*100.
func report(states ...scan.CellState) (scan.Report, *grid.Grid) {
	g := grid.New(grid.Axis{Min: 0, Max: 0.2, Step: 0.1}, grid.Axis{Min: 0, Max: 0.01, Step: 0.01})
	var rep scan.Report
	for i, cell := range g.Cells() {
		mu, sd := g.Params(cell)
		cs := scan.CellStatus{Cell: cell, Mu: mu, SD: sd, State: states[i]}
		switch cs.State {
		case scan.Done:
			cs.Result = storage.Result{Mu: mu, SD: sd, M: mu*10 + sd*100}
			rep.Done++
		case scan.Claimed:
			rep.Claimed++
		default:
			rep.Pending++
		}
		rep.Cells = append(rep.Cells, cs)
	}
	return rep, g
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		filled   int
	}{
		{0, 0},
		{0.5, 10},
		{1, 20},
		{1.5, 20},
		{-1, 0},
	}
	for _, tt := range tests {
		bar := ProgressBar(tt.fraction, 20)
		assert.Equal(t, tt.filled, strings.Count(bar, "█"), "fraction %v", tt.fraction)
		assert.Equal(t, 20-tt.filled, strings.Count(bar, "░"), "fraction %v", tt.fraction)
	}
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▄█", Sparkline([]float64{0, 0.5, 1}, 10))
	assert.Equal(t, "▁▁", Sparkline([]float64{3, 3}, 10), "flat input")
	assert.Equal(t, "─────", Sparkline(nil, 5))
	assert.Len(t, []rune(Sparkline(make([]float64, 100), 10)), 10)
}

func TestProfile_AlongMu(t *testing.T) {
	rep, g := report(scan.Done, scan.Done, scan.Pending, scan.Done, scan.Done, scan.Claimed)

	xs, ys, err := Profile(rep, g, "m", AlongMu, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.2}, xs, 1e-12, "pending cell skipped")
	assert.InDeltaSlice(t, []float64{0, 2}, ys, 1e-12)

	xs, ys, err = Profile(rep, g, "m", AlongMu, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.1}, xs, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 2}, ys, 1e-12)
}

func TestProfile_AlongSD(t *testing.T) {
	rep, g := report(scan.Done, scan.Done, scan.Done, scan.Done, scan.Done, scan.Done)

	xs, ys, err := Profile(rep, g, "m", AlongSD, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.01}, xs, 1e-12)
	assert.InDeltaSlice(t, []float64{2, 3}, ys, 1e-12)
}

func TestProfile_Errors(t *testing.T) {
	rep, g := report(scan.Pending, scan.Pending, scan.Pending, scan.Pending, scan.Pending, scan.Done)

	_, _, err := Profile(rep, g, "m", AlongMu, 5)
	assert.ErrorContains(t, err, "sd index")
	_, _, err = Profile(rep, g, "m", AlongSD, -1)
	assert.ErrorContains(t, err, "mu index")
	_, _, err = Profile(rep, g, "m", "temperature", 0)
	assert.ErrorContains(t, err, "unknown axis")
	_, _, err = Profile(rep, g, "m", AlongMu, 0)
	assert.ErrorContains(t, err, "no completed cells")
	_, _, err = Profile(rep, g, "energy", AlongSD, 2)
	assert.ErrorContains(t, err, "unknown observable")
}

func TestPlotProfile(t *testing.T) {
	out := PlotProfile([]float64{0, 0.1, 0.2}, []float64{0.1, 0.5, 0.9}, "m along mu")
	assert.Contains(t, out, "m along mu")
	assert.Contains(t, out, "[0 … 0.2]")
}

func TestStateMap(t *testing.T) {
	rep, _ := report(scan.Done, scan.Claimed, scan.Pending, scan.Done, scan.Done, scan.Done)
	out := StateMap(rep, 2)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], GlyphDone)
	assert.Contains(t, lines[0], GlyphClaimed)
	assert.Contains(t, lines[1], GlyphPending)
	assert.Equal(t, 2, strings.Count(lines[2], GlyphDone))
	assert.Empty(t, StateMap(scan.Report{}, 2))
}

func TestThemes(t *testing.T) {
	defer SetTheme(ThemeCyberpunk.Name)

	assert.Equal(t, ThemeCyberpunk, GetTheme("nonexistent"))
	SetTheme("retro")
	assert.Equal(t, "retro", CurrentTheme.Name)
	NextTheme()
	assert.Equal(t, "minimal", CurrentTheme.Name)
	NextTheme()
	assert.Equal(t, "cyberpunk", CurrentTheme.Name)
}

func TestSetTheme_RecolorsStyles(t *testing.T) {
	defer SetTheme(ThemeCyberpunk.Name)

	SetTheme("retro")
	assert.Equal(t, ThemeRetroGreen.Primary, Title.GetForeground())
	assert.Equal(t, ThemeRetroGreen.Error, ErrorText.GetForeground())
	assert.Equal(t, ThemeRetroGreen.Muted, KeyHint.GetForeground())
	assert.True(t, Title.GetBold(), "recoloring keeps the other attributes")

	SetTheme("minimal")
	assert.Equal(t, ThemeMinimal.Primary, Title.GetForeground())
	assert.Equal(t, ThemeMinimal.Error, ErrorText.GetForeground())
}

func TestWatchModel(t *testing.T) {
	rep, _ := report(scan.Done, scan.Claimed, scan.Pending, scan.Pending, scan.Pending, scan.Pending)
	calls := 0
	poll := func(ctx context.Context) (scan.Report, error) {
		calls++
		return rep, nil
	}
	m := NewWatchModel(poll, 2, time.Second)

	assert.Contains(t, m.View(), "reading store")

	msg := m.Init()()
	assert.Equal(t, 1, calls)

	next, cmd := m.Update(msg)
	m = next.(WatchModel)
	assert.NotNil(t, cmd, "schedules the next poll")
	assert.Equal(t, 1, m.Report().Done)

	view := m.View()
	assert.Contains(t, view, "done")
	assert.Contains(t, view, "16.7%")
	assert.NotContains(t, view, "eta", "no rate yet")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchModel_ETA(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first, _ := report(scan.Done, scan.Pending, scan.Pending, scan.Pending, scan.Pending, scan.Pending)
	second, _ := report(scan.Done, scan.Done, scan.Done, scan.Pending, scan.Pending, scan.Pending)

	m := NewWatchModel(nil, 2, time.Second)
	next, _ := m.Update(statusMsg{rep: first, at: start})
	next, _ = next.(WatchModel).Update(statusMsg{rep: second, at: start.Add(10 * time.Second)})
	m = next.(WatchModel)

	eta, ok := m.ETA()
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, eta, "5s per cell, 3 cells left")
	assert.Contains(t, m.View(), "eta")
}

func TestWatchModel_ExitWhenDone(t *testing.T) {
	rep, _ := report(scan.Done, scan.Done, scan.Done, scan.Done, scan.Done, scan.Done)
	m := NewWatchModel(nil, 2, time.Second)
	m.ExitWhenDone = true

	_, cmd := m.Update(statusMsg{rep: rep, at: time.Now()})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchModel_PollError(t *testing.T) {
	m := NewWatchModel(nil, 2, time.Second)
	next, cmd := m.Update(statusMsg{err: errors.New("bucket gone"), at: time.Now()})
	m = next.(WatchModel)
	assert.NotNil(t, cmd, "keeps polling after an error")
	assert.Error(t, m.Err())
	assert.Contains(t, m.View(), "bucket gone")
}
