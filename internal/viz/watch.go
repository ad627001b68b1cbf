package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/skglass/internal/scan"
)

// PollFunc fetches a fresh status report.
type PollFunc func(ctx context.Context) (scan.Report, error)

type statusMsg struct {
	rep scan.Report
	err error
	at  time.Time
}

type tickMsg time.Time

// WatchModel is a Bubble Tea model that polls the store on an interval.
type WatchModel struct {
	poll     PollFunc
	interval time.Duration
	sdLen    int

	rep     scan.Report
	err     error
	polled  bool
	started time.Time
	base    int // done count at the first poll
	updated time.Time
	width   int

	// ExitWhenDone quits once every cell is done.
	ExitWhenDone bool
}

func NewWatchModel(poll PollFunc, sdLen int, interval time.Duration) WatchModel {
	return WatchModel{poll: poll, sdLen: sdLen, interval: interval, width: 60}
}

func (m WatchModel) Report() scan.Report { return m.rep }

func (m WatchModel) Err() error { return m.err }

func (m WatchModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rep, err := m.poll(ctx)
	return statusMsg{rep: rep, err: err, at: time.Now()}
}

func (m WatchModel) Init() tea.Cmd {
	return m.fetch
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch
		case "t":
			NextTheme()
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-8, 10)
	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			if !m.polled {
				m.polled = true
				m.started = msg.at
				m.base = msg.rep.Done
			}
			m.rep = msg.rep
			m.updated = msg.at
			if m.ExitWhenDone && m.rep.Total() > 0 && m.rep.Done == m.rep.Total() {
				return m, tea.Quit
			}
		}
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
	case tickMsg:
		return m, m.fetch
	}
	return m, nil
}

// ETA extrapolates from cells completed since the first poll. It returns
// false until at least one cell has completed while watching.
func (m WatchModel) ETA() (time.Duration, bool) {
	gained := m.rep.Done - m.base
	elapsed := m.updated.Sub(m.started)
	if gained <= 0 || elapsed <= 0 {
		return 0, false
	}
	remaining := m.rep.Total() - m.rep.Done
	perCell := elapsed / time.Duration(gained)
	return perCell * time.Duration(remaining), true
}

func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(Title.Render("skglass scan") + "\n\n")

	if !m.polled && m.err == nil {
		b.WriteString(Subtle.Render("reading store…") + "\n")
		return GlassPanel.Render(b.String())
	}

	barWidth := min(m.width, 60)
	b.WriteString(ProgressBar(m.rep.Fraction(), barWidth))
	b.WriteString(fmt.Sprintf(" %5.1f%%\n\n", 100*m.rep.Fraction()))

	row := func(label string, v int) {
		b.WriteString(MetricLabel.Render(label) + MetricValue.Render(fmt.Sprintf("%d", v)) + "\n")
	}
	row("done", m.rep.Done)
	row("claimed", m.rep.Claimed)
	row("pending", m.rep.Pending)
	if m.rep.Foreign > 0 {
		row("foreign", m.rep.Foreign)
	}
	if eta, ok := m.ETA(); ok {
		b.WriteString(MetricLabel.Render("eta") + MetricValue.Render(eta.Round(time.Second).String()) + "\n")
	}

	b.WriteString("\n" + StateMap(m.rep, m.sdLen))

	if m.err != nil {
		b.WriteString("\n" + ErrorText.Render("poll failed: "+m.err.Error()) + "\n")
	}
	if !m.updated.IsZero() {
		b.WriteString("\n" + Subtle.Render("updated "+m.updated.Format(time.TimeOnly)) + "\n")
	}
	b.WriteString(Separator(barWidth) + "\n")
	b.WriteString(KeyHint.Render("q quit · r refresh · t theme"))
	return GlassPanel.Render(b.String())
}
