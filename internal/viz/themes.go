package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used for cell states and chrome.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Done    lipgloss.Color
	Claimed lipgloss.Color
	Pending lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#00ffff"),
		Muted:   lipgloss.Color("#666688"),
		Done:    lipgloss.Color("#00ff88"),
		Claimed: lipgloss.Color("#ffcc00"),
		Pending: lipgloss.Color("#444466"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Done:    lipgloss.Color("#88ff88"),
		Claimed: lipgloss.Color("#ffff00"),
		Pending: lipgloss.Color("#003300"),
		Error:   lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Done:    lipgloss.Color("#cccccc"),
		Claimed: lipgloss.Color("#0088ff"),
		Pending: lipgloss.Color("#444444"),
		Error:   lipgloss.Color("#ff0000"),
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{ThemeCyberpunk, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// SetTheme makes name the current theme and recolors the shared styles.
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
	Title = Title.Foreground(CurrentTheme.Primary)
	ErrorText = ErrorText.Foreground(CurrentTheme.Error)
	Subtle = Subtle.Foreground(CurrentTheme.Muted)
	KeyHint = KeyHint.Foreground(CurrentTheme.Muted)
	GlassPanel = GlassPanel.BorderForeground(CurrentTheme.Pending)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
