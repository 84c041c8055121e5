package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name       string
	Primary    lipgloss.Color // trail
	Secondary  lipgloss.Color // circles
	Accent     lipgloss.Color // pen tip
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Grid       lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:       "cyberpunk",
		Primary:    lipgloss.Color("#ff00ff"),
		Secondary:  lipgloss.Color("#00ffff"),
		Accent:     lipgloss.Color("#ffff00"),
		Background: lipgloss.Color("#0a0a0a"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#666666"),
		Grid:       lipgloss.Color("#262626"),
		Success:    lipgloss.Color("#00ff00"),
		Warning:    lipgloss.Color("#ff8800"),
		Error:      lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Primary:    lipgloss.Color("#00ff00"),
		Secondary:  lipgloss.Color("#00aa00"),
		Accent:     lipgloss.Color("#ccffcc"),
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#005500"),
		Grid:       lipgloss.Color("#003300"),
		Success:    lipgloss.Color("#88ff88"),
		Warning:    lipgloss.Color("#ffff00"),
		Error:      lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Primary:    lipgloss.Color("#ffffff"),
		Secondary:  lipgloss.Color("#777777"),
		Accent:     lipgloss.Color("#0088ff"),
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#888888"),
		Grid:       lipgloss.Color("#303030"),
		Success:    lipgloss.Color("#00ff00"),
		Warning:    lipgloss.Color("#ffaa00"),
		Error:      lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Primary:    lipgloss.Color("#00a8cc"),
		Secondary:  lipgloss.Color("#0077be"),
		Accent:     lipgloss.Color("#ffd700"),
		Background: lipgloss.Color("#001a33"),
		Text:       lipgloss.Color("#e0f0ff"),
		Muted:      lipgloss.Color("#4488aa"),
		Grid:       lipgloss.Color("#0d2b45"),
		Success:    lipgloss.Color("#00ff88"),
		Warning:    lipgloss.Color("#ffcc00"),
		Error:      lipgloss.Color("#ff4444"),
	}

	ThemeSunset = Theme{
		Name:       "sunset",
		Primary:    lipgloss.Color("#ff6b6b"),
		Secondary:  lipgloss.Color("#feca57"),
		Accent:     lipgloss.Color("#ff9ff3"),
		Background: lipgloss.Color("#2d1b2e"),
		Text:       lipgloss.Color("#fff5f5"),
		Muted:      lipgloss.Color("#8b6b8c"),
		Grid:       lipgloss.Color("#3f2a40"),
		Success:    lipgloss.Color("#5fd068"),
		Warning:    lipgloss.Color("#ffc048"),
		Error:      lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to cyberpunk.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// Next returns the theme after t in Themes, wrapping around.
func (t Theme) Next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Inks maps each canvas ink to a style of this theme.
func (t Theme) Inks() [inkCount]lipgloss.Style {
	var s [inkCount]lipgloss.Style
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	s[InkNone] = lipgloss.NewStyle()
	s[InkGrid] = fg(t.Grid)
	s[InkAxis] = fg(t.Muted)
	s[InkStroke] = fg(t.Muted)
	s[InkCircle] = fg(t.Secondary).Faint(true)
	s[InkRadius] = fg(t.Secondary)
	s[InkTrail] = fg(t.Primary)
	s[InkTip] = fg(t.Accent).Bold(true)
	return s
}
