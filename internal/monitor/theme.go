package monitor

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/device-patrol/internal/model"
)

// Theme defines all colors used by the dashboard.
// Use DarkTheme() or LightTheme() to get a pre-built theme,
// or construct a custom Theme.
type Theme struct {
	Primary        lipgloss.Color // title
	Secondary      lipgloss.Color // selected row text
	Error          lipgloss.Color // probe failures
	Warning        lipgloss.Color // held by an unknown process
	Success        lipgloss.Color // free devices
	Info           lipgloss.Color // held by an ignored app
	Text           lipgloss.Color // primary text
	TextMuted      lipgloss.Color // hints, status line
	BackgroundElem lipgloss.Color // selected row background
	Border         lipgloss.Color // table header rule
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#fab283"),
		Secondary:      lipgloss.Color("#5c9cf5"),
		Error:          lipgloss.Color("#e06c75"),
		Warning:        lipgloss.Color("#f5a742"),
		Success:        lipgloss.Color("#7fd88f"),
		Info:           lipgloss.Color("#56b6c2"),
		Text:           lipgloss.Color("#eeeeee"),
		TextMuted:      lipgloss.Color("#808080"),
		BackgroundElem: lipgloss.Color("#1e1e1e"),
		Border:         lipgloss.Color("#484848"),
	}
}

// LightTheme returns a light theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#b35c00"),
		Secondary:      lipgloss.Color("#0550ae"),
		Error:          lipgloss.Color("#cf222e"),
		Warning:        lipgloss.Color("#bf8700"),
		Success:        lipgloss.Color("#116329"),
		Info:           lipgloss.Color("#0969da"),
		Text:           lipgloss.Color("#1f2328"),
		TextMuted:      lipgloss.Color("#656d76"),
		BackgroundElem: lipgloss.Color("#f6f8fa"),
		Border:         lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// styles holds all lipgloss styles derived from a Theme.
type styles struct {
	title   lipgloss.Style
	free    lipgloss.Style
	ignored lipgloss.Style
	unknown lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
	status  lipgloss.Style
	table   table.Styles
}

// newStyles builds all styles from a theme.
func newStyles(t Theme) styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(t.Text)
	ts.Cell = ts.Cell.Foreground(t.Text)
	ts.Selected = ts.Selected.Bold(true).Foreground(t.Secondary).Background(t.BackgroundElem)

	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		free:    lipgloss.NewStyle().Foreground(t.Success),
		ignored: lipgloss.NewStyle().Foreground(t.Info),
		unknown: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		err:     lipgloss.NewStyle().Foreground(t.Error),
		dim:     lipgloss.NewStyle().Foreground(t.TextMuted),
		status:  lipgloss.NewStyle().Foreground(t.TextMuted),
		table:   ts,
	}
}

// stateStyle picks the style for a usage state.
func (s styles) stateStyle(state model.State) lipgloss.Style {
	switch state {
	case model.StateNotInUse:
		return s.free
	case model.StateInUseByIgnoredApp:
		return s.ignored
	case model.StateInUseByUnknown:
		return s.unknown
	default:
		return s.err
	}
}
