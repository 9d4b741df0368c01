// Package themes holds the lipgloss styles shared by the TUI views.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme is the set of styles a view draws with.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusInfo    lipgloss.Style
	Primary       lipgloss.TerminalColor
}

// New builds a theme around an accent color.
func New(accent lipgloss.TerminalColor) Theme {
	dim := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	return Theme{
		Primary:       accent,
		Title:         lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Subtitle:      lipgloss.NewStyle().Foreground(dim),
		StatusError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}),
		StatusSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}),
		StatusInfo:    lipgloss.NewStyle().Italic(true).Foreground(dim),
	}
}

// Default matches the accent used by the plain CLI output.
var Default = New(lipgloss.AdaptiveColor{Light: "#4338CA", Dark: "#A5B4FC"})
