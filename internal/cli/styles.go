// Package cli renders sift's non-interactive terminal output.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	accent = lipgloss.AdaptiveColor{Light: "#4338CA", Dark: "#A5B4FC"}
	green  = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	amber  = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	red    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

var (
	// SuccessStyle colors completed actions.
	SuccessStyle = lipgloss.NewStyle().Foreground(green)
	// WarningStyle colors recoverable problems.
	WarningStyle = lipgloss.NewStyle().Foreground(amber)
	// ErrorStyle colors failures.
	ErrorStyle = lipgloss.NewStyle().Foreground(red)
	// InfoStyle colors neutral notices.
	InfoStyle = lipgloss.NewStyle().Foreground(accent)
	// SubtleStyle dims secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(muted)

	// TableHeaderStyle and TableCellStyle are applied by RenderTable.
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)

	promptStyle = lipgloss.NewStyle().Bold(true)
	boxTitle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 2)
)

// Message prefixes.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "•"
	RobotIcon   = "🤖"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning prefixes message with a bang.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo prefixes message with a bullet.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatPrompt renders a question awaiting input on the same line.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt) + " "
}

// RenderBox frames content under a bold title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle.Render(title), "", content))
}

// ColorSwatch renders a small block in a category's hex color.
func ColorSwatch(hex string) string {
	if hex == "" {
		return " "
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("■")
}
