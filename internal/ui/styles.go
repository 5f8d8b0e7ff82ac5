package ui

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent    = "#2BB673"
	colorHighlight = "#7FD8A6"
	colorText      = "#FFFFFF"
	colorMuted     = "#6B7280"
	colorError     = "#FF4757"
	colorWarning   = "#F5B041"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent)).
			MarginTop(1)

	LinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorHighlight)).
			Underline(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorText))

	CheckedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorHighlight)).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorHighlight)).
			Bold(true)

	// DetectedStyle marks unchecked columns that have missing values.
	DetectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning))

	// PrunedStyle lists sheets left out of the output.
	PrunedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			Strikethrough(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning)).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorAccent)).
			Padding(1, 2)
)
