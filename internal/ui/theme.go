package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#2E8B57")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	HeaderStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(1, 0)

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#828282"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Width(12)

	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)
)
