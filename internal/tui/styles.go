package tui

import "github.com/charmbracelet/lipgloss"

// Shared palette for both views. Warm gold for chrome, green for the ready
// state, red for failures.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("179"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("137"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("167"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("179"))
	listItemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)
