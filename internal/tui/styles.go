package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	suspiciousStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	normalStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	pausedStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	loadingStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))

	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39"))
)
