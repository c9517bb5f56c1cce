package cli

import "github.com/charmbracelet/lipgloss"

var (
	// Heading above tables
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	// Secondary details such as hashes and parent branches
	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)
