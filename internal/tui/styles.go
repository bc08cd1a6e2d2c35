// ABOUTME: Lipgloss styles for the chat TUI panes, badges and dialogs
// ABOUTME: Colors are ANSI 256 codes so the UI degrades on basic terminals

package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("39"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("255"))

	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	userRoleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("28")).
			Padding(0, 1)

	partnerRoleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("208")).
				Padding(0, 1)

	translationStyle = lipgloss.NewStyle().
				Italic(true).
				Foreground(lipgloss.Color("109"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	menuStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("34")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(1, 4).
			Align(lipgloss.Center)

	dialogOptionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("33")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)
)
