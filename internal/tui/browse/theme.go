// Package browse implements the interactive workspace tree TUI: lazy
// expansion over a tree.Session, a definition detail pane, and live refresh
// from the event hub.
package browse

import "github.com/charmbracelet/lipgloss"

// Theme centralizes all styling for the browse TUI. A single default theme
// for now; keeping every color here makes alternatives cheap.
type Theme struct {
	Workspace  lipgloss.Style
	Folder     lipgloss.Style
	ItemType   lipgloss.Style
	Item       lipgloss.Style
	Definition lipgloss.Style

	Cursor    lipgloss.Style
	Border    lipgloss.Style
	Title     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Workspace:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")),
		Folder:     lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		ItemType:   lipgloss.NewStyle().Foreground(lipgloss.Color("#C678DD")),
		Item:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		Definition: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),

		Cursor: lipgloss.NewStyle().Bold(true).Background(purple).Foreground(lipgloss.Color("#FAFAFA")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	}
}
