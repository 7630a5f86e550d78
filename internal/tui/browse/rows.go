package browse

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/fabctl/internal/tree"
)

// visibleWindow returns the slice of rows that fits the pane, keeping the
// cursor in view.
func (m *Model) visibleWindow() (rows []row, offset int) {
	capacity := m.height - 7
	if capacity < 3 {
		capacity = 3
	}
	if len(m.rows) <= capacity {
		return m.rows, 0
	}

	offset = m.cursor - capacity/2
	if offset < 0 {
		offset = 0
	}
	if offset+capacity > len(m.rows) {
		offset = len(m.rows) - capacity
	}
	return m.rows[offset : offset+capacity], offset
}

func (m *Model) renderTree() string {
	title := "WORKSPACES"
	if m.loading {
		title += " (loading...)"
	}

	if len(m.rows) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render(title),
			m.theme.Dim.Render("  No workspaces."),
		)
		return m.theme.Border.Width(m.width - 4).Render(content)
	}

	window, offset := m.visibleWindow()

	lines := make([]string, 0, len(window))
	for i, r := range window {
		lines = append(lines, m.renderRow(r, offset+i == m.cursor))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render(title),
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n")),
	)
	return m.theme.Border.Width(m.width - 4).Render(content)
}

func (m *Model) renderRow(r row, selected bool) string {
	indent := strings.Repeat("  ", r.depth)

	marker := "  "
	if !r.node.Leaf {
		if m.expanded[r.node.Key] {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}

	var style lipgloss.Style
	var suffix string
	switch r.node.Kind {
	case tree.KindEnvironment:
		style = m.theme.Highlight
	case tree.KindWorkspace:
		style = m.theme.Workspace
	case tree.KindFolder:
		style = m.theme.Folder
	case tree.KindItemType:
		style = m.theme.ItemType
	case tree.KindItem:
		style = m.theme.Item
		if r.node.Item != nil {
			suffix = m.theme.Dim.Render(" · " + r.node.Item.Type)
		}
	case tree.KindDefinitionFile:
		style = m.theme.Definition
	default:
		style = m.theme.Item
	}

	line := indent + marker + style.Render(r.node.Label) + suffix
	if selected {
		return m.theme.Cursor.Render("▌") + line
	}
	return " " + line
}
