package browse

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattjoyce/fabctl/internal/events"
	"github.com/mattjoyce/fabctl/internal/tree"
)

// UIState is the persisted state the browser reads and writes.
// *settings.Store satisfies it.
type UIState interface {
	ExpandedNodes(ctx context.Context) (map[string]bool, error)
	SetExpanded(ctx context.Context, nodeKey string, expanded bool) error
	SetWorkspaceHidden(ctx context.Context, workspaceID string, hidden bool) error
	ShowDefinitions(ctx context.Context) (bool, error)
	SetShowDefinitions(ctx context.Context, on bool) error
}

// Model is the main BubbleTea model for the browse TUI.
type Model struct {
	session     *tree.Session
	state       UIState
	definitions tree.DefinitionSource
	hub         *events.Hub

	width  int
	height int

	// Tree state
	rows     []row
	cursor   int
	expanded map[string]bool
	loading  bool

	// Detail pane
	detail     viewport.Model
	showDetail bool

	// Communication
	hubEvents  <-chan events.Event
	cancelHub  func()
	subscribed bool

	theme     Theme
	lastError string
}

// New creates a browse model. hub may be nil; the tree then only refreshes on
// demand.
func New(session *tree.Session, state UIState, definitions tree.DefinitionSource, hub *events.Hub) *Model {
	expanded := map[string]bool{}
	if state != nil {
		if saved, err := state.ExpandedNodes(context.Background()); err == nil {
			expanded = saved
		}
	}

	m := &Model{
		session:     session,
		state:       state,
		definitions: definitions,
		hub:         hub,
		expanded:    expanded,
		detail:      viewport.New(0, 0),
		theme:       NewDefaultTheme(),
		loading:     true,
	}
	if hub != nil {
		m.hubEvents, m.cancelHub = hub.Subscribe()
		m.subscribed = true
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		rebuildRows(m.session, m.snapshotExpanded()),
		tea.EnterAltScreen,
	}
	if m.subscribed {
		cmds = append(cmds, receiveNextEvent(m.hubEvents))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = msg.Width - 6
		m.detail.Height = msg.Height - 8

	case rowsMsg:
		m.rows = msg.rows
		m.loading = false
		if m.cursor >= len(m.rows) {
			m.cursor = len(m.rows) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case detailMsg:
		m.detail.SetContent(msg.body)
		m.detail.GotoTop()
		m.showDetail = true

	case hubEventMsg:
		cmds := []tea.Cmd{receiveNextEvent(m.hubEvents)}
		if events.Event(msg).Type == events.TypeTreeInvalidated {
			m.loading = true
			cmds = append(cmds, rebuildRows(m.session, m.snapshotExpanded()))
		}
		return m, tea.Batch(cmds...)

	case errMsg:
		m.lastError = msg.Error()
		m.loading = false
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showDetail {
		switch msg.String() {
		case "q", "esc":
			m.showDetail = false
			return m, nil
		default:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c":
		if m.cancelHub != nil {
			m.cancelHub()
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "enter", " ", "right", "l":
		return m.toggleCurrent()

	case "left":
		return m.collapseCurrent()

	case "r":
		m.lastError = ""
		m.loading = true
		m.session.Refresh()
		return m, rebuildRows(m.session, m.snapshotExpanded())

	case "v":
		if node := m.currentNode(); node != nil && node.Kind == tree.KindItem && m.definitions != nil {
			return m, loadDetail(m.definitions, node)
		}

	case "x":
		return m.hideCurrentWorkspace()

	case "d":
		return m.toggleDefinitions()
	}

	return m, nil
}

func (m *Model) currentNode() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].node
}

func (m *Model) toggleCurrent() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil || node.Leaf {
		return m, nil
	}

	m.expanded[node.Key] = !m.expanded[node.Key]
	if m.state != nil {
		_ = m.state.SetExpanded(context.Background(), node.Key, m.expanded[node.Key])
	}
	m.loading = true
	return m, rebuildRows(m.session, m.snapshotExpanded())
}

func (m *Model) collapseCurrent() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil || !m.expanded[node.Key] {
		return m, nil
	}

	m.expanded[node.Key] = false
	if m.state != nil {
		_ = m.state.SetExpanded(context.Background(), node.Key, false)
	}
	m.loading = true
	return m, rebuildRows(m.session, m.snapshotExpanded())
}

func (m *Model) hideCurrentWorkspace() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil || node.Kind != tree.KindWorkspace || m.state == nil {
		return m, nil
	}

	if err := m.state.SetWorkspaceHidden(context.Background(), node.Workspace.ID, true); err != nil {
		m.lastError = err.Error()
		return m, nil
	}
	m.loading = true
	m.session.SettingsChanged()
	return m, rebuildRows(m.session, m.snapshotExpanded())
}

func (m *Model) toggleDefinitions() (tea.Model, tea.Cmd) {
	if m.state == nil {
		return m, nil
	}

	ctx := context.Background()
	on, err := m.state.ShowDefinitions(ctx)
	if err != nil {
		m.lastError = err.Error()
		return m, nil
	}
	if err := m.state.SetShowDefinitions(ctx, !on); err != nil {
		m.lastError = err.Error()
		return m, nil
	}
	m.loading = true
	m.session.SettingsChanged()
	return m, rebuildRows(m.session, m.snapshotExpanded())
}

// snapshotExpanded copies the expansion set for the background rebuild.
func (m *Model) snapshotExpanded() map[string]bool {
	out := make(map[string]bool, len(m.expanded))
	for k, v := range m.expanded {
		out[k] = v
	}
	return out
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading workspace tree..."
	}

	if m.showDetail {
		content := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("ITEM DEFINITION"),
			m.detail.View(),
			m.theme.Dim.Render(" [esc] Back • [↑/↓] Scroll"),
		)
		return lipgloss.NewStyle().Margin(1, 2).Render(
			m.theme.Border.Width(m.width - 4).Render(content),
		)
	}

	treePane := m.renderTree()

	var errBar string
	if m.lastError != "" {
		errBar = m.theme.Error.Render(" ⚠ " + m.lastError)
	}

	help := m.theme.Dim.Render(
		" [q] Quit • [enter] Expand • [r] Refresh • [v] Definition • [x] Hide workspace • [d] Toggle definitions")

	parts := []string{treePane}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
