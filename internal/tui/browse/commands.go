package browse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/fabctl/internal/events"
	"github.com/mattjoyce/fabctl/internal/tree"
)

// row is one rendered line of the tree: a node at its indentation depth.
type row struct {
	node  *tree.Node
	depth int
}

type rowsMsg struct {
	rows []row
}

type detailMsg struct {
	title string
	body  string
}

type hubEventMsg events.Event

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// rebuildRows walks the expanded subset of the tree and flattens it into
// rows. Runs off the UI goroutine; expansion state is copied in by the
// caller.
func rebuildRows(session *tree.Session, expanded map[string]bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var rows []row
		var walk func(nodes []*tree.Node, depth int) error
		walk = func(nodes []*tree.Node, depth int) error {
			for _, n := range nodes {
				rows = append(rows, row{node: n, depth: depth})
				if n.Leaf || !expanded[n.Key] {
					continue
				}
				children, err := session.GetChildren(ctx, n)
				if err != nil {
					return fmt.Errorf("expand %s: %w", n.Label, err)
				}
				if err := walk(children, depth+1); err != nil {
					return err
				}
			}
			return nil
		}

		if err := walk(session.Roots(), 0); err != nil {
			return errMsg{err}
		}
		return rowsMsg{rows: rows}
	}
}

// loadDetail fetches an item's definition and renders a part summary for the
// detail pane.
func loadDetail(definitions tree.DefinitionSource, node *tree.Node) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		def, err := definitions.GetDefinition(ctx, *node.Item, "")
		if err != nil {
			return errMsg{fmt.Errorf("load definition for %s: %w", node.Label, err)}
		}

		paths := make([]string, 0, len(def.Parts))
		for _, part := range def.Parts {
			paths = append(paths, part.Path)
		}
		sort.Strings(paths)

		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s)\n", node.Item.DisplayName, node.Item.Type)
		fmt.Fprintf(&b, "workspace: %s\n", node.Item.WorkspaceID)
		if def.Format != "" {
			fmt.Fprintf(&b, "format: %s\n", def.Format)
		}
		fmt.Fprintf(&b, "\n%d definition parts:\n", len(paths))
		for _, p := range paths {
			fmt.Fprintf(&b, "  %s\n", p)
		}

		return detailMsg{title: node.Item.DisplayName, body: b.String()}
	}
}

// receiveNextEvent delivers one hub event to the Update loop; re-issued after
// each delivery, same pattern as a self-rescheduling tick.
func receiveNextEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return hubEventMsg(ev)
	}
}
