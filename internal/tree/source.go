package tree

import (
	"context"

	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/settings"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks github.com/mattjoyce/fabctl/internal/tree Source

// Source is the remote data the tree reads. *fabric.Client satisfies it.
type Source interface {
	ListWorkspaces(ctx context.Context) ([]fabric.Workspace, error)
	ListItems(ctx context.Context, workspaceID, itemType string) ([]fabric.Item, error)
	ListFolders(ctx context.Context, workspaceID string) ([]fabric.Folder, error)
}

// Settings is the persisted UI state the tree reads. *settings.Store
// satisfies it.
type Settings interface {
	DisplayStyle(ctx context.Context) (settings.DisplayStyle, error)
	HiddenWorkspaces(ctx context.Context) (map[string]bool, error)
	ShowDefinitions(ctx context.Context) (bool, error)
}

// DefinitionSource fetches item definitions for definition-file child nodes.
// *workflow.Dispatcher satisfies it.
type DefinitionSource interface {
	GetDefinition(ctx context.Context, item fabric.Item, format string) (*fabric.ItemDefinition, error)
}

// NodeProvider customizes how one item type appears in the tree. Types
// without a provider render as generic leaf nodes.
type NodeProvider interface {
	// ItemNode builds the node shown for the item.
	ItemNode(env string, item fabric.Item) *Node
	// Children returns provider-supplied child nodes. Definition-file nodes,
	// when enabled, are injected ahead of these by the session.
	Children(ctx context.Context, item fabric.Item) ([]*Node, error)
}

// staticSettings is a fixed Settings, handy for tests and one-shot CLI runs.
type staticSettings struct {
	style       settings.DisplayStyle
	hidden      map[string]bool
	definitions bool
}

// StaticSettings returns a Settings with fixed values.
func StaticSettings(style settings.DisplayStyle, hidden map[string]bool, definitions bool) Settings {
	if hidden == nil {
		hidden = map[string]bool{}
	}
	return &staticSettings{style: style, hidden: hidden, definitions: definitions}
}

func (s *staticSettings) DisplayStyle(ctx context.Context) (settings.DisplayStyle, error) {
	return s.style, nil
}

func (s *staticSettings) HiddenWorkspaces(ctx context.Context) (map[string]bool, error) {
	return s.hidden, nil
}

func (s *staticSettings) ShowDefinitions(ctx context.Context) (bool, error) {
	return s.definitions, nil
}
