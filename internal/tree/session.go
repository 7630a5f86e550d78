package tree

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mattjoyce/fabctl/internal/events"
	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/log"
	"github.com/mattjoyce/fabctl/internal/settings"
)

// ErrUnknownNode is returned for a node kind the session cannot expand.
var ErrUnknownNode = fmt.Errorf("unknown tree node")

// Session owns one tree's lifetime: the children cache, the needsUpdate
// flag, and the registered per-type node providers. It replaces any global
// tree state; construct one per browsing session and drop it on teardown.
type Session struct {
	source       Source
	settings     Settings
	definitions  DefinitionSource
	hub          *events.Hub
	environments []string
	logger       *slog.Logger

	mu        sync.Mutex
	providers map[string]NodeProvider
	cache     map[string][]*Node
	// needsUpdate forces the next GetChildren to discard every cached child
	// list. Wholesale invalidation trades precision for simplicity.
	needsUpdate bool
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithDefinitionSource enables definition-file child nodes.
func WithDefinitionSource(ds DefinitionSource) SessionOption {
	return func(s *Session) { s.definitions = ds }
}

// WithHub wires invalidation events into hub.
func WithHub(hub *events.Hub) SessionOption {
	return func(s *Session) { s.hub = hub }
}

// NewSession creates a tree session over source, reading UI state from st.
// environments are the tenant roots (usually exactly one).
func NewSession(source Source, st Settings, environments []string, opts ...SessionOption) *Session {
	s := &Session{
		source:       source,
		settings:     st,
		environments: environments,
		logger:       log.WithComponent("tree"),
		providers:    make(map[string]NodeProvider),
		cache:        make(map[string][]*Node),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterProvider installs a custom node provider for an item type.
func (s *Session) RegisterProvider(itemType string, p NodeProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[itemType] = p
}

// Roots returns the environment (tenant) nodes.
func (s *Session) Roots() []*Node {
	out := make([]*Node, 0, len(s.environments))
	for _, env := range s.environments {
		out = append(out, NewEnvironmentNode(env))
	}
	return out
}

// Refresh marks every cached child list stale. The next GetChildren call on
// any node re-fetches. Fires a tree.invalidated event.
func (s *Session) Refresh() {
	s.invalidate("refresh")
}

// WorkspacesChanged signals an external change to the workspace set.
func (s *Session) WorkspacesChanged() {
	s.invalidate("workspaces")
}

// SettingsChanged signals a display-style or feature toggle change.
func (s *Session) SettingsChanged() {
	s.invalidate("settings")
}

func (s *Session) invalidate(reason string) {
	s.mu.Lock()
	s.needsUpdate = true
	s.mu.Unlock()

	s.logger.Debug("tree invalidated", "reason", reason)
	if s.hub != nil {
		s.hub.Publish(events.TypeTreeInvalidated, map[string]string{"reason": reason})
	}
}

// GetChildren returns the children of node, loading and caching them on
// first access. A pending invalidation empties the whole cache before the
// lookup. Safe for concurrent use; concurrent loads of the same node are
// tolerated, last writer wins.
func (s *Session) GetChildren(ctx context.Context, node *Node) ([]*Node, error) {
	if node.Leaf {
		return nil, nil
	}

	s.mu.Lock()
	if s.needsUpdate {
		s.cache = make(map[string][]*Node)
		s.needsUpdate = false
	}
	if cached, ok := s.cache[node.Key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	children, prefill, err := s.load(ctx, node)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for key, nodes := range prefill {
		s.cache[key] = nodes
	}
	s.cache[node.Key] = children
	s.mu.Unlock()

	return children, nil
}

// load materializes children for one node from the remote source.
func (s *Session) load(ctx context.Context, node *Node) ([]*Node, map[string][]*Node, error) {
	switch node.Kind {
	case KindEnvironment:
		children, err := s.workspaceNodes(ctx, node.Environment)
		return children, nil, err

	case KindWorkspace:
		g, err := s.groupingFor(ctx)
		if err != nil {
			return nil, nil, err
		}
		return g.workspaceChildren(ctx, s, node.Environment, node.Workspace)

	case KindFolder:
		// Folder children are prefilled when the workspace expands. Getting
		// here means the cache was invalidated mid-tree: rebuild the
		// workspace subtree and pick this folder's slice out of it.
		g, err := s.groupingFor(ctx)
		if err != nil {
			return nil, nil, err
		}
		ws := fabric.Workspace{ID: node.Folder.WorkspaceID}
		_, prefill, err := g.workspaceChildren(ctx, s, node.Environment, &ws)
		if err != nil {
			return nil, nil, err
		}
		return prefill[node.Key], prefill, nil

	case KindItemType:
		items, err := s.source.ListItems(ctx, workspaceIDFromTypeKey(node.Key), node.ItemType)
		if err != nil {
			return nil, nil, err
		}
		return s.itemNodes(node.Environment, items), nil, nil

	case KindItem:
		children, err := s.itemChildren(ctx, node)
		return children, nil, err

	case KindDefinitionFile:
		return nil, nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: kind %d", ErrUnknownNode, node.Kind)
	}
}

// workspaceNodes lists workspaces, drops hidden ones, and orders them
// personal-first then alphabetically.
func (s *Session) workspaceNodes(ctx context.Context, env string) ([]*Node, error) {
	workspaces, err := s.source.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	hidden, err := s.settings.HiddenWorkspaces(ctx)
	if err != nil {
		return nil, err
	}

	visible := workspaces[:0]
	for _, ws := range workspaces {
		if !hidden[ws.ID] {
			visible = append(visible, ws)
		}
	}
	fabric.SortWorkspaces(visible)

	out := make([]*Node, 0, len(visible))
	for _, ws := range visible {
		out = append(out, NewWorkspaceNode(env, ws))
	}
	return out, nil
}

// groupingFor picks the workspace grouping strategy from the persisted
// display style.
func (s *Session) groupingFor(ctx context.Context) (grouping, error) {
	style, err := s.settings.DisplayStyle(ctx)
	if err != nil {
		return nil, err
	}
	if style == settings.DisplayStyleList {
		return typeGrouping{}, nil
	}
	return folderGrouping{}, nil
}

// itemNodes maps items to nodes sorted alphabetically, delegating to the
// type's provider when one is registered.
func (s *Session) itemNodes(env string, items []fabric.Item) []*Node {
	sorted := make([]fabric.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].DisplayName) < strings.ToLower(sorted[j].DisplayName)
	})

	s.mu.Lock()
	providers := make(map[string]NodeProvider, len(s.providers))
	for t, p := range s.providers {
		providers[t] = p
	}
	s.mu.Unlock()

	out := make([]*Node, 0, len(sorted))
	for _, item := range sorted {
		if p, ok := providers[item.Type]; ok {
			out = append(out, p.ItemNode(env, item))
			continue
		}
		out = append(out, NewItemNode(env, item, true))
	}
	return out
}

// itemChildren expands an item node: definition-file nodes first (when the
// toggle is on and a definition source is wired), then provider children.
func (s *Session) itemChildren(ctx context.Context, node *Node) ([]*Node, error) {
	s.mu.Lock()
	provider := s.providers[node.Item.Type]
	s.mu.Unlock()

	var children []*Node

	showDefs, err := s.settings.ShowDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	if showDefs && s.definitions != nil {
		def, err := s.definitions.GetDefinition(ctx, *node.Item, "")
		if err != nil {
			return nil, fmt.Errorf("load definition for %s: %w", node.Item.ID, err)
		}
		for _, part := range def.Parts {
			children = append(children, NewDefinitionFileNode(node.Environment, *node.Item, part.Path))
		}
	}

	if provider != nil {
		extra, err := provider.Children(ctx, *node.Item)
		if err != nil {
			return nil, err
		}
		children = append(children, extra...)
	}
	return children, nil
}

// workspaceIDFromTypeKey recovers the workspace id from "ws/{id}/type/{t}".
func workspaceIDFromTypeKey(key string) string {
	parts := strings.SplitN(key, "/", 4)
	if len(parts) < 4 || parts[0] != "ws" {
		return ""
	}
	return parts[1]
}
