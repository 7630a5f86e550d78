package tree

import (
	"context"
	"sort"
	"strings"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

// grouping decides what a workspace node expands into. Selected per display
// style at load time and injected into the session, so there is one node
// type with swappable behavior instead of a subclass per view.
type grouping interface {
	// workspaceChildren returns the direct children of ws plus a prefill map
	// of descendant node keys to their children, letting one listing pass
	// populate a whole subtree.
	workspaceChildren(ctx context.Context, s *Session, env string, ws *fabric.Workspace) ([]*Node, map[string][]*Node, error)
}

// typeGrouping is the flat list view: item-type nodes, then items.
type typeGrouping struct{}

func (typeGrouping) workspaceChildren(ctx context.Context, s *Session, env string, ws *fabric.Workspace) ([]*Node, map[string][]*Node, error) {
	items, err := s.source.ListItems(ctx, ws.ID, "")
	if err != nil {
		return nil, nil, err
	}

	byType := make(map[string][]fabric.Item)
	for _, item := range items {
		byType[item.Type] = append(byType[item.Type], item)
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return strings.ToLower(types[i]) < strings.ToLower(types[j])
	})

	children := make([]*Node, 0, len(types))
	prefill := make(map[string][]*Node)
	for _, t := range types {
		typeNode := NewItemTypeNode(env, ws.ID, t)
		children = append(children, typeNode)
		prefill[typeNode.Key] = s.itemNodes(env, byType[t])
	}
	return children, prefill, nil
}

// folderGrouping is the hierarchical tree view: folders nest via parent ids,
// items hang off their folder, folderless items sit at workspace root.
type folderGrouping struct{}

func (folderGrouping) workspaceChildren(ctx context.Context, s *Session, env string, ws *fabric.Workspace) ([]*Node, map[string][]*Node, error) {
	folders, err := s.source.ListFolders(ctx, ws.ID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.source.ListItems(ctx, ws.ID, "")
	if err != nil {
		return nil, nil, err
	}

	subfolders := make(map[string][]fabric.Folder) // parent folder id ("" = root)
	for _, f := range folders {
		subfolders[f.ParentFolderID] = append(subfolders[f.ParentFolderID], f)
	}
	itemsByFolder := make(map[string][]fabric.Item)
	for _, item := range items {
		itemsByFolder[item.FolderID] = append(itemsByFolder[item.FolderID], item)
	}

	prefill := make(map[string][]*Node)

	var build func(parentID string) []*Node
	build = func(parentID string) []*Node {
		fs := subfolders[parentID]
		sort.SliceStable(fs, func(i, j int) bool {
			return strings.ToLower(fs[i].DisplayName) < strings.ToLower(fs[j].DisplayName)
		})

		// Folders before items, each alphabetical.
		children := make([]*Node, 0, len(fs)+len(itemsByFolder[parentID]))
		for _, f := range fs {
			folderNode := NewFolderNode(env, f)
			children = append(children, folderNode)
			prefill[folderNode.Key] = build(f.ID)
		}
		children = append(children, s.itemNodes(env, itemsByFolder[parentID])...)
		return children
	}

	return build(""), prefill, nil
}
