// Package tree lazily materializes the environment → workspace → folder/type
// → item hierarchy from the Fabric API, caching children per node and
// invalidating wholesale on refresh.
package tree

import (
	"fmt"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

// NodeKind is the explicit discriminant of a tree node, set at construction.
// Dispatch switches on it; nothing probes structure.
type NodeKind int

const (
	KindEnvironment NodeKind = iota
	KindWorkspace
	KindFolder
	KindItemType
	KindItem
	KindDefinitionFile
)

// String returns the kind name used in logs and node keys.
func (k NodeKind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindWorkspace:
		return "workspace"
	case KindFolder:
		return "folder"
	case KindItemType:
		return "itemType"
	case KindItem:
		return "item"
	case KindDefinitionFile:
		return "definitionFile"
	default:
		return "unknown"
	}
}

// Node is one element of the tree. Exactly the fields implied by Kind are
// set; Key is stable across refreshes and keys the children cache and the
// persisted expansion state.
type Node struct {
	Kind  NodeKind
	Key   string
	Label string

	// Environment is set for every node (the tenant it belongs to).
	Environment string

	Workspace *fabric.Workspace
	Folder    *fabric.Folder
	ItemType  string
	Item      *fabric.Item
	// DefinitionPath is set for definition-file nodes.
	DefinitionPath string

	// Leaf marks nodes that never have children.
	Leaf bool
}

// NewEnvironmentNode builds a tenant root node.
func NewEnvironmentNode(name string) *Node {
	return &Node{
		Kind:        KindEnvironment,
		Key:         "env/" + name,
		Label:       name,
		Environment: name,
	}
}

// NewWorkspaceNode builds a workspace node.
func NewWorkspaceNode(env string, ws fabric.Workspace) *Node {
	w := ws
	return &Node{
		Kind:        KindWorkspace,
		Key:         "ws/" + ws.ID,
		Label:       ws.DisplayName,
		Environment: env,
		Workspace:   &w,
	}
}

// NewFolderNode builds a folder node.
func NewFolderNode(env string, folder fabric.Folder) *Node {
	f := folder
	return &Node{
		Kind:        KindFolder,
		Key:         fmt.Sprintf("ws/%s/folder/%s", folder.WorkspaceID, folder.ID),
		Label:       folder.DisplayName,
		Environment: env,
		Folder:      &f,
	}
}

// NewItemTypeNode builds the grouping node for one item type in list view.
func NewItemTypeNode(env, workspaceID, itemType string) *Node {
	return &Node{
		Kind:        KindItemType,
		Key:         fmt.Sprintf("ws/%s/type/%s", workspaceID, itemType),
		Label:       itemType,
		Environment: env,
		ItemType:    itemType,
	}
}

// NewItemNode builds a generic item node. Types without a registered
// provider get this leaf shape.
func NewItemNode(env string, item fabric.Item, leaf bool) *Node {
	it := item
	return &Node{
		Kind:        KindItem,
		Key:         "item/" + item.ID,
		Label:       item.DisplayName,
		Environment: env,
		Item:        &it,
		Leaf:        leaf,
	}
}

// NewDefinitionFileNode builds a leaf node for one definition part.
func NewDefinitionFileNode(env string, item fabric.Item, partPath string) *Node {
	it := item
	return &Node{
		Kind:           KindDefinitionFile,
		Key:            fmt.Sprintf("item/%s/def/%s", item.ID, partPath),
		Label:          partPath,
		Environment:    env,
		Item:           &it,
		DefinitionPath: partPath,
		Leaf:           true,
	}
}
