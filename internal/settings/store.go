// Package settings persists local UI state between fabctl sessions: display
// style, workspace visibility, per-item local folder paths, and tree
// expansion. Core client logic reads this state but never mutates it.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DisplayStyle selects how workspace children are grouped.
type DisplayStyle string

const (
	// DisplayStyleList groups items flatly by item type.
	DisplayStyleList DisplayStyle = "list"
	// DisplayStyleTree groups items by workspace folder hierarchy.
	DisplayStyleTree DisplayStyle = "tree"
)

// Setting keys in the ui_settings table.
const (
	keyDisplayStyle    = "display_style"
	keyShowDefinitions = "show_definitions"
)

// Store is the SQLite-backed settings store.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened settings database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open is the convenience constructor: open/bootstrap the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DisplayStyle returns the persisted display style, defaulting to tree view.
func (s *Store) DisplayStyle(ctx context.Context) (DisplayStyle, error) {
	v, err := s.getSetting(ctx, keyDisplayStyle)
	if err != nil {
		return "", err
	}
	switch DisplayStyle(v) {
	case DisplayStyleList:
		return DisplayStyleList, nil
	default:
		return DisplayStyleTree, nil
	}
}

// SetDisplayStyle persists the display style.
func (s *Store) SetDisplayStyle(ctx context.Context, style DisplayStyle) error {
	if style != DisplayStyleList && style != DisplayStyleTree {
		return fmt.Errorf("unknown display style %q", style)
	}
	return s.putSetting(ctx, keyDisplayStyle, string(style))
}

// ShowDefinitions returns whether definition files appear under items in the
// tree. Defaults to false.
func (s *Store) ShowDefinitions(ctx context.Context) (bool, error) {
	v, err := s.getSetting(ctx, keyShowDefinitions)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// SetShowDefinitions persists the item-definition toggle.
func (s *Store) SetShowDefinitions(ctx context.Context, on bool) error {
	v := "false"
	if on {
		v = "true"
	}
	return s.putSetting(ctx, keyShowDefinitions, v)
}

// HiddenWorkspaces returns the set of workspace ids filtered out of the tree.
func (s *Store) HiddenWorkspaces(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT workspace_id FROM hidden_workspaces;")
	if err != nil {
		return nil, fmt.Errorf("read hidden workspaces: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hidden workspace: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// SetWorkspaceHidden adds or removes a workspace from the hidden set.
func (s *Store) SetWorkspaceHidden(ctx context.Context, workspaceID string, hidden bool) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace id is empty")
	}

	var err error
	if hidden {
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO hidden_workspaces(workspace_id) VALUES(?) ON CONFLICT(workspace_id) DO NOTHING;",
			workspaceID)
	} else {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM hidden_workspaces WHERE workspace_id = ?;", workspaceID)
	}
	if err != nil {
		return fmt.Errorf("update hidden workspaces: %w", err)
	}
	return nil
}

// LocalPath returns the sync folder recorded for an item, or "" if none.
func (s *Store) LocalPath(ctx context.Context, itemID string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		"SELECT local_path FROM item_paths WHERE item_id = ?;", itemID).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read item path: %w", err)
	}
	return path, nil
}

// SetLocalPath records where an item's definition is synced locally.
func (s *Store) SetLocalPath(ctx context.Context, workspaceID, itemID, path string) error {
	if itemID == "" || path == "" {
		return fmt.Errorf("item id and path are required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO item_paths(item_id, workspace_id, local_path, updated_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(item_id) DO UPDATE SET
  workspace_id = excluded.workspace_id,
  local_path   = excluded.local_path,
  updated_at   = excluded.updated_at;
`, itemID, workspaceID, path, now)
	if err != nil {
		return fmt.Errorf("upsert item path: %w", err)
	}
	return nil
}

// LocalPaths returns all recorded item paths keyed by item id.
func (s *Store) LocalPaths(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT item_id, local_path FROM item_paths;")
	if err != nil {
		return nil, fmt.Errorf("read item paths: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, fmt.Errorf("scan item path: %w", err)
		}
		out[id] = path
	}
	return out, rows.Err()
}

// SetExpanded records whether a tree node is expanded.
func (s *Store) SetExpanded(ctx context.Context, nodeKey string, expanded bool) error {
	if nodeKey == "" {
		return fmt.Errorf("node key is empty")
	}

	flag := 0
	if expanded {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tree_expansion(node_key, expanded) VALUES(?, ?)
ON CONFLICT(node_key) DO UPDATE SET expanded = excluded.expanded;
`, nodeKey, flag)
	if err != nil {
		return fmt.Errorf("upsert tree expansion: %w", err)
	}
	return nil
}

// ExpandedNodes returns the node keys recorded as expanded.
func (s *Store) ExpandedNodes(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT node_key FROM tree_expansion WHERE expanded = 1;")
	if err != nil {
		return nil, fmt.Errorf("read tree expansion: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan tree expansion: %w", err)
		}
		out[key] = true
	}
	return out, rows.Err()
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM ui_settings WHERE key = ?;", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %q: %w", key, err)
	}
	return v, nil
}

func (s *Store) putSetting(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ui_settings(key, value, updated_at) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value      = excluded.value,
  updated_at = excluded.updated_at;
`, key, value, now)
	if err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	return nil
}
