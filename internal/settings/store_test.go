package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDisplayStyleDefaultsToTree(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	style, err := store.DisplayStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, DisplayStyleTree, style)

	require.NoError(t, store.SetDisplayStyle(ctx, DisplayStyleList))
	style, err = store.DisplayStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, DisplayStyleList, style)

	// Setting again overwrites instead of erroring on the unique key.
	require.NoError(t, store.SetDisplayStyle(ctx, DisplayStyleTree))
	style, err = store.DisplayStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, DisplayStyleTree, style)
}

func TestSetDisplayStyleRejectsUnknownValue(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	assert.Error(t, store.SetDisplayStyle(context.Background(), "grid"))
}

func TestShowDefinitionsToggle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	on, err := store.ShowDefinitions(ctx)
	require.NoError(t, err)
	assert.False(t, on, "defaults to off")

	require.NoError(t, store.SetShowDefinitions(ctx, true))
	on, err = store.ShowDefinitions(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestHiddenWorkspacesRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetWorkspaceHidden(ctx, "w1", true))
	require.NoError(t, store.SetWorkspaceHidden(ctx, "w2", true))
	require.NoError(t, store.SetWorkspaceHidden(ctx, "w1", true)) // idempotent

	hidden, err := store.HiddenWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"w1": true, "w2": true}, hidden)

	require.NoError(t, store.SetWorkspaceHidden(ctx, "w1", false))
	hidden, err = store.HiddenWorkspaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"w2": true}, hidden)

	assert.Error(t, store.SetWorkspaceHidden(ctx, "", true))
}

func TestLocalPathsUpsert(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	path, err := store.LocalPath(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, path)

	require.NoError(t, store.SetLocalPath(ctx, "w1", "i1", "/tmp/a"))
	require.NoError(t, store.SetLocalPath(ctx, "w1", "i1", "/tmp/b")) // move

	path, err = store.LocalPath(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/b", path)

	require.NoError(t, store.SetLocalPath(ctx, "w1", "i2", "/tmp/c"))
	all, err := store.LocalPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"i1": "/tmp/b", "i2": "/tmp/c"}, all)

	assert.Error(t, store.SetLocalPath(ctx, "w1", "", "/tmp/x"))
}

func TestTreeExpansionPersists(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetExpanded(ctx, "ws/w1", true))
	require.NoError(t, store.SetExpanded(ctx, "ws/w2", true))
	require.NoError(t, store.SetExpanded(ctx, "ws/w2", false))

	expanded, err := store.ExpandedNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"ws/w1": true}, expanded)
}

func TestOpenBootstrapsExistingDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.SetDisplayStyle(ctx, DisplayStyleList))
	require.NoError(t, store.Close())

	// Reopening keeps persisted state and does not re-create tables.
	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	style, err := store.DisplayStyle(ctx)
	require.NoError(t, err)
	assert.Equal(t, DisplayStyleList, style)
}
