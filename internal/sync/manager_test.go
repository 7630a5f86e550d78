package sync

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func testDefinition() *fabric.ItemDefinition {
	return &fabric.ItemDefinition{
		Format: "ipynb",
		Parts: []fabric.DefinitionPart{
			{Path: "notebook-content.py", Payload: b64("print(1)\n"), PayloadType: "InlineBase64"},
			{Path: "assets/config.json", Payload: b64(`{"a":1}`), PayloadType: "InlineBase64"},
		},
	}
}

func testItem() fabric.Item {
	return fabric.Item{ID: "i1", Type: "Notebook", DisplayName: "Daily", WorkspaceID: "w1"}
}

func TestPullWritesPartsAndManifest(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	dir := m.ItemDir("Sales", testItem())
	require.NoError(t, m.Pull(context.Background(), dir, testItem(), testDefinition()))

	content, err := os.ReadFile(filepath.Join(dir, "notebook-content.py"))
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", string(content))

	nested, err := os.ReadFile(filepath.Join(dir, "assets", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(nested))

	manifest, err := readManifest(dir)
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, "i1", manifest.ItemID)
	assert.Equal(t, "ipynb", manifest.Format)
	assert.Len(t, manifest.Parts, 2)
}

func TestPullRemovesVanishedParts(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	dir := m.ItemDir("Sales", testItem())
	ctx := context.Background()

	require.NoError(t, m.Pull(ctx, dir, testItem(), testDefinition()))

	// Second pull without the asset part.
	trimmed := &fabric.ItemDefinition{
		Format: "ipynb",
		Parts: []fabric.DefinitionPart{
			{Path: "notebook-content.py", Payload: b64("print(2)\n"), PayloadType: "InlineBase64"},
		},
	}
	require.NoError(t, m.Pull(ctx, dir, testItem(), trimmed))

	_, err = os.Stat(filepath.Join(dir, "assets", "config.json"))
	assert.True(t, os.IsNotExist(err), "part removed remotely is removed locally")

	content, err := os.ReadFile(filepath.Join(dir, "notebook-content.py"))
	require.NoError(t, err)
	assert.Equal(t, "print(2)\n", string(content))
}

func TestPullRejectsEscapingPartPaths(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	dir := m.ItemDir("Sales", testItem())

	hostile := &fabric.ItemDefinition{Parts: []fabric.DefinitionPart{
		{Path: "../outside.txt", Payload: b64("x"), PayloadType: "InlineBase64"},
	}}
	err = m.Pull(context.Background(), dir, testItem(), hostile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes item directory")

	absolute := &fabric.ItemDefinition{Parts: []fabric.DefinitionPart{
		{Path: "/etc/passwd", Payload: b64("x"), PayloadType: "InlineBase64"},
	}}
	assert.Error(t, m.Pull(context.Background(), dir, testItem(), absolute))
}

func TestBuildDefinitionRoundTrips(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	dir := m.ItemDir("Sales", testItem())
	ctx := context.Background()

	require.NoError(t, m.Pull(ctx, dir, testItem(), testDefinition()))

	def, err := m.BuildDefinition(ctx, dir)
	require.NoError(t, err)

	require.Len(t, def.Parts, 2, "the manifest itself is not a part")
	assert.Equal(t, "ipynb", def.Format, "format carried over from the manifest")
	// Parts are sorted by path with forward slashes.
	assert.Equal(t, "assets/config.json", def.Parts[0].Path)
	assert.Equal(t, "notebook-content.py", def.Parts[1].Path)
	assert.Equal(t, b64(`{"a":1}`), def.Parts[0].Payload)
	assert.Equal(t, "InlineBase64", def.Parts[0].PayloadType)
}

func TestStatusClassifiesEdits(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	dir := m.ItemDir("Sales", testItem())
	ctx := context.Background()

	require.NoError(t, m.Pull(ctx, dir, testItem(), testDefinition()))

	dirty, err := m.Dirty(ctx, dir)
	require.NoError(t, err)
	assert.False(t, dirty, "freshly pulled directory is clean")

	// Modify one part, add one, delete one.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notebook-content.py"), []byte("print(9)\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.py"), []byte("pass\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "assets", "config.json")))

	statuses, err := m.Status(ctx, dir)
	require.NoError(t, err)

	byPath := map[string]PartState{}
	for _, st := range statuses {
		byPath[st.Path] = st.State
	}
	assert.Equal(t, PartModified, byPath["notebook-content.py"])
	assert.Equal(t, PartAdded, byPath["new.py"])
	assert.Equal(t, PartDeleted, byPath["assets/config.json"])

	dirty, err = m.Dirty(ctx, dir)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestStatusWithoutManifestFails(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Status(context.Background(), filepath.Join(t.TempDir(), "never-pulled"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never pulled")
}

func TestItemDirSanitizesNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	m, err := NewManager(root)
	require.NoError(t, err)

	item := fabric.Item{DisplayName: "a/b", Type: "Report"}
	dir := m.ItemDir("Sales/EU", item)

	assert.Equal(t, filepath.Join(root, "Sales_EU", "a_b.Report"), dir)
}

func TestNewManagerRejectsEmptyRoot(t *testing.T) {
	t.Parallel()

	_, err := NewManager("  ")
	assert.Error(t, err)
}
