package tree

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/mattjoyce/fabctl/internal/events"
	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/settings"
	"github.com/mattjoyce/fabctl/internal/tree/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Label)
	}
	return out
}

func TestRootsAreEnvironmentNodes(t *testing.T) {
	t.Parallel()

	s := NewSession(nil, StaticSettings(settings.DisplayStyleTree, nil, false), []string{"prod", "dev"})
	roots := s.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, KindEnvironment, roots[0].Kind)
	assert.Equal(t, "env/prod", roots[0].Key)
	assert.Equal(t, "env/dev", roots[1].Key)
}

func TestEnvironmentChildrenAreSortedVisibleWorkspaces(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().ListWorkspaces(gomock.Any()).Return([]fabric.Workspace{
		{ID: "w1", DisplayName: "Zulu", Type: "Workspace"},
		{ID: "w2", DisplayName: "My workspace", Type: fabric.WorkspaceTypePersonal},
		{ID: "w3", DisplayName: "alpha", Type: "Workspace"},
		{ID: "w4", DisplayName: "Hidden one", Type: "Workspace"},
	}, nil)

	st := StaticSettings(settings.DisplayStyleTree, map[string]bool{"w4": true}, false)
	s := NewSession(source, st, []string{"prod"})

	children, err := s.GetChildren(context.Background(), s.Roots()[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"My workspace", "alpha", "Zulu"}, labels(children))
}

func TestGetChildrenCachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockSource(ctrl)
	// Exactly two remote listings: one for the first expand, one after the
	// refresh. The cached call in between must not hit the source.
	source.EXPECT().ListWorkspaces(gomock.Any()).Return([]fabric.Workspace{
		{ID: "w1", DisplayName: "Sales", Type: "Workspace"},
	}, nil).Times(2)

	hub := events.NewHub(8)
	s := NewSession(source, StaticSettings(settings.DisplayStyleTree, nil, false), []string{"prod"}, WithHub(hub))
	root := s.Roots()[0]

	first, err := s.GetChildren(context.Background(), root)
	require.NoError(t, err)
	second, err := s.GetChildren(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, labels(first), labels(second))

	s.Refresh()

	_, err = s.GetChildren(context.Background(), root)
	require.NoError(t, err)

	evs := hub.SnapshotSince(0)
	require.NotEmpty(t, evs)
	assert.Equal(t, events.TypeTreeInvalidated, evs[len(evs)-1].Type)
}

func TestInvalidationDropsTheWholeCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ws := fabric.Workspace{ID: "w1", DisplayName: "Sales", Type: "Workspace"}
	source := mocks.NewMockSource(ctrl)
	source.EXPECT().ListWorkspaces(gomock.Any()).Return([]fabric.Workspace{ws}, nil).Times(2)
	source.EXPECT().ListFolders(gomock.Any(), "w1").Return(nil, nil).Times(2)
	source.EXPECT().ListItems(gomock.Any(), "w1", "").Return(nil, nil).Times(2)

	s := NewSession(source, StaticSettings(settings.DisplayStyleTree, nil, false), []string{"prod"})
	root := s.Roots()[0]

	children, err := s.GetChildren(context.Background(), root)
	require.NoError(t, err)
	_, err = s.GetChildren(context.Background(), children[0])
	require.NoError(t, err)

	// A settings change invalidates every cached list, not just the root's.
	s.SettingsChanged()

	_, err = s.GetChildren(context.Background(), root)
	require.NoError(t, err)
	_, err = s.GetChildren(context.Background(), children[0])
	require.NoError(t, err)
}

func TestFolderGroupingNestsFoldersBeforeItems(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ws := fabric.Workspace{ID: "w1", DisplayName: "Sales", Type: "Workspace"}
	source := mocks.NewMockSource(ctrl)
	source.EXPECT().ListFolders(gomock.Any(), "w1").Return([]fabric.Folder{
		{ID: "f1", DisplayName: "Reports", WorkspaceID: "w1"},
		{ID: "f2", DisplayName: "Q1", WorkspaceID: "w1", ParentFolderID: "f1"},
	}, nil)
	source.EXPECT().ListItems(gomock.Any(), "w1", "").Return([]fabric.Item{
		{ID: "i1", Type: "Report", DisplayName: "Summary", WorkspaceID: "w1", FolderID: "f2"},
		{ID: "i2", Type: "Notebook", DisplayName: "Scratch", WorkspaceID: "w1"},
		{ID: "i3", Type: "Report", DisplayName: "Annual", WorkspaceID: "w1", FolderID: "f1"},
	}, nil)

	s := NewSession(source, StaticSettings(settings.DisplayStyleTree, nil, false), []string{"prod"})
	wsNode := NewWorkspaceNode("prod", ws)

	children, err := s.GetChildren(context.Background(), wsNode)
	require.NoError(t, err)
	// Folder first, then the folderless item.
	assert.Equal(t, []string{"Reports", "Scratch"}, labels(children))
	require.Equal(t, KindFolder, children[0].Kind)

	// Subfolder children come from the prefill; no further remote calls.
	reports, err := s.GetChildren(context.Background(), children[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Annual"}, labels(reports))

	q1, err := s.GetChildren(context.Background(), reports[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary"}, labels(q1))
}

func TestListStyleGroupsItemsByType(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ws := fabric.Workspace{ID: "w1", DisplayName: "Sales", Type: "Workspace"}
	source := mocks.NewMockSource(ctrl)
	source.EXPECT().ListItems(gomock.Any(), "w1", "").Return([]fabric.Item{
		{ID: "i1", Type: "Report", DisplayName: "Summary", WorkspaceID: "w1"},
		{ID: "i2", Type: "Notebook", DisplayName: "zeta", WorkspaceID: "w1"},
		{ID: "i3", Type: "Notebook", DisplayName: "Alpha", WorkspaceID: "w1"},
	}, nil)

	s := NewSession(source, StaticSettings(settings.DisplayStyleList, nil, false), []string{"prod"})
	wsNode := NewWorkspaceNode("prod", ws)

	children, err := s.GetChildren(context.Background(), wsNode)
	require.NoError(t, err)
	assert.Equal(t, []string{"Notebook", "Report"}, labels(children))
	assert.Equal(t, KindItemType, children[0].Kind)

	notebooks, err := s.GetChildren(context.Background(), children[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "zeta"}, labels(notebooks))
}

// fixedDefinitions serves one definition for every item.
type fixedDefinitions struct {
	def fabric.ItemDefinition
}

func (f *fixedDefinitions) GetDefinition(ctx context.Context, item fabric.Item, format string) (*fabric.ItemDefinition, error) {
	return &f.def, nil
}

func TestItemChildrenIncludeDefinitionFilesWhenEnabled(t *testing.T) {
	t.Parallel()

	defs := &fixedDefinitions{def: fabric.ItemDefinition{Parts: []fabric.DefinitionPart{
		{Path: "notebook-content.py"},
		{Path: ".platform"},
	}}}

	item := fabric.Item{ID: "i1", Type: "Notebook", DisplayName: "Job", WorkspaceID: "w1"}

	s := NewSession(nil, StaticSettings(settings.DisplayStyleTree, nil, true), []string{"prod"},
		WithDefinitionSource(defs))
	node := NewItemNode("prod", item, false)

	children, err := s.GetChildren(context.Background(), node)
	require.NoError(t, err)
	assert.Equal(t, []string{"notebook-content.py", ".platform"}, labels(children))
	for _, c := range children {
		assert.Equal(t, KindDefinitionFile, c.Kind)
		assert.True(t, c.Leaf)
	}
}

func TestItemChildrenSkipDefinitionsWhenDisabled(t *testing.T) {
	t.Parallel()

	defs := &fixedDefinitions{def: fabric.ItemDefinition{Parts: []fabric.DefinitionPart{{Path: "x"}}}}
	item := fabric.Item{ID: "i1", Type: "Notebook", DisplayName: "Job", WorkspaceID: "w1"}

	s := NewSession(nil, StaticSettings(settings.DisplayStyleTree, nil, false), []string{"prod"},
		WithDefinitionSource(defs))

	children, err := s.GetChildren(context.Background(), NewItemNode("prod", item, false))
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestLeafNodesHaveNoChildren(t *testing.T) {
	t.Parallel()

	s := NewSession(nil, StaticSettings(settings.DisplayStyleTree, nil, false), []string{"prod"})
	leaf := NewItemNode("prod", fabric.Item{ID: "i1", DisplayName: "Leaf"}, true)

	children, err := s.GetChildren(context.Background(), leaf)
	require.NoError(t, err)
	assert.Nil(t, children)
}

// typedProvider renders its items expandable with one static child.
type typedProvider struct{}

func (typedProvider) ItemNode(env string, item fabric.Item) *Node {
	return NewItemNode(env, item, false)
}

func (typedProvider) Children(ctx context.Context, item fabric.Item) ([]*Node, error) {
	child := NewItemNode("prod", fabric.Item{ID: item.ID + "-tables", DisplayName: "Tables", Type: item.Type}, true)
	return []*Node{child}, nil
}

func TestRegisteredProviderShapesItsItems(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().ListItems(gomock.Any(), "w1", "Lakehouse").Return([]fabric.Item{
		{ID: "i1", Type: "Lakehouse", DisplayName: "Main", WorkspaceID: "w1"},
	}, nil)

	s := NewSession(source, StaticSettings(settings.DisplayStyleList, nil, false), []string{"prod"})
	s.RegisterProvider("Lakehouse", typedProvider{})

	typeNode := NewItemTypeNode("prod", "w1", "Lakehouse")
	items, err := s.GetChildren(context.Background(), typeNode)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Leaf, "the provider made the item expandable")

	children, err := s.GetChildren(context.Background(), items[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Tables"}, labels(children))
}
