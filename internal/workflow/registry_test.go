package workflow

import (
	"context"
	"testing"

	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markBefore(calls *[]string, name string) BeforeHook {
	return func(ctx context.Context, req *Request) error {
		*calls = append(*calls, name)
		return nil
	}
}

func markAfter(calls *[]string, name string) AfterHook {
	return func(ctx context.Context, item *fabric.Item, resp *fabric.Response) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestRegisterRejectsEmptyTypeAndDuplicates(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.Error(t, r.Register(TypeHandler{}))

	require.NoError(t, r.Register(TypeHandler{Type: "Notebook"}))
	require.Error(t, r.Register(TypeHandler{Type: "Notebook"}))

	assert.True(t, r.Has("Notebook"))
	assert.False(t, r.Has("Report"))
	assert.Equal(t, []string{"Notebook"}, r.Types())
}

func TestGranularWorkflowWinsOverLegacy(t *testing.T) {
	t.Parallel()

	var calls []string
	r := NewRegistry()
	require.NoError(t, r.Register(TypeHandler{
		Type: "Notebook",
		Read: &ReadWorkflow{
			OnBeforeRead: markBefore(&calls, "granular-before"),
			OnAfterRead:  markAfter(&calls, "granular-after"),
		},
		Legacy: &LegacyHook{
			Operations:      OpRead | OpDelete,
			OnBeforeRequest: markBefore(&calls, "legacy-before"),
			OnAfterRequest:  markAfter(&calls, "legacy-after"),
		},
	}))

	// Read is covered by the granular workflow; the legacy pair must not run.
	pair := r.lookup("Notebook", OpRead)
	require.NotNil(t, pair.before)
	require.NotNil(t, pair.after)
	require.NoError(t, pair.before(context.Background(), &Request{}))
	require.NoError(t, pair.after(context.Background(), nil, nil))
	assert.Equal(t, []string{"granular-before", "granular-after"}, calls)

	// Delete is only covered by the legacy pair.
	calls = nil
	pair = r.lookup("Notebook", OpDelete)
	require.NotNil(t, pair.before)
	require.NoError(t, pair.before(context.Background(), &Request{}))
	assert.Equal(t, []string{"legacy-before"}, calls)
}

func TestGranularPrecedenceIsPerOperationNotPerHook(t *testing.T) {
	t.Parallel()

	var calls []string
	r := NewRegistry()
	require.NoError(t, r.Register(TypeHandler{
		Type: "Report",
		// Only a before side; the legacy pair still must not fill the after
		// side for update.
		Update: &UpdateWorkflow{OnBeforeUpdate: markBefore(&calls, "granular-before")},
		Legacy: &LegacyHook{
			Operations:     OpUpdate,
			OnAfterRequest: markAfter(&calls, "legacy-after"),
		},
	}))

	pair := r.lookup("Report", OpUpdate)
	require.NotNil(t, pair.before)
	assert.Nil(t, pair.after)
}

func TestCreateWorkflowCoversBothCreateShapes(t *testing.T) {
	t.Parallel()

	var calls []string
	r := NewRegistry()
	require.NoError(t, r.Register(TypeHandler{
		Type:   "Lakehouse",
		Create: &CreateWorkflow{OnBeforeCreate: markBefore(&calls, "before")},
	}))

	assert.NotNil(t, r.lookup("Lakehouse", OpCreate).before)
	assert.NotNil(t, r.lookup("Lakehouse", OpCreateWithDefinition).before)
}

func TestLegacyBitmaskFillsOnlySubscribedOperations(t *testing.T) {
	t.Parallel()

	var calls []string
	r := NewRegistry()
	require.NoError(t, r.Register(TypeHandler{
		Type: "Eventstream",
		Legacy: &LegacyHook{
			Operations:      OpCreate | OpUpdateDefinition,
			OnBeforeRequest: markBefore(&calls, "legacy"),
		},
	}))

	assert.NotNil(t, r.lookup("Eventstream", OpCreate).before)
	assert.NotNil(t, r.lookup("Eventstream", OpUpdateDefinition).before)
	assert.Nil(t, r.lookup("Eventstream", OpRead).before)
	assert.Nil(t, r.lookup("Eventstream", OpDelete).before)
}

func TestLookupUnknownTypeIsZeroPair(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	pair := r.lookup("Unregistered", OpRead)
	assert.Nil(t, pair.before)
	assert.Nil(t, pair.after)
}
