package e2e

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/fabctl/internal/auth"
	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/fabricfake"
	"github.com/mattjoyce/fabctl/internal/sync"
	"github.com/mattjoyce/fabctl/internal/workflow"
)

func newStack(t *testing.T, opts ...fabricfake.Option) (*fabricfake.Server, *workflow.Dispatcher, *workflow.Registry, *fabric.Client) {
	t.Helper()

	opts = append([]fabricfake.Option{fabricfake.WithToken("e2e-token")}, opts...)
	fake := fabricfake.New(opts...)
	t.Cleanup(fake.Close)

	client := fabric.New(fake.URL(), auth.StaticToken("e2e-token"))
	poller := fabric.NewPoller(client,
		fabric.WithSleeper(func(ctx context.Context, d time.Duration) error { return nil }))
	registry := workflow.NewRegistry()
	dispatcher := workflow.NewDispatcher(client, poller, registry, nil)

	return fake, dispatcher, registry, client
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestItemLifecycleWithHooksAndSync(t *testing.T) {
	fake, dispatcher, registry, _ := newStack(t, fabricfake.WithRunningPolls(2))
	ws := fake.AddWorkspace("Sales", "Workspace", "")

	var order []string
	err := registry.Register(workflow.TypeHandler{
		Type: "Notebook",
		Create: &workflow.CreateWorkflow{
			OnBeforeCreate: func(ctx context.Context, req *workflow.Request) error {
				order = append(order, "before-create")
				req.Create.Description = "stamped by hook"
				return nil
			},
			OnAfterCreate: func(ctx context.Context, item *fabric.Item, resp *fabric.Response) error {
				order = append(order, "after-create")
				if item == nil {
					t.Error("after-create hook received nil item")
				}
				return nil
			},
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()
	item, err := dispatcher.CreateWithDefinition(ctx, ws.ID, fabric.CreateItemRequest{
		DisplayName: "ETL",
		Type:        "Notebook",
		Definition: &fabric.ItemDefinition{
			Format: "ipynb",
			Parts: []fabric.DefinitionPart{{
				Path:        "notebook-content.py",
				Payload:     b64("print('v1')"),
				PayloadType: "InlineBase64",
			}},
		},
	})
	if err != nil {
		t.Fatalf("CreateWithDefinition failed: %v", err)
	}
	if len(order) != 2 || order[0] != "before-create" || order[1] != "after-create" {
		t.Fatalf("unexpected hook order: %v", order)
	}

	stored := fake.Item(item.ID)
	if stored == nil {
		t.Fatal("item not created on server")
	}
	if stored.Description != "stamped by hook" {
		t.Errorf("before-hook mutation lost: description = %q", stored.Description)
	}

	// Pull the definition to disk, edit it, and push the change back.
	root := t.TempDir()
	syncer, err := sync.NewManager(root)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	dir := syncer.ItemDir(ws.DisplayName, *item)
	def, err := dispatcher.GetDefinition(ctx, *item, "")
	if err != nil {
		t.Fatalf("GetDefinition failed: %v", err)
	}
	if err := syncer.Pull(ctx, dir, *item, def); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "notebook-content.py"))
	if err != nil {
		t.Fatalf("pulled part missing: %v", err)
	}
	if string(content) != "print('v1')" {
		t.Errorf("pulled payload not decoded: %q", content)
	}

	dirty, err := syncer.Dirty(ctx, dir)
	if err != nil {
		t.Fatalf("Dirty failed: %v", err)
	}
	if dirty {
		t.Error("fresh pull should not be dirty")
	}

	if err := os.WriteFile(filepath.Join(dir, "notebook-content.py"), []byte("print('v2')"), 0o644); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	dirty, err = syncer.Dirty(ctx, dir)
	if err != nil {
		t.Fatalf("Dirty after edit failed: %v", err)
	}
	if !dirty {
		t.Fatal("edit not detected")
	}

	local, err := syncer.BuildDefinition(ctx, dir)
	if err != nil {
		t.Fatalf("BuildDefinition failed: %v", err)
	}
	if err := dispatcher.UpdateDefinition(ctx, *item, *local); err != nil {
		t.Fatalf("UpdateDefinition failed: %v", err)
	}

	remote := fake.Definition(item.ID)
	if remote == nil {
		t.Fatal("definition missing on server after push")
	}
	found := false
	for _, part := range remote.Parts {
		if part.Path == "notebook-content.py" {
			found = true
			if part.Payload != b64("print('v2')") {
				t.Errorf("pushed payload mismatch: %q", part.Payload)
			}
		}
	}
	if !found {
		t.Error("pushed part missing from server definition")
	}

	// Re-pull so the manifest matches the remote again.
	if err := syncer.Pull(ctx, dir, *item, remote); err != nil {
		t.Fatalf("re-pull failed: %v", err)
	}
	out, err := sync.DiffDefinitions(local, remote)
	if err != nil {
		t.Fatalf("DiffDefinitions failed: %v", err)
	}
	if out != "" {
		t.Errorf("expected clean diff after push, got:\n%s", out)
	}
}

func TestOperationFailureSurfacesToCaller(t *testing.T) {
	fake, dispatcher, _, _ := newStack(t,
		fabricfake.WithOperationFailure("ItemDefinitionInvalid", "part payload is not valid base64"))
	ws := fake.AddWorkspace("Sales", "Workspace", "")

	_, err := dispatcher.CreateWithDefinition(context.Background(), ws.ID, fabric.CreateItemRequest{
		DisplayName: "Broken",
		Type:        "Notebook",
		Definition: &fabric.ItemDefinition{
			Parts: []fabric.DefinitionPart{{Path: "a.py", Payload: "!!!", PayloadType: "InlineBase64"}},
		},
	})
	if err == nil {
		t.Fatal("expected operation failure")
	}

	var opErr *fabric.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected *fabric.OperationError, got %T: %v", err, err)
	}
	if opErr.ErrorCode != "ItemDefinitionInvalid" {
		t.Errorf("unexpected error code: %q", opErr.ErrorCode)
	}
}

func TestAbortedBeforeHookLeavesServerUntouched(t *testing.T) {
	fake, dispatcher, registry, client := newStack(t)
	ws := fake.AddWorkspace("Sales", "Workspace", "")

	err := registry.Register(workflow.TypeHandler{
		Type: "Report",
		Create: &workflow.CreateWorkflow{
			OnBeforeCreate: func(ctx context.Context, req *workflow.Request) error {
				return workflow.ErrAborted
			},
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()
	_, err = dispatcher.Create(ctx, ws.ID, fabric.CreateItemRequest{
		DisplayName: "Quarterly", Type: "Report",
	})
	if !errors.Is(err, workflow.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}

	items, err := client.ListItems(ctx, ws.ID, "")
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("aborted create still reached the server: %d items", len(items))
	}
}
