package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/log"
)

// ViewerSink receives raw item payloads when a read completes without a
// registered after-hook. The CLI renders to stdout; the TUI shows a pane.
type ViewerSink interface {
	View(name string, payload []byte) error
}

// discardViewer drops payloads. Used when no sink is wired.
type discardViewer struct{}

func (discardViewer) View(string, []byte) error { return nil }

// Dispatcher executes item lifecycle operations: before-hook, send, poll for
// the asynchronous definition endpoints, after-hook. Failures bubble to the
// caller; nothing here shows UI.
type Dispatcher struct {
	client   *fabric.Client
	poller   *fabric.Poller
	registry *Registry
	viewer   ViewerSink
	logger   *slog.Logger
}

// NewDispatcher wires a Dispatcher over client, using registry for hook
// lookup. A nil viewer discards default read output.
func NewDispatcher(client *fabric.Client, poller *fabric.Poller, registry *Registry, viewer ViewerSink) *Dispatcher {
	if viewer == nil {
		viewer = discardViewer{}
	}
	return &Dispatcher{
		client:   client,
		poller:   poller,
		registry: registry,
		viewer:   viewer,
		logger:   log.WithComponent("workflow"),
	}
}

// Create creates an item without a definition.
func (d *Dispatcher) Create(ctx context.Context, workspaceID string, create fabric.CreateItemRequest) (*fabric.Item, error) {
	if create.Definition != nil {
		return d.CreateWithDefinition(ctx, workspaceID, create)
	}

	req := &Request{
		Op:          OpCreate,
		WorkspaceID: workspaceID,
		ItemType:    create.Type,
		Create:      &create,
	}
	pair := d.registry.lookup(req.ItemType, OpCreate)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return nil, err
	}

	resp, err := d.client.Do(ctx, http.MethodPost, fabric.ItemsPath(workspaceID), req.Create)
	if err != nil {
		return nil, err
	}
	item, err := decodeItem(resp)
	if err != nil {
		return nil, err
	}

	if err := d.runAfter(ctx, pair, req, item, resp); err != nil {
		return item, err
	}
	return item, nil
}

// CreateWithDefinition creates an item with an inline definition. The
// endpoint is asynchronous: the 202 is polled to completion before the
// after-hook runs.
func (d *Dispatcher) CreateWithDefinition(ctx context.Context, workspaceID string, create fabric.CreateItemRequest) (*fabric.Item, error) {
	req := &Request{
		Op:          OpCreateWithDefinition,
		WorkspaceID: workspaceID,
		ItemType:    create.Type,
		Create:      &create,
	}
	pair := d.registry.lookup(req.ItemType, OpCreateWithDefinition)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return nil, err
	}

	resp, err := d.client.Do(ctx, http.MethodPost, fabric.ItemsPath(workspaceID), req.Create)
	if err != nil {
		return nil, err
	}
	resp, err = d.poller.PollUntilTerminal(ctx, resp)
	if err != nil {
		return nil, err
	}
	item, err := decodeItem(resp)
	if err != nil {
		return nil, err
	}

	if err := d.runAfter(ctx, pair, req, item, resp); err != nil {
		return item, err
	}
	return item, nil
}

// Read fetches an item. When no after-hook is registered for the type, the
// raw payload is handed to the viewer sink as a read-only rendering.
func (d *Dispatcher) Read(ctx context.Context, workspaceID, itemID, itemType string) (*fabric.Item, error) {
	req := &Request{
		Op:          OpRead,
		WorkspaceID: workspaceID,
		ItemID:      itemID,
		ItemType:    itemType,
	}
	pair := d.registry.lookup(itemType, OpRead)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return nil, err
	}

	resp, err := d.client.Do(ctx, http.MethodGet, fabric.ItemPath(workspaceID, req.ItemID), nil)
	if err != nil {
		return nil, err
	}
	item, err := decodeItem(resp)
	if err != nil {
		return nil, err
	}

	if pair.after == nil {
		name := item.DisplayName
		if name == "" {
			name = item.ID
		}
		if err := d.viewer.View(name, resp.Body); err != nil {
			return item, fmt.Errorf("render item payload: %w", err)
		}
		return item, nil
	}

	if err := d.runAfter(ctx, pair, req, item, resp); err != nil {
		return item, err
	}
	return item, nil
}

// Update patches display name and/or description of an item.
func (d *Dispatcher) Update(ctx context.Context, item fabric.Item, update fabric.UpdateItemRequest) (*fabric.Item, error) {
	req := &Request{
		Op:          OpUpdate,
		WorkspaceID: item.WorkspaceID,
		ItemID:      item.ID,
		ItemType:    item.Type,
		Update:      &update,
	}
	pair := d.registry.lookup(item.Type, OpUpdate)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return nil, err
	}

	resp, err := d.client.Do(ctx, http.MethodPatch, fabric.ItemPath(item.WorkspaceID, item.ID), req.Update)
	if err != nil {
		return nil, err
	}
	updated, err := decodeItem(resp)
	if err != nil {
		return nil, err
	}

	if err := d.runAfter(ctx, pair, req, updated, resp); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete removes an item. The after-hook receives a nil item.
func (d *Dispatcher) Delete(ctx context.Context, item fabric.Item) error {
	req := &Request{
		Op:          OpDelete,
		WorkspaceID: item.WorkspaceID,
		ItemID:      item.ID,
		ItemType:    item.Type,
	}
	pair := d.registry.lookup(item.Type, OpDelete)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return err
	}

	resp, err := d.client.Do(ctx, http.MethodDelete, fabric.ItemPath(item.WorkspaceID, item.ID), nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fabric.ErrorFromResponse(resp)
	}

	return d.runAfter(ctx, pair, req, nil, resp)
}

// definitionEnvelope is the response body of the definition endpoints.
type definitionEnvelope struct {
	Definition fabric.ItemDefinition `json:"definition"`
}

// GetDefinition fetches the full definition of an item. The endpoint is
// asynchronous; the response is polled to completion before the after-hook.
func (d *Dispatcher) GetDefinition(ctx context.Context, item fabric.Item, format string) (*fabric.ItemDefinition, error) {
	req := &Request{
		Op:               OpGetDefinition,
		WorkspaceID:      item.WorkspaceID,
		ItemID:           item.ID,
		ItemType:         item.Type,
		DefinitionFormat: format,
	}
	pair := d.registry.lookup(item.Type, OpGetDefinition)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return nil, err
	}

	path := fabric.ItemGetDefinitionPath(item.WorkspaceID, req.ItemID)
	if req.DefinitionFormat != "" {
		path += "?format=" + req.DefinitionFormat
	}
	resp, err := d.client.Do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err = d.poller.PollUntilTerminal(ctx, resp)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fabric.ErrorFromResponse(resp)
	}

	var envelope definitionEnvelope
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, err
	}

	if err := d.runAfter(ctx, pair, req, &item, resp); err != nil {
		return &envelope.Definition, err
	}
	return &envelope.Definition, nil
}

// UpdateDefinition replaces the definition of an item. Asynchronous, same
// polling discipline as GetDefinition.
func (d *Dispatcher) UpdateDefinition(ctx context.Context, item fabric.Item, def fabric.ItemDefinition) error {
	req := &Request{
		Op:               OpUpdateDefinition,
		WorkspaceID:      item.WorkspaceID,
		ItemID:           item.ID,
		ItemType:         item.Type,
		UpdateDefinition: &fabric.UpdateItemDefinitionRequest{Definition: def},
	}
	pair := d.registry.lookup(item.Type, OpUpdateDefinition)

	if err := d.runBefore(ctx, pair, req); err != nil {
		return err
	}

	resp, err := d.client.Do(ctx, http.MethodPost, fabric.ItemUpdateDefinitionPath(item.WorkspaceID, item.ID), req.UpdateDefinition)
	if err != nil {
		return err
	}
	resp, err = d.poller.PollUntilTerminal(ctx, resp)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fabric.ErrorFromResponse(resp)
	}

	return d.runAfter(ctx, pair, req, &item, resp)
}

func (d *Dispatcher) runBefore(ctx context.Context, pair hookPair, req *Request) error {
	if pair.before == nil {
		return nil
	}
	if err := pair.before(ctx, req); err != nil {
		return fmt.Errorf("%s before-hook for %s: %w", req.Op, req.ItemType, err)
	}
	return nil
}

// runAfter invokes the after-hook. A hook failure is reported to the caller
// but nothing is rolled back: the server-side effect already happened.
func (d *Dispatcher) runAfter(ctx context.Context, pair hookPair, req *Request, item *fabric.Item, resp *fabric.Response) error {
	if pair.after == nil {
		return nil
	}
	if err := pair.after(ctx, item, resp); err != nil {
		d.logger.Warn("after-hook failed, server-side effect stands",
			"operation", req.Op.String(), "item_type", req.ItemType, "error", err)
		return fmt.Errorf("%s after-hook for %s: %w", req.Op, req.ItemType, err)
	}
	return nil
}

// decodeItem converts a 2xx response into an Item, or a non-2xx response
// into a typed API error.
func decodeItem(resp *fabric.Response) (*fabric.Item, error) {
	if !resp.IsSuccess() {
		return nil, fabric.ErrorFromResponse(resp)
	}
	var item fabric.Item
	if err := resp.DecodeJSON(&item); err != nil {
		return nil, err
	}
	return &item, nil
}
