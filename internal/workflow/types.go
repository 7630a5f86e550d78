// Package workflow routes item lifecycle operations through optional
// per-item-type customization hooks around the Fabric REST verbs. The
// sequence for every operation is before-hook, send, poll (definition
// operations only), after-hook.
package workflow

import (
	"context"
	"errors"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

// Operation identifies one item lifecycle operation. Values are bits so a
// legacy hook can subscribe to several operations at once.
type Operation int

const (
	OpCreate Operation = 1 << iota
	OpCreateWithDefinition
	OpRead
	OpUpdate
	OpDelete
	OpGetDefinition
	OpUpdateDefinition
)

// String returns the operation name used in logs and errors.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpCreateWithDefinition:
		return "createWithDefinition"
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpGetDefinition:
		return "getDefinition"
	case OpUpdateDefinition:
		return "updateDefinition"
	default:
		return "unknown"
	}
}

// ErrAborted signals that the user abandoned an operation (closed a prompt,
// declined a confirmation). It is control flow, not a failure: callers must
// not log or report it as an error.
var ErrAborted = errors.New("operation aborted by user")

// Request is the mutable payload handed to before-hooks. Only the fields
// relevant to the operation are populated.
type Request struct {
	Op          Operation
	WorkspaceID string
	// ItemID is empty for create operations.
	ItemID string
	// ItemType keys the handler lookup.
	ItemType string

	Create           *fabric.CreateItemRequest
	Update           *fabric.UpdateItemRequest
	UpdateDefinition *fabric.UpdateItemDefinitionRequest
	// DefinitionFormat is the requested format for getDefinition, or "".
	DefinitionFormat string
}

// BeforeHook may mutate the request before it is sent.
type BeforeHook func(ctx context.Context, req *Request) error

// AfterHook runs once the request (and any long-running operation) has
// completed. item is nil for delete; resp is the final API response.
type AfterHook func(ctx context.Context, item *fabric.Item, resp *fabric.Response) error

// CreateWorkflow is the granular hook pair for create and
// createWithDefinition.
type CreateWorkflow struct {
	OnBeforeCreate BeforeHook
	OnAfterCreate  AfterHook
}

// ReadWorkflow is the granular hook pair for read.
type ReadWorkflow struct {
	OnBeforeRead BeforeHook
	OnAfterRead  AfterHook
}

// UpdateWorkflow is the granular hook pair for update.
type UpdateWorkflow struct {
	OnBeforeUpdate BeforeHook
	OnAfterUpdate  AfterHook
}

// DeleteWorkflow is the granular hook pair for delete.
type DeleteWorkflow struct {
	OnBeforeDelete BeforeHook
	OnAfterDelete  AfterHook
}

// GetDefinitionWorkflow is the granular hook pair for getDefinition.
type GetDefinitionWorkflow struct {
	OnBeforeGetDefinition BeforeHook
	OnAfterGetDefinition  AfterHook
}

// UpdateDefinitionWorkflow is the granular hook pair for updateDefinition.
type UpdateDefinitionWorkflow struct {
	OnBeforeUpdateDefinition BeforeHook
	OnAfterUpdateDefinition  AfterHook
}

// LegacyHook is the deprecated single-pair shape: one before/after pair
// subscribed to a bitmask of operations. Handlers that have not migrated to
// the granular workflows still register through this.
type LegacyHook struct {
	// Operations is the bitmask of operations the pair applies to.
	Operations      Operation
	OnBeforeRequest BeforeHook
	OnAfterRequest  AfterHook
}

// TypeHandler is the full customization surface for one item type. Any field
// may be nil; a granular workflow always wins over the legacy hook for the
// operations it covers.
type TypeHandler struct {
	Type string

	Create           *CreateWorkflow
	Read             *ReadWorkflow
	Update           *UpdateWorkflow
	Delete           *DeleteWorkflow
	GetDefinition    *GetDefinitionWorkflow
	UpdateDefinition *UpdateDefinitionWorkflow

	Legacy *LegacyHook
}
