package workflow

import (
	"fmt"
	"sync"
)

// hookPair is the normalized shape every handler is reduced to: one optional
// before and one optional after hook per operation.
type hookPair struct {
	before BeforeHook
	after  AfterHook
}

// normalized is a TypeHandler flattened into per-operation pairs. Legacy
// hooks are adapted here once, at registration, so dispatch never has to
// probe for which shape a handler uses.
type normalized struct {
	itemType string
	hooks    map[Operation]hookPair
}

// Registry holds the per-item-type handlers. Registration normalizes; lookup
// is read-only and safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*normalized
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]*normalized)}
}

var allOperations = []Operation{
	OpCreate, OpCreateWithDefinition, OpRead, OpUpdate, OpDelete,
	OpGetDefinition, OpUpdateDefinition,
}

// Register installs a handler for its item type. A granular workflow takes
// precedence over the legacy pair for every operation it is present for,
// even when only one side of the pair is set; the legacy pair fills in only
// the operations no granular workflow covers.
func (r *Registry) Register(h TypeHandler) error {
	if h.Type == "" {
		return fmt.Errorf("handler item type is empty")
	}

	n := &normalized{
		itemType: h.Type,
		hooks:    make(map[Operation]hookPair),
	}

	granular := map[Operation]hookPair{}
	if h.Create != nil {
		pair := hookPair{before: h.Create.OnBeforeCreate, after: h.Create.OnAfterCreate}
		granular[OpCreate] = pair
		granular[OpCreateWithDefinition] = pair
	}
	if h.Read != nil {
		granular[OpRead] = hookPair{before: h.Read.OnBeforeRead, after: h.Read.OnAfterRead}
	}
	if h.Update != nil {
		granular[OpUpdate] = hookPair{before: h.Update.OnBeforeUpdate, after: h.Update.OnAfterUpdate}
	}
	if h.Delete != nil {
		granular[OpDelete] = hookPair{before: h.Delete.OnBeforeDelete, after: h.Delete.OnAfterDelete}
	}
	if h.GetDefinition != nil {
		granular[OpGetDefinition] = hookPair{before: h.GetDefinition.OnBeforeGetDefinition, after: h.GetDefinition.OnAfterGetDefinition}
	}
	if h.UpdateDefinition != nil {
		granular[OpUpdateDefinition] = hookPair{before: h.UpdateDefinition.OnBeforeUpdateDefinition, after: h.UpdateDefinition.OnAfterUpdateDefinition}
	}

	for _, op := range allOperations {
		if pair, ok := granular[op]; ok {
			n.hooks[op] = pair
			continue
		}
		if h.Legacy != nil && h.Legacy.Operations&op != 0 {
			n.hooks[op] = hookPair{before: h.Legacy.OnBeforeRequest, after: h.Legacy.OnAfterRequest}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Type]; exists {
		return fmt.Errorf("handler for item type %q already registered", h.Type)
	}
	r.handlers[h.Type] = n
	return nil
}

// lookup returns the hook pair for (itemType, op). The zero pair means no
// customization is registered.
func (r *Registry) lookup(itemType string, op Operation) hookPair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.handlers[itemType]
	if !ok {
		return hookPair{}
	}
	return n.hooks[op]
}

// Has reports whether any handler is registered for itemType.
func (r *Registry) Has(itemType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[itemType]
	return ok
}

// Types returns the registered item types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}
