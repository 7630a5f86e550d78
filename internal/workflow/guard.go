package workflow

import (
	"errors"
	"fmt"
	"sync"
)

// ErrActionInFlight is returned when an interactive action starts while
// another is still running. The second action is rejected, not queued.
var ErrActionInFlight = errors.New("another action is already running")

// ActionGuard is a best-effort single-flight gate for interactive actions
// (context-menu style commands). It serializes nothing else: unrelated
// programmatic operations may interleave freely.
type ActionGuard struct {
	mu      sync.Mutex
	current string
}

// Begin claims the guard for the named action. On success it returns a
// release function the caller must invoke when the action finishes. While
// claimed, further Begin calls fail with ErrActionInFlight wrapped with the
// name of the running action.
func (g *ActionGuard) Begin(name string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != "" {
		return nil, fmt.Errorf("%w: %s", ErrActionInFlight, g.current)
	}
	g.current = name

	return func() {
		g.mu.Lock()
		g.current = ""
		g.mu.Unlock()
	}, nil
}

// Running returns the name of the action currently holding the guard, or "".
func (g *ActionGuard) Running() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}
