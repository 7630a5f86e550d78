// Package fabricfake is an in-process Fabric API double for tests: the
// workspace/item/folder/capacity surface plus scriptable long-running
// operations, on a chi router behind httptest.
package fabricfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mattjoyce/fabctl/internal/fabric"
)

// Server is the fake service. All state is in memory and mutex-guarded so
// tests can drive it concurrently.
type Server struct {
	mu sync.Mutex

	workspaces map[string]*fabric.Workspace
	items      map[string]*fabric.Item
	folders    map[string]*fabric.Folder
	capacities []fabric.Capacity

	definitions map[string]*fabric.ItemDefinition // item id -> definition
	operations  map[string]*operation

	// requireToken, when set, rejects requests without this bearer token.
	requireToken string
	// runningPolls is how many Running poll responses each new operation
	// serves before succeeding.
	runningPolls int
	// failOps makes every new operation fail with this error instead.
	failOps *fabric.OperationErrorDetail
	// folderPageSize forces continuation-token paging when > 0.
	folderPageSize int

	httpServer *httptest.Server
}

// operation is one scripted long-running operation.
type operation struct {
	id        string
	remaining int
	fail      *fabric.OperationErrorDetail
	result    any
	resultURL string
	done      bool
}

// Option customizes the fake.
type Option func(*Server)

// WithToken makes the fake enforce bearer auth.
func WithToken(token string) Option {
	return func(s *Server) { s.requireToken = token }
}

// WithRunningPolls scripts n Running responses per operation before the
// terminal state.
func WithRunningPolls(n int) Option {
	return func(s *Server) { s.runningPolls = n }
}

// WithOperationFailure scripts every operation to fail.
func WithOperationFailure(errorCode, message string) Option {
	return func(s *Server) {
		s.failOps = &fabric.OperationErrorDetail{ErrorCode: errorCode, Message: message}
	}
}

// WithFolderPageSize forces folder listings to page.
func WithFolderPageSize(n int) Option {
	return func(s *Server) { s.folderPageSize = n }
}

// New starts a fake service. Callers must Close it.
func New(opts ...Option) *Server {
	s := &Server{
		workspaces:  make(map[string]*fabric.Workspace),
		items:       make(map[string]*fabric.Item),
		folders:     make(map[string]*fabric.Folder),
		definitions: make(map[string]*fabric.ItemDefinition),
		operations:  make(map[string]*operation),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.authMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/capacities", s.listCapacities)

		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", s.listWorkspaces)
			r.Post("/", s.createWorkspace)

			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Get("/", s.getWorkspace)
				r.Patch("/", s.updateWorkspace)
				r.Delete("/", s.deleteWorkspace)

				r.Route("/items", func(r chi.Router) {
					r.Get("/", s.listItems)
					r.Post("/", s.createItem)
					r.Get("/{itemID}", s.getItem)
					r.Patch("/{itemID}", s.updateItem)
					r.Delete("/{itemID}", s.deleteItem)
					r.Post("/{itemID}/getDefinition", s.getDefinition)
					r.Post("/{itemID}/updateDefinition", s.updateDefinition)
				})

				r.Route("/folders", func(r chi.Router) {
					r.Get("/", s.listFolders)
					r.Post("/", s.createFolder)
					r.Patch("/{folderID}", s.updateFolder)
					r.Delete("/{folderID}", s.deleteFolder)
					r.Post("/{folderID}/move", s.moveFolder)
				})
			})
		})

		r.Route("/operations", func(r chi.Router) {
			r.Get("/{operationID}", s.pollOperation)
			r.Get("/{operationID}/result", s.operationResult)
		})
	})

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL is the base URL clients should point at.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the fake down.
func (s *Server) Close() {
	s.httpServer.Close()
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.requireToken != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.requireToken {
				writeError(w, http.StatusUnauthorized, "Unauthenticated", "A valid bearer token is required.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// --- Seeding helpers (tests arrange state directly) ---

// AddWorkspace seeds a workspace and returns it.
func (s *Server) AddWorkspace(displayName, wsType, capacityID string) fabric.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := &fabric.Workspace{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Type:        wsType,
		CapacityID:  capacityID,
	}
	s.workspaces[ws.ID] = ws
	return *ws
}

// AddItem seeds an item in a workspace.
func (s *Server) AddItem(workspaceID, itemType, displayName, folderID string) fabric.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &fabric.Item{
		ID:          uuid.NewString(),
		Type:        itemType,
		DisplayName: displayName,
		WorkspaceID: workspaceID,
		FolderID:    folderID,
	}
	s.items[item.ID] = item
	return *item
}

// AddFolder seeds a folder in a workspace.
func (s *Server) AddFolder(workspaceID, displayName, parentFolderID string) fabric.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder := &fabric.Folder{
		ID:             uuid.NewString(),
		DisplayName:    displayName,
		WorkspaceID:    workspaceID,
		ParentFolderID: parentFolderID,
	}
	s.folders[folder.ID] = folder
	return *folder
}

// AddCapacity seeds a capacity.
func (s *Server) AddCapacity(displayName, sku string) fabric.Capacity {
	s.mu.Lock()
	defer s.mu.Unlock()

	cap := fabric.Capacity{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		SKU:         sku,
		State:       "Active",
	}
	s.capacities = append(s.capacities, cap)
	return cap
}

// SetDefinition seeds the stored definition for an item.
func (s *Server) SetDefinition(itemID string, def fabric.ItemDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := def
	s.definitions[itemID] = &d
}

// Definition returns the stored definition for an item, or nil.
func (s *Server) Definition(itemID string) *fabric.ItemDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.definitions[itemID]; ok {
		copied := *d
		return &copied
	}
	return nil
}

// Item returns the stored item, or nil.
func (s *Server) Item(itemID string) *fabric.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[itemID]; ok {
		copied := *it
		return &copied
	}
	return nil
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"errorCode": code,
		"message":   message,
		"requestId": uuid.NewString(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", fmt.Sprintf("malformed body: %v", err))
		return false
	}
	return true
}
