package fabricfake

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mattjoyce/fabctl/internal/fabric"
)

func (s *Server) listCapacities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]fabric.Capacity, len(s.capacities))
	copy(out, s.capacities)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"value": out})
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]fabric.Workspace, 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		out = append(out, *ws)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"value": out})
}

func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var req fabric.CreateWorkspaceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "displayName is required")
		return
	}

	s.mu.Lock()
	for _, ws := range s.workspaces {
		if ws.DisplayName == req.DisplayName {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "WorkspaceNameAlreadyExists", "A workspace with this name already exists.")
			return
		}
	}
	ws := &fabric.Workspace{
		ID:          uuid.NewString(),
		DisplayName: req.DisplayName,
		Description: req.Description,
		Type:        "Workspace",
		CapacityID:  req.CapacityID,
	}
	s.workspaces[ws.ID] = ws
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")

	s.mu.Lock()
	ws, ok := s.workspaces[id]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "The workspace does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) updateWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")

	var req fabric.UpdateWorkspaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	ws, ok := s.workspaces[id]
	if ok {
		if req.DisplayName != "" {
			ws.DisplayName = req.DisplayName
		}
		if req.Description != "" {
			ws.Description = req.Description
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "The workspace does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workspaceID")

	s.mu.Lock()
	_, ok := s.workspaces[id]
	delete(s.workspaces, id)
	for itemID, item := range s.items {
		if item.WorkspaceID == id {
			delete(s.items, itemID)
			delete(s.definitions, itemID)
		}
	}
	for folderID, folder := range s.folders {
		if folder.WorkspaceID == id {
			delete(s.folders, folderID)
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "The workspace does not exist.")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	typeFilter := r.URL.Query().Get("type")

	s.mu.Lock()
	if _, ok := s.workspaces[workspaceID]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "The workspace does not exist.")
		return
	}
	out := make([]fabric.Item, 0)
	for _, item := range s.items {
		if item.WorkspaceID != workspaceID {
			continue
		}
		if typeFilter != "" && item.Type != typeFilter {
			continue
		}
		out = append(out, *item)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"value": out})
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	var req fabric.CreateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DisplayName == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "displayName and type are required")
		return
	}

	s.mu.Lock()
	if _, ok := s.workspaces[workspaceID]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "The workspace does not exist.")
		return
	}
	for _, item := range s.items {
		if item.WorkspaceID == workspaceID && item.Type == req.Type && item.DisplayName == req.DisplayName {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "ItemDisplayNameAlreadyInUse", "An item with this name and type already exists.")
			return
		}
	}

	item := &fabric.Item{
		ID:          uuid.NewString(),
		Type:        req.Type,
		DisplayName: req.DisplayName,
		Description: req.Description,
		WorkspaceID: workspaceID,
		FolderID:    req.FolderID,
	}
	s.items[item.ID] = item
	if req.Definition != nil {
		d := *req.Definition
		s.definitions[item.ID] = &d
	}
	async := req.Definition != nil
	s.mu.Unlock()

	if async {
		// Definition-bearing creation is a long-running operation.
		s.acceptOperation(w, *item)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item := s.lookupItem(w, r)
	if item == nil {
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var req fabric.UpdateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	item, ok := s.items[itemID]
	if ok {
		if req.DisplayName != "" {
			item.DisplayName = req.DisplayName
		}
		if req.Description != "" {
			item.Description = req.Description
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "ItemNotFound", "The item does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	_, ok := s.items[itemID]
	delete(s.items, itemID)
	delete(s.definitions, itemID)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "ItemNotFound", "The item does not exist.")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getDefinition(w http.ResponseWriter, r *http.Request) {
	item := s.lookupItem(w, r)
	if item == nil {
		return
	}

	s.mu.Lock()
	def, ok := s.definitions[item.ID]
	var copied fabric.ItemDefinition
	if ok {
		copied = *def
	}
	s.mu.Unlock()

	if !ok {
		copied = fabric.ItemDefinition{}
	}
	s.acceptOperation(w, map[string]any{"definition": copied})
}

func (s *Server) updateDefinition(w http.ResponseWriter, r *http.Request) {
	item := s.lookupItem(w, r)
	if item == nil {
		return
	}

	var req fabric.UpdateItemDefinitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	d := req.Definition
	s.definitions[item.ID] = &d
	s.mu.Unlock()

	s.acceptOperation(w, map[string]any{})
}

func (s *Server) lookupItem(w http.ResponseWriter, r *http.Request) *fabric.Item {
	workspaceID := chi.URLParam(r, "workspaceID")
	itemID := chi.URLParam(r, "itemID")

	s.mu.Lock()
	item, ok := s.items[itemID]
	var copied fabric.Item
	if ok {
		copied = *item
	}
	s.mu.Unlock()

	if !ok || copied.WorkspaceID != workspaceID {
		writeError(w, http.StatusNotFound, "ItemNotFound", "The item does not exist.")
		return nil
	}
	return &copied
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	s.mu.Lock()
	all := make([]fabric.Folder, 0)
	for _, folder := range s.folders {
		if folder.WorkspaceID == workspaceID {
			all = append(all, *folder)
		}
	}
	pageSize := s.folderPageSize
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := 0
	if token := r.URL.Query().Get("continuationToken"); token != "" {
		decoded, err := url.QueryUnescape(token)
		if err == nil {
			if n, err := strconv.Atoi(strings.TrimPrefix(decoded, "offset:")); err == nil {
				start = n
			}
		}
	}

	if pageSize <= 0 || start+pageSize >= len(all) {
		writeJSON(w, http.StatusOK, map[string]any{"value": all[min(start, len(all)):]})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"value":             all[start : start+pageSize],
		"continuationToken": "offset:" + strconv.Itoa(start+pageSize),
	})
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	var req fabric.CreateFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "displayName is required")
		return
	}

	s.mu.Lock()
	if _, ok := s.workspaces[workspaceID]; !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "WorkspaceNotFound", "The workspace does not exist.")
		return
	}
	folder := &fabric.Folder{
		ID:             uuid.NewString(),
		DisplayName:    req.DisplayName,
		WorkspaceID:    workspaceID,
		ParentFolderID: req.ParentFolderID,
	}
	s.folders[folder.ID] = folder
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, folder)
}

func (s *Server) updateFolder(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")

	var req fabric.UpdateFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	folder, ok := s.folders[folderID]
	if ok && req.DisplayName != "" {
		folder.DisplayName = req.DisplayName
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "FolderNotFound", "The folder does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (s *Server) moveFolder(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")

	var req fabric.MoveFolderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	folder, ok := s.folders[folderID]
	if ok {
		folder.ParentFolderID = req.TargetFolderID
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "FolderNotFound", "The folder does not exist.")
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")

	s.mu.Lock()
	_, ok := s.folders[folderID]
	delete(s.folders, folderID)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "FolderNotFound", "The folder does not exist.")
		return
	}
	w.WriteHeader(http.StatusOK)
}
