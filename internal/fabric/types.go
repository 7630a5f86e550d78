package fabric

import (
	"sort"
	"strings"
)

// Workspace is a Fabric workspace as returned by the v1 API.
type Workspace struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	// Type distinguishes "Personal" workspaces from regular ones and drives
	// sort order (personal first).
	Type       string `json:"type,omitempty"`
	CapacityID string `json:"capacityId,omitempty"`
}

// WorkspaceTypePersonal is the server-side marker for a user's My workspace.
const WorkspaceTypePersonal = "Personal"

// Item is a Fabric workspace item (notebook, report, lakehouse, ...).
// Identity is ID within a workspace; uniqueness of (DisplayName, Type) is
// enforced server-side, not here.
type Item struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	WorkspaceID string `json:"workspaceId"`
	FolderID    string `json:"folderId,omitempty"`
}

// Folder groups items inside a workspace. Folders form a tree via
// ParentFolderID; the client never persists them.
type Folder struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	WorkspaceID    string `json:"workspaceId"`
	ParentFolderID string `json:"parentFolderId,omitempty"`
}

// Capacity is a Fabric capacity available to the tenant.
type Capacity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	SKU         string `json:"sku,omitempty"`
	Region      string `json:"region,omitempty"`
	State       string `json:"state,omitempty"`
}

// DefinitionPart is one file of an item definition. Payload is base64 per the
// API convention; PayloadType is normally "InlineBase64".
type DefinitionPart struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"`
}

// ItemDefinition is the full definition of an item, a set of parts.
type ItemDefinition struct {
	Format string           `json:"format,omitempty"`
	Parts  []DefinitionPart `json:"parts"`
}

// OperationStatus is the state of a long-running operation.
type OperationStatus string

const (
	OperationRunning   OperationStatus = "Running"
	OperationSucceeded OperationStatus = "Succeeded"
	OperationFailed    OperationStatus = "Failed"
)

// OperationState is the poll body for a long-running operation. It is
// transient: tracked only for the duration of one polling loop.
type OperationState struct {
	Status OperationStatus       `json:"status"`
	Error  *OperationErrorDetail `json:"error,omitempty"`
}

// OperationErrorDetail carries the operation's own failure, distinct from
// transport failures encountered mid-poll.
type OperationErrorDetail struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// listEnvelope is the standard {value: [...]} list shape. Folder listing
// additionally pages via continuationToken.
type listEnvelope[T any] struct {
	Value             []T    `json:"value"`
	ContinuationToken string `json:"continuationToken,omitempty"`
}

// SortWorkspaces orders workspaces personal-first, then alphabetically by
// display name (case-insensitive). The sort is stable.
func SortWorkspaces(ws []Workspace) {
	sort.SliceStable(ws, func(i, j int) bool {
		pi := ws[i].Type == WorkspaceTypePersonal
		pj := ws[j].Type == WorkspaceTypePersonal
		if pi != pj {
			return pi
		}
		return strings.ToLower(ws[i].DisplayName) < strings.ToLower(ws[j].DisplayName)
	})
}

// CreateWorkspaceRequest is the POST /v1/workspaces body.
type CreateWorkspaceRequest struct {
	DisplayName string `json:"displayName"`
	CapacityID  string `json:"capacityId,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateWorkspaceRequest is the PATCH /v1/workspaces/{id} body.
type UpdateWorkspaceRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateItemRequest is the POST /v1/workspaces/{wsId}/items body. Definition
// is only set for createWithDefinition.
type CreateItemRequest struct {
	DisplayName string          `json:"displayName"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	FolderID    string          `json:"folderId,omitempty"`
	Definition  *ItemDefinition `json:"definition,omitempty"`
}

// UpdateItemRequest is the PATCH item body.
type UpdateItemRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateItemDefinitionRequest is the POST .../updateDefinition body.
type UpdateItemDefinitionRequest struct {
	Definition ItemDefinition `json:"definition"`
}

// CreateFolderRequest is the POST .../folders body.
type CreateFolderRequest struct {
	DisplayName    string `json:"displayName"`
	ParentFolderID string `json:"parentFolderId,omitempty"`
}

// UpdateFolderRequest is the PATCH .../folders/{id} body.
type UpdateFolderRequest struct {
	DisplayName string `json:"displayName"`
}

// MoveFolderRequest is the POST .../folders/{id}/move body. An empty
// TargetFolderID moves the folder to the workspace root.
type MoveFolderRequest struct {
	TargetFolderID string `json:"targetFolderId,omitempty"`
}
