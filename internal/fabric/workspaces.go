package fabric

import (
	"context"
	"encoding/json"
	"fmt"
)

// WorkspacesPath is the workspace collection endpoint.
const WorkspacesPath = "/v1/workspaces"

// WorkspacePath returns the endpoint for one workspace.
func WorkspacePath(workspaceID string) string {
	return fmt.Sprintf("%s/%s", WorkspacesPath, workspaceID)
}

// ListWorkspaces returns all workspaces visible to the caller, sorted
// personal-first then alphabetically. The API returns either a {value: [...]}
// envelope or a bare array depending on surface; both are accepted.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	resp, err := c.get(ctx, WorkspacesPath)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	ws, err := decodeWorkspaceList(resp.Body)
	if err != nil {
		return nil, err
	}
	SortWorkspaces(ws)
	return ws, nil
}

func decodeWorkspaceList(body []byte) ([]Workspace, error) {
	var envelope listEnvelope[Workspace]
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Value != nil {
		return envelope.Value, nil
	}
	var bare []Workspace
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode workspace list: %w", err)
	}
	return bare, nil
}

// GetWorkspace fetches one workspace by id.
func (c *Client) GetWorkspace(ctx context.Context, workspaceID string) (*Workspace, error) {
	resp, err := c.get(ctx, WorkspacePath(workspaceID))
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var ws Workspace
	if err := resp.DecodeJSON(&ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// CreateWorkspace creates a workspace, optionally assigned to a capacity.
func (c *Client) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*Workspace, error) {
	resp, err := c.post(ctx, WorkspacesPath, req)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var ws Workspace
	if err := resp.DecodeJSON(&ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// UpdateWorkspace patches display name and/or description.
func (c *Client) UpdateWorkspace(ctx context.Context, workspaceID string, req UpdateWorkspaceRequest) (*Workspace, error) {
	resp, err := c.patch(ctx, WorkspacePath(workspaceID), req)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var ws Workspace
	if err := resp.DecodeJSON(&ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// DeleteWorkspace removes a workspace and everything in it.
func (c *Client) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	resp, err := c.delete(ctx, WorkspacePath(workspaceID))
	if err != nil {
		return err
	}
	_, err = expectSuccess(resp)
	return err
}
