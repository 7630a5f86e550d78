package fabric

import (
	"context"
	"fmt"
	"net/url"
)

// FoldersPath returns the folder collection endpoint for a workspace.
func FoldersPath(workspaceID string) string {
	return fmt.Sprintf("%s/%s/folders", WorkspacesPath, workspaceID)
}

// FolderPath returns the endpoint for one folder.
func FolderPath(workspaceID, folderID string) string {
	return fmt.Sprintf("%s/%s", FoldersPath(workspaceID), folderID)
}

// ListFolders returns every folder of a workspace, following continuation
// tokens until the listing is exhausted.
func (c *Client) ListFolders(ctx context.Context, workspaceID string) ([]Folder, error) {
	var out []Folder
	token := ""

	for {
		path := FoldersPath(workspaceID)
		if token != "" {
			path += "?continuationToken=" + url.QueryEscape(token)
		}

		resp, err := c.get(ctx, path)
		if err != nil {
			return nil, err
		}
		if _, err := expectSuccess(resp); err != nil {
			return nil, err
		}

		var envelope listEnvelope[Folder]
		if err := resp.DecodeJSON(&envelope); err != nil {
			return nil, err
		}
		out = append(out, envelope.Value...)

		if envelope.ContinuationToken == "" {
			return out, nil
		}
		token = envelope.ContinuationToken
	}
}

// CreateFolder creates a folder, optionally nested under a parent.
func (c *Client) CreateFolder(ctx context.Context, workspaceID string, req CreateFolderRequest) (*Folder, error) {
	resp, err := c.post(ctx, FoldersPath(workspaceID), req)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var folder Folder
	if err := resp.DecodeJSON(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder renames a folder.
func (c *Client) UpdateFolder(ctx context.Context, workspaceID, folderID string, req UpdateFolderRequest) (*Folder, error) {
	resp, err := c.patch(ctx, FolderPath(workspaceID, folderID), req)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var folder Folder
	if err := resp.DecodeJSON(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// MoveFolder reparents a folder; an empty target moves it to workspace root.
func (c *Client) MoveFolder(ctx context.Context, workspaceID, folderID string, req MoveFolderRequest) (*Folder, error) {
	resp, err := c.post(ctx, FolderPath(workspaceID, folderID)+"/move", req)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var folder Folder
	if err := resp.DecodeJSON(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder removes an empty folder.
func (c *Client) DeleteFolder(ctx context.Context, workspaceID, folderID string) error {
	resp, err := c.delete(ctx, FolderPath(workspaceID, folderID))
	if err != nil {
		return err
	}
	_, err = expectSuccess(resp)
	return err
}
