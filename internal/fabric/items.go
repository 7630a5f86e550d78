package fabric

import (
	"context"
	"fmt"
	"net/url"
)

// ItemsPath returns the item collection endpoint for a workspace.
func ItemsPath(workspaceID string) string {
	return fmt.Sprintf("%s/%s/items", WorkspacesPath, workspaceID)
}

// ItemPath returns the endpoint for one item.
func ItemPath(workspaceID, itemID string) string {
	return fmt.Sprintf("%s/%s", ItemsPath(workspaceID), itemID)
}

// ItemGetDefinitionPath returns the getDefinition endpoint (async).
func ItemGetDefinitionPath(workspaceID, itemID string) string {
	return ItemPath(workspaceID, itemID) + "/getDefinition"
}

// ItemUpdateDefinitionPath returns the updateDefinition endpoint (async).
func ItemUpdateDefinitionPath(workspaceID, itemID string) string {
	return ItemPath(workspaceID, itemID) + "/updateDefinition"
}

// ListItems returns the items of a workspace, optionally filtered by type.
// Mutations go through the workflow dispatcher, not this package.
func (c *Client) ListItems(ctx context.Context, workspaceID, itemType string) ([]Item, error) {
	path := ItemsPath(workspaceID)
	if itemType != "" {
		path += "?type=" + url.QueryEscape(itemType)
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var envelope listEnvelope[Item]
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// GetItem fetches one item by id.
func (c *Client) GetItem(ctx context.Context, workspaceID, itemID string) (*Item, error) {
	resp, err := c.get(ctx, ItemPath(workspaceID, itemID))
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var item Item
	if err := resp.DecodeJSON(&item); err != nil {
		return nil, err
	}
	return &item, nil
}
