package fabric

import "context"

// CapacitiesPath is the capacity collection endpoint.
const CapacitiesPath = "/v1/capacities"

// ListCapacities returns the capacities visible to the caller.
func (c *Client) ListCapacities(ctx context.Context) ([]Capacity, error) {
	resp, err := c.get(ctx, CapacitiesPath)
	if err != nil {
		return nil, err
	}
	if _, err := expectSuccess(resp); err != nil {
		return nil, err
	}

	var envelope listEnvelope[Capacity]
	if err := resp.DecodeJSON(&envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}
