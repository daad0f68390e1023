package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Candidate is one host-side match for a component search.
type Candidate struct {
	GUID     string   `json:"guid"`
	Name     string   `json:"name"`
	Library  string   `json:"library"`
	Obsolete bool     `json:"obsolete"`
	Inputs   []string `json:"inputs,omitempty"`
	Outputs  []string `json:"outputs,omitempty"`
}

// Search asks the host for component candidates matching query. Candidate
// order is the host's ranking; the client does not reorder.
func (c *Client) Search(ctx context.Context, query string) ([]Candidate, error) {
	data, err := c.do(ctx, c.queryTimeout, "search_components", map[string]any{
		"query": query,
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Candidates []Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("bridge: decode candidates: %w", err)
	}
	return out.Candidates, nil
}

// Create places a component of the given type at (x, y) and returns the
// host-assigned instance identifier.
func (c *Client) Create(ctx context.Context, guid string, x, y float64) (string, error) {
	data, err := c.do(ctx, c.commandTimeout, "create_component", map[string]any{
		"guid": guid,
		"x":    x,
		"y":    y,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("bridge: decode create response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("bridge: create_component returned no id")
	}
	c.logger.Debug("bridge: component created", slog.String("guid", guid), slog.String("id", out.ID))
	return out.ID, nil
}

// Delete removes a component by host id and reports whether the host
// confirmed the deletion.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	data, err := c.do(ctx, c.commandTimeout, "delete_component", map[string]any{
		"id": id,
	})
	if err != nil {
		return false, err
	}
	var out struct {
		Deleted bool `json:"deleted"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return false, fmt.Errorf("bridge: decode delete response: %w", err)
	}
	return out.Deleted, nil
}
