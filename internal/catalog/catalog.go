package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Item is one selectable sticker or emoji: a display name and the image
// URL participants place on the canvas.
type Item struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Client fetches the hosted sticker and emoji catalogs.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a catalog client for the given base URL.
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Stickers lists the sticker catalog.
func (c *Client) Stickers(ctx context.Context) ([]Item, error) {
	return c.list(ctx, "stickers")
}

// Emojis lists the emoji catalog.
func (c *Client) Emojis(ctx context.Context) ([]Item, error) {
	return c.list(ctx, "emojis")
}

func (c *Client) list(ctx context.Context, path string) ([]Item, error) {
	endpoint, err := url.JoinPath(c.base, path)
	if err != nil {
		return nil, fmt.Errorf("catalog url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return items, nil
}
