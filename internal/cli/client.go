package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) NewGame(ctx context.Context, playerID, name, difficulty string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games", map[string]any{
		"playerId":   playerID,
		"name":       name,
		"difficulty": difficulty,
	}, &out, "")
	return out, err
}

func (c *Client) Enter(ctx context.Context, playerID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(playerID, "enter"), nil, &out, "")
	return out, err
}

func (c *Client) State(ctx context.Context, playerID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, playerPath(playerID, "state"), nil, &out, "")
	return out, err
}

func (c *Client) Market(ctx context.Context, playerID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, playerPath(playerID, "market"), nil, &out, "")
	return out, err
}

func (c *Client) Events(ctx context.Context, playerID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, playerPath(playerID, "events"), nil, &out, "")
	return out, err
}

func (c *Client) Listings(ctx context.Context, playerID string, refresh bool) (map[string]any, error) {
	path := playerPath(playerID, "listings")
	if refresh {
		path += "?refresh=true"
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "")
	return out, err
}

func (c *Client) Progression(ctx context.Context, playerID string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, playerPath(playerID, "progression"), nil, &out, "")
	return out, err
}

func (c *Client) Buy(ctx context.Context, playerID, listingID string, mortgage bool, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(playerID, "actions/buy"), map[string]any{
		"listingId": listingID,
		"mortgage":  mortgage,
	}, &out, idem)
	return out, err
}

func (c *Client) SetStrategy(ctx context.Context, playerID, propertyID, strategy string, salePrice int64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(playerID, "actions/strategy"), map[string]any{
		"propertyId": propertyID,
		"strategy":   strategy,
		"salePrice":  salePrice,
	}, &out, idem)
	return out, err
}

func (c *Client) Renovate(ctx context.Context, playerID, propertyID, tier, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(playerID, "actions/renovate"), map[string]any{
		"propertyId": propertyID,
		"tier":       tier,
	}, &out, idem)
	return out, err
}

func (c *Client) Borrow(ctx context.Context, playerID, propertyID, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, playerPath(playerID, "actions/loan"), map[string]any{
		"propertyId": propertyID,
	}, &out, idem)
	return out, err
}

// Replay sends a queued command verbatim, for offline queue drains.
func (c *Client) Replay(ctx context.Context, method, path string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, bodyOrNil(body), &out, idem)
	return out, err
}

func bodyOrNil(body map[string]any) any {
	if len(body) == 0 {
		return nil
	}
	return body
}

func playerPath(playerID, tail string) string {
	return "/v1/players/" + url.PathEscape(playerID) + "/" + tail
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
