// Package meridian provides a Go client for the meridian-server API.
package meridian

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"meridian/internal/httpapi"
)

// Client talks to a running meridian-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Assets lists the assets with stored price data.
func (c *Client) Assets(ctx context.Context) ([]string, error) {
	var out httpapi.AssetsResponse
	if err := c.get(ctx, "/api/assets", nil, &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

// Backtest runs a single-window backtest for the asset. window <= 0 and
// frequency == "" fall back to the server's configured defaults.
func (c *Client) Backtest(ctx context.Context, asset string, window int, frequency string) (*httpapi.BacktestResponse, error) {
	q := url.Values{}
	if window > 0 {
		q.Set("window", strconv.Itoa(window))
	}
	if frequency != "" {
		q.Set("frequency", frequency)
	}
	var out httpapi.BacktestResponse
	if err := c.get(ctx, "/api/backtest/"+url.PathEscape(asset), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Optimize runs a grid search for the asset over the server's configured
// window range.
func (c *Client) Optimize(ctx context.Context, asset string) (*httpapi.OptimizeResponse, error) {
	var out httpapi.OptimizeResponse
	if err := c.get(ctx, "/api/optimize/"+url.PathEscape(asset), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs a GET request and decodes the JSON response, translating
// non-2xx statuses into errors carrying the server's message.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
