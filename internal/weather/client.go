// Package weather proxies current-conditions lookups to the OpenWeather
// API, with a short-lived cache in front of the upstream.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps interactions with the OpenWeather API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Current fetches current conditions for the given coordinates and
// returns the upstream JSON payload verbatim.
func (c *Client) Current(ctx context.Context, lat, lon string) ([]byte, error) {
	query := url.Values{}
	query.Set("lat", lat)
	query.Set("lon", lon)
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")

	endpoint := fmt.Sprintf("%s/data/2.5/weather?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("weather: upstream returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
