// Copyright 2025 The kagent Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "kagent-harvester/1.0"

// Config holds connection settings for the search index.
type Config struct {
	// BaseURL is the index endpoint, e.g. "https://es.example.org:9200".
	BaseURL string

	// Username and Password are basic-auth credentials. Both empty
	// disables authentication.
	Username string
	Password string

	// Timeout bounds each HTTP call to the index. A timed-out call is
	// a transient failure and eligible for retry.
	Timeout time.Duration

	// KeepAlive is the PIT snapshot validity window requested on open
	// and extended on every search.
	KeepAlive time.Duration

	// RequestsPerSecond limits the sustained request rate against the
	// index. Zero disables client-side rate limiting.
	RequestsPerSecond float64
}

// DefaultConfig returns a Config with sensible defaults. BaseURL and
// credentials still have to be supplied.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           90 * time.Second,
		KeepAlive:         2 * time.Minute,
		RequestsPerSecond: 10,
	}
}

// ConfigFromEnv builds a Config from KAGENT_INDEX_URL,
// KAGENT_INDEX_USERNAME and KAGENT_INDEX_PASSWORD. Credentials are
// provisioned out-of-band; they are never part of pipeline state.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = os.Getenv("KAGENT_INDEX_URL")
	cfg.Username = os.Getenv("KAGENT_INDEX_USERNAME")
	cfg.Password = os.Getenv("KAGENT_INDEX_PASSWORD")
	return cfg
}

// Client talks to an Elasticsearch-compatible index over HTTP.
type Client struct {
	cfg     *Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client for the configured index.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("index base URL required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid index base URL: %w", err)
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// pitRef references an open point-in-time snapshot in a search
// request. KeepAlive extends the snapshot on every use.
type pitRef struct {
	ID        string `json:"id"`
	KeepAlive string `json:"keep_alive"`
}

// SearchRequest is one page request against a PIT snapshot.
type SearchRequest struct {
	Size        int                 `json:"size"`
	PIT         pitRef              `json:"pit"`
	Sort        []map[string]string `json:"sort"`
	SearchAfter []json.RawMessage   `json:"search_after,omitempty"`
}

// Hit is one document in a search response.
type Hit struct {
	ID     string            `json:"_id"`
	Source map[string]any    `json:"_source"`
	Sort   []json.RawMessage `json:"sort"`
}

// SearchResponse is the page of hits returned for a SearchRequest.
type SearchResponse struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// OpenPIT establishes a point-in-time snapshot of indexName and
// returns its opaque token.
func (c *Client) OpenPIT(ctx context.Context, indexName string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/_pit?keep_alive=%s", c.cfg.BaseURL, indexName, keepAliveParam(c.cfg.KeepAlive))
	body, err := c.do(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open PIT for %s: %w", indexName, err)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode PIT response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("index returned empty PIT id for %s", indexName)
	}
	return resp.ID, nil
}

// ClosePIT releases a point-in-time snapshot.
func (c *Client) ClosePIT(ctx context.Context, pitID string) error {
	payload, err := json.Marshal(map[string]string{"id": pitID})
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodDelete, c.cfg.BaseURL+"/_pit", payload); err != nil {
		return fmt.Errorf("failed to close PIT: %w", err)
	}
	return nil
}

// Search executes one page read against an open PIT snapshot.
// Returns ErrCursorExpired when the snapshot's validity window has
// elapsed.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/_search", payload)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &resp, nil
}

// KeepAlive returns the configured snapshot validity window.
func (c *Client) KeepAlive() time.Duration {
	return c.cfg.KeepAlive
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Username != "" || c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		if isExpiredContext(resp.StatusCode, body) {
			return nil, fmt.Errorf("%w: %s", ErrCursorExpired, http.StatusText(resp.StatusCode))
		}
		return nil, fmt.Errorf("index returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// isExpiredContext recognizes the index's report of an invalidated
// search context. Elasticsearch answers a search against a lapsed PIT
// with 404 and a search_context_missing_exception body.
func isExpiredContext(status int, body []byte) bool {
	if status != http.StatusNotFound && status != http.StatusGone {
		return false
	}
	return bytes.Contains(body, []byte("search_context_missing")) ||
		bytes.Contains(body, []byte("No search context found"))
}

func keepAliveParam(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
