// Package imgix is a client for the imgix Management API covering the
// surface the asset browser needs: listing Sources, paging and searching a
// Source's assets, and uploading new assets.
package imgix

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

	"github.com/imgix/contentful/internal/cache"
	"github.com/imgix/contentful/internal/logging"
	"github.com/imgix/contentful/internal/ratelimit"
)

const defaultBaseURL = "https://api.imgix.com/api/v1/"

// Config holds client construction options. BaseURL is overridable so tests
// can point the client at an httptest server.
type Config struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Limiter   ratelimit.RateLimiter
	Cache     cache.Cache
	CacheTTL  time.Duration
}

// Client talks to the imgix Management API.
type Client struct {
	apiKey    string
	baseURL   string
	userAgent string
	limiter   ratelimit.RateLimiter
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *logging.Logger
	http      *http.Client
}

// NewClient creates a Management API client.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "contentful-imgix-backend/1.0"
	}

	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		userAgent: userAgent,
		limiter:   cfg.Limiter,
		cache:     cfg.Cache,
		cacheTTL:  cfg.CacheTTL,
		logger:    logger,
		http:      &http.Client{Timeout: timeout},
	}
}

// request performs one Management API call and returns the raw response
// body. Non-2xx statuses become *APIError.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	fullURL := c.baseURL + path

	if c.limiter != nil {
		if u, err := url.Parse(fullURL); err == nil {
			c.limiter.Wait(u.Host)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imgix request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read imgix response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// getCached performs a GET through the response cache when one is
// configured. Cached values are the raw response bodies, so both cache
// backends behave identically.
func (c *Client) getCached(ctx context.Context, path, cacheKey string) ([]byte, error) {
	if c.cache != nil {
		if hit, ok := c.cache.Get(cacheKey); ok {
			if body, ok := hit.(string); ok {
				return []byte(body), nil
			}
		}
	}

	data, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if c.cacheTTL > 0 {
			c.cache.SetWithTTL(cacheKey, string(data), c.cacheTTL)
		} else {
			c.cache.Set(cacheKey, string(data))
		}
	}
	return data, nil
}

// InvalidateAssetPage drops one cached asset page, forcing the next fetch to
// hit the API. Called after a successful upload so the new asset appears.
func (c *Client) InvalidateAssetPage(sourceID, query string) {
	if c.cache != nil {
		c.cache.Delete(cache.AssetPageKey(sourceID, query))
	}
}

// Verify probes the API key by listing sources. It is the configuration
// screen's connectivity and permission check; any 2xx means the key works.
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodGet, "sources", nil)
	return err
}

// coerceDataArray normalizes the Management API's "single object or array"
// response ambiguity: a singleton result is returned unwrapped, so downstream
// code can never assume an array without this.
func coerceDataArray(data json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil
		}
		return items
	}
	return []json.RawMessage{trimmed}
}
