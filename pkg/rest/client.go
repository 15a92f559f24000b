// Package rest implements the remote resource adapter: CRUD verbs mapped to
// REST calls against a resource-per-entity API. Responses carry the raw body;
// envelope unwrapping happens on extraction so APIs with and without a nested
// data key are served alike.
package rest

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

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// defaultTimeout bounds each remote call when the config does not say
// otherwise. The persistence coordinator sets no timeout of its own; this
// boundary is where stalled calls are cut off.
const defaultTimeout = 30 * time.Second

// Client performs REST calls against one API root. Resource names are
// appended per request: index/store use /resource, show/update/destroy use
// /resource/{id}.
type Client struct {
	baseURL string
	apiKey  string
	headers map[string]string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends the key as both apikey and Authorization bearer headers.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHeaders adds headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the given API root.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, types.ErrRemoteBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		http: &http.Client{Timeout: defaultTimeout},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewConfig creates a client from a RemoteConfig.
func NewConfig(cfg types.RemoteConfig, opts ...Option) (*Client, error) {
	base := []Option{WithAPIKey(cfg.APIKey), WithHeaders(cfg.Headers)}
	if cfg.TimeoutSeconds > 0 {
		base = append(base, WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// Index lists a resource collection: GET /resource.
func (c *Client) Index(ctx context.Context, resource string) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.resourceURL(resource), nil)
}

// Show fetches one resource: GET /resource/{id}.
func (c *Client) Show(ctx context.Context, resource string, id any) (*Response, error) {
	return c.do(ctx, http.MethodGet, c.entityURL(resource, id), nil)
}

// Store creates a resource: POST /resource.
func (c *Client) Store(ctx context.Context, resource string, data map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPost, c.resourceURL(resource), data)
}

// Update updates a resource: PUT /resource/{id}.
func (c *Client) Update(ctx context.Context, resource string, id any, data map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPut, c.entityURL(resource, id), data)
}

// Destroy deletes a resource: DELETE /resource/{id}.
func (c *Client) Destroy(ctx context.Context, resource string, id any) (*Response, error) {
	return c.do(ctx, http.MethodDelete, c.entityURL(resource, id), nil)
}

func (c *Client) resourceURL(resource string) string {
	return c.baseURL + "/" + url.PathEscape(resource)
}

func (c *Client) entityURL(resource string, id any) string {
	return c.resourceURL(resource) + "/" + url.PathEscape(fmt.Sprintf("%v", id))
}

func (c *Client) do(ctx context.Context, method, rawURL string, data map[string]any) (*Response, error) {
	var body io.Reader
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("url", rawURL).Msg("remote call failed")
		return nil, fmt.Errorf("%w: %v", types.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Msg("remote call")

	return &Response{Status: resp.StatusCode, Body: raw}, nil
}
