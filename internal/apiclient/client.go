// Package apiclient talks to the REST backend that owns every record, schema,
// permission and export. It never caches result pages and never retries:
// failures surface as *APIError or *TransportError for the caller to display.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/tradedesk/internal/metrics"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a single backend round trip.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is read for parsing.
	maxErrorBody = 64 * 1024

	apiPrefix = "/api/v1"
)

// Config contains configuration for the backend client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin REST client over the backend API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a backend client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}, nil
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx. Every request made with
// the returned context is authenticated as that caller.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token carried by ctx, if any.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type requestIDKey struct{}

// WithRequestID attaches the inbound request id so backend calls can be
// correlated with the request that caused them.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id carried by ctx, or a new one.
func RequestIDFrom(ctx context.Context) string {
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		return id
	}
	return uuid.NewString()
}

// request describes one backend call.
type request struct {
	method   string
	path     string // relative to /api/v1, e.g. "/client/search"
	rawQuery string
	body     any
	endpoint string // metrics label
	accept   string
}

func (c *Client) url(path, rawQuery string) string {
	u := c.baseURL + apiPrefix + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// send performs the request and returns the response on 2xx. Non-2xx
// responses are consumed and converted into *APIError; the caller owns the
// body of a successful response.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.url(r.path, r.rawQuery)
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	requestID := RequestIDFrom(ctx)
	req.Header.Set("X-Request-ID", requestID)
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.BackendTransportFailure(r.endpoint, duration)
		c.logger.Error("backend request failed",
			"method", r.method,
			"endpoint", r.endpoint,
			"request_id", requestID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, &TransportError{Method: r.method, URL: c.baseURL + apiPrefix + r.path, Err: err}
	}

	metrics.BackendCall(r.endpoint, resp.StatusCode, duration)
	c.logger.Debug("backend request",
		"method", r.method,
		"endpoint", r.endpoint,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseErrorBody(resp.StatusCode, raw)
		c.logger.Info("backend returned error",
			"endpoint", r.endpoint,
			"status", apiErr.Status,
			"code", apiErr.Code,
		)
		return nil, apiErr
	}

	return resp, nil
}

// do performs a request and decodes a JSON body into out. An empty 2xx body
// leaves out untouched and reports decoded=false.
func (c *Client) do(ctx context.Context, r request, out any) (decoded bool, err error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &TransportError{Method: r.method, URL: c.baseURL + apiPrefix + r.path, Err: err}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s response: %w", r.endpoint, err)
	}
	return true, nil
}
