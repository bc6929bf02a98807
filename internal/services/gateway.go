// Gateway: the single configured HTTP client for the iVideo backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultBaseURL   = "http://localhost:8001"
	defaultLoginPath = "/login"
)

// GatewayOpts contains configuration options for creating a [Gateway].
type GatewayOpts struct {
	BaseURL   string                // Backend address (default: http://localhost:8001)
	Timeout   time.Duration         // Per-request timeout (default: [shared.DefaultTimeout])
	Transport http.RoundTripper     // Base transport (default: [http.DefaultTransport])
	Store     storage.KeyValueStore // Persisted session cleared on 401
	Bus       *events.Bus           // Receives [events.ForceLogout]
	Logger    *log.Logger
	Registry  *prometheus.Registry // Metrics registry (default: a fresh registry)
	LoginPath string               // Redirect target on 401 (default: /login)
}

// Gateway issues every backend request through one configured client.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	store      storage.KeyValueStore
	bus        *events.Bus
	logger     *log.Logger
	registry   *prometheus.Registry
	metrics    *gatewayMetrics
	loginPath  string

	mu      sync.RWMutex
	session Session
}

// NewGateway creates a [Gateway] with both interceptors installed on its client.
func NewGateway(opts GatewayOpts) *Gateway {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = shared.DefaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.LoginPath == "" {
		opts.LoginPath = defaultLoginPath
	}

	g := &Gateway{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		store:     opts.Store,
		bus:       opts.Bus,
		logger:    shared.WithLogger(opts.Logger, "component", "gateway"),
		registry:  opts.Registry,
		metrics:   newGatewayMetrics(opts.Registry),
		loginPath: opts.LoginPath,
	}

	outbound := &bearerTransport{next: opts.Transport, source: boundSource{g}}
	inbound := &unauthorizedTransport{next: outbound, onUnauthorized: g.handleUnauthorized}

	g.httpClient = &http.Client{
		Transport: inbound,
		Timeout:   opts.Timeout,
	}

	return g
}

// Bind attaches the in-memory session the interceptors read from and invalidate.
func (g *Gateway) Bind(s Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = s
}

func (g *Gateway) boundSession() Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// BaseURL returns the configured backend address.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Timeout returns the client timeout.
func (g *Gateway) Timeout() time.Duration {
	return g.httpClient.Timeout
}

// Registry returns the registry holding the gateway's metrics.
func (g *Gateway) Registry() *prometheus.Registry {
	return g.registry
}

// handleUnauthorized runs the 401 side effects: clear persisted session, drop in-memory session, force logout.
func (g *Gateway) handleUnauthorized(req *http.Request) {
	if g.store != nil {
		if err := storage.ClearSession(g.store); err != nil {
			g.logger.Error("failed to clear persisted session", "error", err)
		}
	}

	if s := g.boundSession(); s != nil {
		s.Invalidate()
	}

	g.metrics.forcedLogouts.Inc()
	g.logger.Warn("credential rejected, forcing logout", "method", req.Method, "path", req.URL.Path)

	g.bus.Publish(events.Event{
		Kind:  events.ForceLogout,
		Path:  g.loginPath,
		Cause: fmt.Errorf("%w: %s %s", shared.ErrNotAuthenticated, req.Method, req.URL.Path),
	})
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string // backend "detail" message, when present
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("API error: status %d", e.StatusCode)
}

// Unwrap lets [errors.Is] match [shared.ErrAPIRequest] for every status and
// [shared.ErrNotAuthenticated] for 401.
func (e *APIError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized {
		return []error{shared.ErrNotAuthenticated, shared.ErrAPIRequest}
	}
	return []error{shared.ErrAPIRequest}
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Detail: parseDetail(body), Body: body}
}

// parseDetail extracts the backend's error message from {"detail": "..."} or, for validation errors,
// {"detail": [{"msg": "..."}]}.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}

	return ""
}

// Detail returns the backend message carried by err, or "" when err is not an [*APIError] or has none.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

// send issues r through the configured client and returns the raw response body.
func (g *Gateway) send(ctx context.Context, r request) (*http.Response, []byte, error) {
	fullURL := g.baseURL + r.path
	if len(r.query) > 0 {
		fullURL += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, fullURL, r.body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, shared.GenerateID())

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			g.metrics.requests.WithLabelValues(r.method, "timeout").Inc()
			return nil, nil, fmt.Errorf("%w: %s %s: %w", shared.ErrTimeout, r.method, r.path, err)
		}
		g.metrics.requests.WithLabelValues(r.method, "error").Inc()
		return nil, nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, r.method, r.path, err)
	}
	defer resp.Body.Close()

	g.metrics.requests.WithLabelValues(r.method, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	g.logger.Debug("request", "method", r.method, "path", r.path, "status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader), "duration", time.Since(start))

	return resp, body, nil
}

// do issues r and decodes a 2xx JSON body into out. Non-2xx statuses become [*APIError].
func (g *Gateway) do(ctx context.Context, r request, out any) error {
	resp, body, err := g.send(ctx, r)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw performs a request against path through the configured client and returns the undecoded response.
//
// Both interceptors run as for any other call, but non-2xx statuses are returned as a response, not an error.
func (g *Gateway) Raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	r := request{method: method, path: path}
	if data != nil {
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}

	resp, body, err := g.send(ctx, r)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
