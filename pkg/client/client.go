package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/naveenspark/busdesk/internal/metrics"
)

const requestIDHeader = "X-Request-Id"

// TokenSource yields the bearer token to attach to a request. It is consulted on
// every request so a token refreshed mid-session is picked up immediately.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Refresher obtains a fresh token after the API rejected the current one.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without a cookie
// jar cannot carry the refresh cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "client").Logger() }
}

// WithMetrics records request and retry counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client is the admin API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	metrics    *metrics.Metrics

	mu        sync.RWMutex
	tokens    TokenSource
	refresher Refresher
}

// New creates a new API client. tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New never fails with nil options
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource replaces the source of bearer tokens. The session store is
// built on top of the client, so it is attached after construction.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// SetRefresher installs the hook invoked once per request on a 401 response.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

func (c *Client) currentRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// request is one logical API call. The encoded body is kept so the call can be
// replayed after a refresh.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	anonymous   bool // send no bearer token
	noRetry     bool // never hand a 401 to the refresher
	retried     bool
}

func (c *Client) newRequest(method, path string, payload any) (*request, error) {
	r := &request{method: method, path: path}
	if payload == nil {
		return r, nil
	}
	if mp, ok := payload.(*Multipart); ok {
		body, contentType, err := mp.encode()
		if err != nil {
			return nil, fmt.Errorf("encode multipart: %w", err)
		}
		r.body, r.contentType = body, contentType
		return r, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	r.body, r.contentType = data, "application/json"
	return r, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	r, err := c.newRequest(method, path, body)
	if err != nil {
		return err
	}
	return c.do(ctx, r, out)
}

// do sends r and, on a first 401, refreshes the session and replays r once.
func (c *Client) do(ctx context.Context, r *request, out any) error {
	err := c.send(ctx, r, out)
	if err == nil || r.noRetry || r.retried || !IsUnauthorized(err) {
		return err
	}
	refresher := c.currentRefresher()
	if refresher == nil {
		return err
	}

	r.retried = true
	if refreshErr := refresher.Refresh(ctx); refreshErr != nil {
		c.log.Debug().Err(refreshErr).Str("path", r.path).Msg("refresh failed, not retrying")
		return err
	}
	c.metrics.ObserveRetry()
	return c.send(ctx, r, out)
}

func (c *Client) send(ctx context.Context, r *request, out any) error {
	var reqBody io.Reader
	if r.body != nil {
		reqBody = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	if !r.anonymous {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(r.method, 0)
		c.log.Debug().Err(err).Str("request_id", requestID).Str("method", r.method).Str("path", r.path).Msg("api request failed")
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.metrics.ObserveRequest(r.method, resp.StatusCode)
	c.log.Debug().
		Str("request_id", requestID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Bool("retry", r.retried).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if apiErr.Error != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
			}
			if apiErr.Message != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Message}
			}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(respBody))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
