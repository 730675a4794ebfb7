// Package transport is the single path every remote call takes. It attaches
// the bearer credential on the way out and classifies every response into the
// failure taxonomy on the way back.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/metrics"
	"github.com/p-blackswan/taskboard/internal/requestid"
	"github.com/p-blackswan/taskboard/internal/retry"
)

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider is queried on every call for the current bearer token. An
// empty token means the call goes out unauthenticated.
type TokenProvider interface {
	Token() string
}

// InvalidationFunc is notified once per 401 response.
type InvalidationFunc func(ctx context.Context)

// Client wraps the remote service's JSON API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	tokens     TokenProvider
	metrics    *metrics.Metrics
	retry      retry.Policy
	logger     zerolog.Logger

	mu        sync.RWMutex
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn InvalidationFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// WithMetrics records request counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRetry re-issues failed GETs under p. Writes are never retried.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// New creates a client for the service at baseURL. tokens may be nil.
func New(baseURL string, tokens TokenProvider, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
		logger:     logger.With().Str("component", "transport").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL of the remote service.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnInvalidated subscribes fn to "authentication invalidated" events and
// returns a function that removes the subscription. Subscribers run in
// subscription order.
func (c *Client) OnInvalidated(fn InvalidationFunc) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Get issues a GET and decodes the body into out (which may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with in encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Put issues a PUT with in encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do executes one call. Remote failures come back as *errors.APIError.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	if method != http.MethodGet || !c.retry.Enabled() {
		return c.do(ctx, method, path, in, out)
	}
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.do(ctx, method, path, in, out)
	}, func(attempt int, err error) {
		c.logger.Debug().Str("path", path).Int("attempt", attempt).Err(err).Msg("retrying request")
	})
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	reqID := c.prepare(req)
	log := c.logger.With().Str("method", method).Str("path", path).Str("request_id", reqID).Logger()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(method, time.Since(start).Seconds())
	if err != nil {
		apiErr := &perrors.APIError{
			Kind:    perrors.KindNetworkUnavailable,
			Message: perrors.ErrNetworkUnavailable.Error(),
			Err:     err,
		}
		c.metrics.RecordRequest(method, string(apiErr.Kind))
		log.Warn().Err(err).Msg("no response from remote")
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := &perrors.APIError{
			Kind:       perrors.KindNetworkUnavailable,
			StatusCode: resp.StatusCode,
			Message:    perrors.ErrNetworkUnavailable.Error(),
			Err:        fmt.Errorf("reading response body: %w", err),
		}
		c.metrics.RecordRequest(method, string(apiErr.Kind))
		return apiErr
	}

	if apiErr := c.classify(ctx, method, path, resp.StatusCode, data); apiErr != nil {
		c.metrics.RecordRequest(method, string(apiErr.Kind))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("kind", string(apiErr.Kind)).
			Msg(apiErr.Message)
		return apiErr
	}

	c.metrics.RecordRequest(method, "ok")
	log.Debug().Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("remote call")

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// prepare is the outbound interception point.
func (c *Client) prepare(req *http.Request) string {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	return requestid.Apply(req)
}

func (c *Client) emitInvalidated(ctx context.Context) {
	c.mu.RLock()
	fns := make([]InvalidationFunc, 0, len(c.listeners))
	for _, l := range c.listeners {
		fns = append(fns, l.fn)
	}
	c.mu.RUnlock()

	c.metrics.RecordInvalidation()
	for _, fn := range fns {
		fn(ctx)
	}
}
