// Package transport provides the HTTP client every dashboard call rides on:
// a base endpoint, default headers, and an ordered middleware pipeline that
// attaches credentials, logs round trips, and recovers from expired access
// tokens via the refresh coordinator. Business endpoints are opaque
// passengers here; only their status codes matter to this layer.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-admin-client/credentials"
	apperrors "github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/refresh"
)

// DefaultTimeout bounds ordinary requests, including the single retried
// send after a token refresh.
const DefaultTimeout = 30 * time.Second

// Client is the authenticated HTTP client for the dashboard API.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	timeout       time.Duration
	logger        zerolog.Logger
	headers       http.Header
	baseTransport http.RoundTripper
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(s *clientSettings) {
		s.timeout = timeout
	}
}

// WithLogger sets the logger used by the client and its middleware.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(s *clientSettings) {
		s.logger = logger
	}
}

// WithHeader adds a default header sent on every request.
func WithHeader(key, value string) ClientOption {
	return func(s *clientSettings) {
		s.headers.Set(key, value)
	}
}

// WithBaseTransport replaces the underlying RoundTripper beneath the
// middleware chain (primarily for tests).
func WithBaseTransport(rt http.RoundTripper) ClientOption {
	return func(s *clientSettings) {
		s.baseTransport = rt
	}
}

// New creates a Client for the given base URL. Every request passes through
// the pipeline: request-ID/logging, 401 recovery via coordinator, bearer
// attach (in that order, outermost first). Server session cookies are
// retained in a jar and forwarded alongside the bearer header.
func New(baseURL string, store credentials.Store, coordinator *refresh.Coordinator, options ...ClientOption) *Client {
	settings := &clientSettings{
		timeout:       DefaultTimeout,
		logger:        zerolog.Nop(),
		headers:       http.Header{},
		baseTransport: http.DefaultTransport,
	}
	for _, opt := range options {
		opt(settings)
	}

	jar, _ := cookiejar.New(nil)
	pipeline := Chain(settings.baseTransport,
		RequestLog(settings.logger),
		RetryOn401(coordinator, settings.logger),
		BearerAuth(store),
	)

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		headers: settings.headers,
		httpClient: &http.Client{
			Timeout:   settings.timeout,
			Jar:       jar,
			Transport: pipeline,
		},
		logger: settings.logger,
	}
}

// BaseURL returns the configured API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint joins a path onto the base URL.
func (c *Client) Endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// StatusError is returned for any non-2xx response. It carries the server's
// message when the body contains one.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Unwrap maps well-known status codes onto the client's error taxonomy.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	default:
		return nil
	}
}

// NewRequest builds a JSON request against the API. Bodies are buffered so
// the pipeline can replay them on a post-refresh retry.
func (c *Client) NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Do executes the request and decodes a JSON response into out (when out is
// non-nil). Non-2xx responses become a *StatusError.
func (c *Client) Do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeStatusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	req, err := c.NewRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	req, err := c.NewRequest(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	req, err := c.NewRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.Do(req, nil)
}

// decodeStatusError extracts the server's error message when present.
func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&parsed); err == nil {
		statusErr.Message = parsed.Message
	}
	return statusErr
}
