// Package refresh implements the single-flight token refresh coordinator.
// However many requests fail with 401 concurrently, at most one refresh call
// is ever in flight; every waiter observes exactly one outcome, either the
// new access token or the leader's error.
package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-admin-client/credentials"
	apperrors "github.com/jrsteele09/go-admin-client/internal/errors"
)

// DefaultTimeout bounds the refresh HTTP call. Without it a hung refresh
// would leave every queued request waiting indefinitely.
const DefaultTimeout = 30 * time.Second

// refreshKey is the single singleflight key: the refresh operation is
// process-wide, not per-request.
const refreshKey = "token-refresh"

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Coordinator serializes token refresh across concurrent request flows.
// The first caller that needs a refresh becomes the leader and performs the
// HTTP call on a dedicated client that bypasses the interceptor pipeline;
// callers arriving while the refresh is in flight share the leader's result.
//
// On any refresh failure (including a missing refresh token) the coordinator
// clears the credential store and notifies the registered session-expired
// callbacks; the session is not recoverable without a new login.
type Coordinator struct {
	endpoint   string
	store      credentials.Store
	httpClient *http.Client
	logger     zerolog.Logger

	group singleflight.Group

	mu        sync.Mutex
	onExpired []func(error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithHTTPClient sets the HTTP client used for the refresh call. The client
// must not route through the retry middleware, otherwise a 401 on the
// refresh call itself would recurse into another refresh.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Coordinator) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithTimeout sets the timeout for the refresh HTTP call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.httpClient.Timeout = timeout
	}
}

// NewCoordinator creates a Coordinator that posts to the given refresh
// endpoint and persists rotated pairs into store.
func NewCoordinator(endpoint string, store credentials.Store, options ...Option) *Coordinator {
	c := &Coordinator{
		endpoint:   endpoint,
		store:      store,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// OnSessionExpired registers a callback invoked exactly once per failed
// refresh cycle, after the credential store has been cleared.
func (c *Coordinator) OnSessionExpired(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

// Run obtains a fresh access token, coordinating with any concurrent
// callers. The caller that finds the coordinator idle performs the refresh;
// everyone else waits for that outcome. On success the rotated pair is
// already persisted when Run returns.
func (c *Coordinator) Run(ctx context.Context) (string, error) {
	result, err, shared := c.group.Do(refreshKey, func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug().Msg("token refresh outcome shared with concurrent caller")
	}
	return result.(string), nil
}

// refresh is the leader's path: one HTTP call, then an atomic
// persist-and-resolve (success) or clear-and-notify (failure).
func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	refreshToken := c.store.Refresh()
	if refreshToken == "" {
		return "", c.expire(apperrors.ErrNoRefreshToken)
	}

	pair, err := c.call(ctx, refreshToken)
	if err != nil {
		return "", c.expire(err)
	}

	c.store.Set(pair)
	c.logger.Debug().Msg("access token rotated")
	return pair.AccessToken, nil
}

// expire clears stored credentials and fans the failure out to the
// registered session-expired callbacks.
func (c *Coordinator) expire(cause error) error {
	c.store.Clear()
	c.logger.Warn().Err(cause).Msg("token refresh failed, session expired")

	c.mu.Lock()
	callbacks := make([]func(error), len(c.onExpired))
	copy(callbacks, c.onExpired)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(cause)
	}
	return fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, cause)
}

// call performs the refresh HTTP round trip outside the interceptor
// pipeline.
func (c *Coordinator) call(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return credentials.Pair{}, fmt.Errorf("marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return credentials.Pair{}, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return credentials.Pair{}, fmt.Errorf("refresh call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return credentials.Pair{}, apperrors.Wrapf(apperrors.ErrRefreshRejected, "refresh endpoint returned %d", resp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return credentials.Pair{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if parsed.AccessToken == "" {
		return credentials.Pair{}, apperrors.Wrapf(apperrors.ErrRefreshRejected, "refresh response missing access token")
	}

	return credentials.Pair{AccessToken: parsed.AccessToken, RefreshToken: parsed.RefreshToken}, nil
}
