// Package session exposes the session lifecycle to the presentation layer:
// bootstrap on startup, explicit login/logout, silent principal re-fetch,
// and forced logout when the refresh coordinator declares the session dead.
// Consumers observe state through snapshots and change subscriptions; typed
// errors from the auth layer collapse to user-facing messages here.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-admin-client/auth"
	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/jrsteele09/go-admin-client/refresh"
)

// SessionExpiredMessage is shown when a refresh failure forces a logout.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// DefaultLoginRoute is where the user agent is sent on forced logout.
const DefaultLoginRoute = "/login"

// Status is the session lifecycle state.
type Status int

const (
	// StatusBootstrapping is the initial state while stored credentials
	// are being validated.
	StatusBootstrapping Status = iota

	// StatusAuthenticating is the transient state during an explicit login.
	StatusAuthenticating

	// StatusAuthenticated holds a privileged principal.
	StatusAuthenticated

	// StatusUnauthenticated is the terminal state of logout, denial, and
	// failed bootstrap.
	StatusUnauthenticated
)

// String makes Status satisfy fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusBootstrapping:
		return "bootstrapping"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is the snapshot republished to the presentation layer.
type State struct {
	Principal *auth.Principal
	Status    Status
	Err       string // user-facing message, empty when none
}

// IsAuthenticated holds exactly when a privileged principal is present.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Principal.IsPrivileged()
}

// IsLoading holds during bootstrap and explicit login.
func (s State) IsLoading() bool {
	return s.Status == StatusBootstrapping || s.Status == StatusAuthenticating
}

// Controller is the session state machine. All transitions run under one
// mutex; listeners are notified outside it, in transition order.
type Controller struct {
	authClient *auth.Client
	store      credentials.Store
	logger     zerolog.Logger
	navigate   func(route string)
	loginRoute string

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithNavigator sets the callback that moves the user agent to a route on
// forced logout. The default is a no-op.
func WithNavigator(navigate func(route string)) Option {
	return func(c *Controller) {
		c.navigate = navigate
	}
}

// WithLoginRoute overrides the route used on forced logout.
func WithLoginRoute(route string) Option {
	return func(c *Controller) {
		c.loginRoute = route
	}
}

// NewController creates a Controller in the Bootstrapping state and
// registers it with the coordinator for forced logout on refresh failure.
func NewController(authClient *auth.Client, store credentials.Store, coordinator *refresh.Coordinator, options ...Option) *Controller {
	c := &Controller{
		authClient: authClient,
		store:      store,
		logger:     zerolog.Nop(),
		navigate:   func(string) {},
		loginRoute: DefaultLoginRoute,
		state:      State{Status: StatusBootstrapping},
	}
	for _, opt := range options {
		opt(c)
	}
	coordinator.OnSessionExpired(c.forceLogout)
	return c
}

// State returns a snapshot of the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsAuthenticated is a convenience over State().
func (c *Controller) IsAuthenticated() bool {
	return c.State().IsAuthenticated()
}

// OnChange registers a listener invoked on every state transition.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Bootstrap resolves the initial session state. With no stored credentials
// it settles on Unauthenticated without any network call; otherwise the
// stored pair is validated against the server and gated by role.
func (c *Controller) Bootstrap(ctx context.Context) {
	if !c.store.Exists() {
		c.setState(State{Status: StatusUnauthenticated})
		return
	}

	principal, err := c.authClient.CurrentUser(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("bootstrap did not restore a session")
		c.setState(State{Status: StatusUnauthenticated})
		return
	}
	c.logger.Info().Str("user_id", principal.ID).Msg("session restored")
	c.setState(State{Principal: principal, Status: StatusAuthenticated})
}

// Login runs an explicit login. The transient Authenticating state is
// published before the network call; the controller never remains in it.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.setState(State{Status: StatusAuthenticating})

	result, err := c.authClient.Login(ctx, email, password)
	if err != nil {
		message := SessionFailureMessage(result)
		c.setState(State{Status: StatusUnauthenticated, Err: message})
		return err
	}

	c.setState(State{Principal: result.Principal, Status: StatusAuthenticated})
	return nil
}

// Logout ends the session. The local state is always reset, whether or not
// the server-side invalidation succeeded.
func (c *Controller) Logout(ctx context.Context) {
	c.authClient.Logout(ctx)
	c.setState(State{Status: StatusUnauthenticated})
}

// RefreshCurrentUser silently re-fetches the principal, replacing the cached
// copy wholesale on success. Failures leave the state untouched: a transient
// fetch error must never demote an authenticated session. Loading flags are
// not altered either way.
func (c *Controller) RefreshCurrentUser(ctx context.Context) {
	principal, err := c.authClient.Me(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("silent principal re-fetch failed, keeping current state")
		return
	}
	if !principal.IsPrivileged() {
		// Role revocation is handled by the next bootstrap or 401, not by a
		// silent re-fetch.
		c.logger.Warn().Str("user_id", principal.ID).Msg("re-fetched principal lost privileged role")
		return
	}

	c.mu.Lock()
	if c.state.Status != StatusAuthenticated {
		c.mu.Unlock()
		return
	}
	c.state.Principal = principal
	state := c.state
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// forceLogout is invoked by the refresh coordinator after it has cleared the
// credential store. It surfaces as a session-level error, not as an error of
// any individual request, and navigates to the login route.
func (c *Controller) forceLogout(cause error) {
	c.logger.Warn().Err(cause).Msg("forced logout")
	c.setState(State{Status: StatusUnauthenticated, Err: SessionExpiredMessage})
	c.navigate(c.loginRoute)
}

// setState replaces the state and notifies listeners outside the lock.
func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// SessionFailureMessage extracts the user-facing message from a failed login
// result, falling back to a generic one.
func SessionFailureMessage(result *auth.LoginResult) string {
	if result != nil && result.Message != "" {
		return result.Message
	}
	return "Login failed. Please try again."
}
