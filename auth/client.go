// Package auth implements the dashboard's auth client: login, logout and
// current-user lookup against the auth endpoints, with the role gate that
// narrows "authenticated" to the administrator role. Failures carry typed
// errors internally; collapsing to nil/boolean happens at the session layer.
package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-admin-client/credentials"
	apperrors "github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/token"
	"github.com/jrsteele09/go-admin-client/transport"
)

// AccessDeniedMessage is the user-facing message when valid credentials
// belong to a non-administrator.
const AccessDeniedMessage = "Access denied. Administrator privileges are required."

// InvalidCredentialsMessage is the user-facing message for a rejected login.
const InvalidCredentialsMessage = "Invalid email or password."

// Endpoint paths relative to the API base URL.
const (
	LoginPath   = "/auth/login"
	LogoutPath  = "/auth/logout"
	RefreshPath = "/auth/refresh"
	MePath      = "/auth/me"
	ProfilePath = "/auth/profile"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         *Principal `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Username        string `json:"username,omitempty"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// LoginResult is the outcome of a login attempt. Message is user-facing and
// only set on failure.
type LoginResult struct {
	Principal *Principal
	Success   bool
	Message   string
}

// Client performs the auth operations. It is the sole writer of the
// credential store on behalf of explicit user actions; the refresh
// coordinator writes on behalf of token rotation.
type Client struct {
	api    *transport.Client
	store  credentials.Store
	logger zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the auth client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an auth client on top of the transport.
func NewClient(api *transport.Client, store credentials.Store, options ...ClientOption) *Client {
	c := &Client{
		api:    api,
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login authenticates with email and password. On transport success the
// issued pair is stored, then the role gate applies: a non-administrator is
// fully logged out again and reported as denied, even though the server
// issued valid tokens. The returned error carries the failure class
// (ErrInvalidCredentials, ErrAccessDenied, or a transport error); the
// LoginResult carries the user-facing message.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp loginResponse
	err := c.api.Post(transport.ExemptFromRetry(ctx), LoginPath, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			c.logger.Debug().Str("email", email).Msg("login rejected")
			return &LoginResult{Message: InvalidCredentialsMessage}, apperrors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[Login] login request failed")
	}
	if resp.User == nil || resp.AccessToken == "" {
		return nil, errors.New("[Login] malformed login response")
	}

	c.store.Set(credentials.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})

	if !resp.User.IsPrivileged() {
		c.logger.Warn().Str("email", email).Str("role", string(resp.User.Role)).Msg("login denied by role gate")
		c.Logout(ctx)
		return &LoginResult{Message: AccessDeniedMessage}, apperrors.ErrAccessDenied
	}

	c.logger.Info().
		Str("user_id", resp.User.ID).
		Stringer("access_token", token.NewRedacted(resp.AccessToken)).
		Msg("login succeeded")
	return &LoginResult{Principal: resp.User, Success: true}, nil
}

// Logout invalidates the server-side session best-effort and always clears
// local credentials. It is idempotent and safe to call with nothing stored.
func (c *Client) Logout(ctx context.Context) {
	if c.store.Exists() {
		if err := c.api.Post(transport.ExemptFromRetry(ctx), LogoutPath, nil, nil); err != nil {
			c.logger.Warn().Err(err).Msg("server-side logout failed, clearing local session anyway")
		}
	}
	c.store.Clear()
}

// CurrentUser fetches the authenticated principal. Without stored
// credentials it short-circuits to ErrNoCredentials with no network call.
// A non-administrator principal forces a full logout. Transport failures
// clear credentials and surface as errors; the caller decides whether the
// distinction matters.
func (c *Client) CurrentUser(ctx context.Context) (*Principal, error) {
	if !c.store.Exists() {
		return nil, apperrors.ErrNoCredentials
	}

	principal, err := c.Me(ctx)
	if err != nil {
		c.store.Clear()
		return nil, errors.Wrap(err, "[CurrentUser] fetch failed")
	}
	if !principal.IsPrivileged() {
		c.logger.Warn().Str("user_id", principal.ID).Str("role", string(principal.Role)).Msg("session denied by role gate")
		c.Logout(ctx)
		return nil, apperrors.ErrAccessDenied
	}
	return principal, nil
}

// Me fetches the principal with no side effects on stored credentials. The
// session controller uses it for silent re-fetches that must never tear
// down the session on a transient failure.
func (c *Client) Me(ctx context.Context) (*Principal, error) {
	var principal Principal
	if err := c.api.Get(ctx, MePath, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// UpdateProfile submits profile changes and returns the server's replacement
// principal.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Principal, error) {
	var principal Principal
	if err := c.api.Put(ctx, ProfilePath, req, &principal); err != nil {
		return nil, errors.Wrap(err, "[UpdateProfile] update failed")
	}
	return &principal, nil
}
