package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-admin-client/auth"
	"github.com/jrsteele09/go-admin-client/credentials"
	apperrors "github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/refresh"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/jrsteele09/go-admin-client/transport"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "password123"
)

type sessionBackend struct {
	mu          sync.Mutex
	role        auth.RoleType
	accessToken string
	failMe      bool
	failLogout  bool
	totalCalls  int32
}

func (b *sessionBackend) principal() *auth.Principal {
	return &auth.Principal{ID: "user-1", Username: "admin", Email: testEmail, Role: b.role}
}

func (b *sessionBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(auth.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.totalCalls, 1)
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Email != testEmail || body.Password != testPassword {
			http.Error(w, `{"message":"invalid credentials"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":         b.principal(),
			"accessToken":  "a1",
			"refreshToken": "r1",
		})
	})
	mux.HandleFunc(auth.LogoutPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.totalCalls, 1)
		if b.failLogout {
			http.Error(w, `{"message":"unavailable"}`, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(auth.MePath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.totalCalls, 1)
		b.mu.Lock()
		failMe := b.failMe
		b.mu.Unlock()
		if failMe {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(b.principal())
	})
	mux.HandleFunc(auth.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.totalCalls, 1)
		// The refresh token has been revoked server-side in every scenario
		// that reaches this endpoint.
		http.Error(w, `{"message":"refresh token revoked"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("/metrics/summary", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.totalCalls, 1)
		b.mu.Lock()
		expected := "Bearer " + b.accessToken
		b.mu.Unlock()
		if r.Header.Get("Authorization") != expected {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"visits": 42})
	})
	return mux
}

type fixture struct {
	backend    *sessionBackend
	store      *credentials.MemStore
	api        *transport.Client
	controller *session.Controller

	statesMu sync.Mutex
	states   []session.State
	visited  []string
}

func newFixture(t *testing.T, backend *sessionBackend) *fixture {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	store := credentials.NewMemStore()
	coord := refresh.NewCoordinator(server.URL+auth.RefreshPath, store)
	api := transport.New(server.URL, store, coord)
	authClient := auth.NewClient(api, store)

	f := &fixture{backend: backend, store: store, api: api}
	f.controller = session.NewController(authClient, store, coord,
		session.WithNavigator(func(route string) {
			f.statesMu.Lock()
			f.visited = append(f.visited, route)
			f.statesMu.Unlock()
		}),
	)
	f.controller.OnChange(func(s session.State) {
		f.statesMu.Lock()
		f.states = append(f.states, s)
		f.statesMu.Unlock()
	})
	return f
}

func (f *fixture) statuses() []session.Status {
	f.statesMu.Lock()
	defer f.statesMu.Unlock()
	statuses := make([]session.Status, len(f.states))
	for i, s := range f.states {
		statuses[i] = s.Status
	}
	return statuses
}

func TestBootstrapWithoutCredentialsMakesNoNetworkCall(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleAdmin})

	require.True(t, f.controller.State().IsLoading())
	f.controller.Bootstrap(context.Background())

	state := f.controller.State()
	require.Equal(t, session.StatusUnauthenticated, state.Status)
	require.False(t, state.IsAuthenticated())
	require.False(t, state.IsLoading())
	require.Zero(t, atomic.LoadInt32(&f.backend.totalCalls))
}

func TestBootstrapRestoresStoredSession(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleAdmin})
	f.store.Set(credentials.Pair{AccessToken: "a1", RefreshToken: "r1"})

	f.controller.Bootstrap(context.Background())

	state := f.controller.State()
	require.True(t, state.IsAuthenticated())
	require.Equal(t, "user-1", state.Principal.ID)
}

func TestBootstrapDeniesNonAdmin(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleViewer})
	f.store.Set(credentials.Pair{AccessToken: "a1", RefreshToken: "r1"})

	f.controller.Bootstrap(context.Background())

	require.Equal(t, session.StatusUnauthenticated, f.controller.State().Status)
	require.False(t, f.store.Exists())
}

func TestLoginPublishesTransientAuthenticatingState(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleAdmin})

	require.NoError(t, f.controller.Login(context.Background(), testEmail, testPassword))

	require.Equal(t,
		[]session.Status{session.StatusAuthenticating, session.StatusAuthenticated},
		f.statuses(),
	)
	state := f.controller.State()
	require.True(t, state.IsAuthenticated())
	require.Empty(t, state.Err)
}

func TestLoginFailureRecordsErrorAndLeavesAuthenticating(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleAdmin})

	err := f.controller.Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	state := f.controller.State()
	require.Equal(t, session.StatusUnauthenticated, state.Status)
	require.Equal(t, auth.InvalidCredentialsMessage, state.Err)
}

func TestLoginClearsPriorError(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleAdmin})

	require.Error(t, f.controller.Login(context.Background(), testEmail, "wrong"))
	require.NotEmpty(t, f.controller.State().Err)

	require.NoError(t, f.controller.Login(context.Background(), testEmail, testPassword))
	require.Empty(t, f.controller.State().Err)
}

func TestLoginRoleGateEndsUnauthenticated(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleManager})

	err := f.controller.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, apperrors.ErrAccessDenied)

	state := f.controller.State()
	require.Equal(t, session.StatusUnauthenticated, state.Status)
	require.Equal(t, auth.AccessDeniedMessage, state.Err)
	require.False(t, f.store.Exists())
}

func TestLogoutResetsStateEvenWhenServerFails(t *testing.T) {
	f := newFixture(t, &sessionBackend{role: auth.RoleAdmin, failLogout: true})
	require.NoError(t, f.controller.Login(context.Background(), testEmail, testPassword))

	f.controller.Logout(context.Background())
	f.controller.Logout(context.Background())

	require.Equal(t, session.StatusUnauthenticated, f.controller.State().Status)
	require.False(t, f.store.Exists())
}

func TestRefreshCurrentUserReplacesPrincipal(t *testing.T) {
	backend := &sessionBackend{role: auth.RoleAdmin}
	f := newFixture(t, backend)
	require.NoError(t, f.controller.Login(context.Background(), testEmail, testPassword))

	f.controller.RefreshCurrentUser(context.Background())

	state := f.controller.State()
	require.True(t, state.IsAuthenticated())
	require.Equal(t, "user-1", state.Principal.ID)
}

func TestRefreshCurrentUserFailureIsSilent(t *testing.T) {
	backend := &sessionBackend{role: auth.RoleAdmin}
	f := newFixture(t, backend)
	require.NoError(t, f.controller.Login(context.Background(), testEmail, testPassword))
	before := f.controller.State()

	backend.mu.Lock()
	backend.failMe = true
	backend.mu.Unlock()
	f.controller.RefreshCurrentUser(context.Background())

	after := f.controller.State()
	require.Equal(t, before.Status, after.Status)
	require.Equal(t, before.Principal, after.Principal)
	require.True(t, after.IsAuthenticated())
	require.True(t, f.store.Exists())
}

func TestRefreshFailureForcesLogoutAndNavigation(t *testing.T) {
	backend := &sessionBackend{role: auth.RoleAdmin, accessToken: "rotated-away"}
	f := newFixture(t, backend)
	require.NoError(t, f.controller.Login(context.Background(), testEmail, testPassword))

	// The access token is stale server-side and the refresh token revoked:
	// the passenger request trips a refresh cycle that fails.
	err := f.api.Get(context.Background(), "/metrics/summary", nil)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	state := f.controller.State()
	require.Equal(t, session.StatusUnauthenticated, state.Status)
	require.Equal(t, session.SessionExpiredMessage, state.Err)
	require.False(t, f.store.Exists())

	f.statesMu.Lock()
	visited := append([]string{}, f.visited...)
	f.statesMu.Unlock()
	require.Equal(t, []string{session.DefaultLoginRoute}, visited)
}
