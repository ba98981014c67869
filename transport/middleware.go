package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-admin-client/credentials"
)

// Middleware wraps a RoundTripper with additional behavior. Middleware are
// composed in order, outermost first, and each may short-circuit or
// transform the in-flight request and response.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain composes middleware around a base RoundTripper. The first middleware
// is outermost: it sees the request first and the response last.
func Chain(base http.RoundTripper, middleware ...Middleware) http.RoundTripper {
	rt := base
	for i := len(middleware) - 1; i >= 0; i-- {
		rt = middleware[i](rt)
	}
	return rt
}

type contextKey int

const (
	exemptFromRetryKey contextKey = iota
	retriedKey
)

// ExemptFromRetry marks requests built from ctx as excluded from 401
// recovery. Login carries this mark: a 401 there means bad credentials, and
// recovering would recurse into the auth endpoints themselves.
func ExemptFromRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, exemptFromRetryKey, true)
}

func isExemptFromRetry(ctx context.Context) bool {
	v, _ := ctx.Value(exemptFromRetryKey).(bool)
	return v
}

// markRetried flags a request as having consumed its single retry.
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey).(bool)
	return v
}

// BearerAuth attaches the currently stored access token as a bearer
// credential. The store is read at send time, never earlier: a refresh may
// have rotated the token since the request was built, and a retried request
// must carry the rotated token, not the one that just failed.
func BearerAuth(store credentials.Store) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if tok := store.Access(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			return next.RoundTrip(req)
		})
	}
}

// RequestLog assigns each outbound request an X-Request-ID and logs the
// round trip. Authorization material is never logged.
func RequestLog(logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			requestID := uuid.NewString()
			req.Header.Set("X-Request-ID", requestID)

			start := time.Now()
			resp, err := next.RoundTrip(req)
			event := logger.Debug().
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Dur("duration", time.Since(start))
			if err != nil {
				event.Err(err).Msg("request failed")
				return resp, err
			}
			event.Int("status", resp.StatusCode).Msg("request completed")
			return resp, nil
		})
	}
}
