package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-admin-client/refresh"
)

// RetryOn401 recovers from expired access tokens. A 401 hands the request
// flow to the refresh coordinator; once the coordinator reports success the
// original request is resent exactly once. Everything else passes through:
// other status codes, transport errors, requests marked ExemptFromRetry, and
// requests that already consumed their retry.
//
// RetryOn401 must sit outside BearerAuth in the chain so that the resend
// passes through BearerAuth again and picks up the rotated token.
func RetryOn401(coordinator *refresh.Coordinator, logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			if isExemptFromRetry(req.Context()) || isRetried(req.Context()) {
				return resp, nil
			}

			logger.Debug().Str("url", req.URL.String()).Msg("unauthorized, requesting token refresh")

			// The failed response is replaced by the retry's outcome.
			drain(resp)

			if _, rerr := coordinator.Run(req.Context()); rerr != nil {
				return nil, rerr
			}

			retry, rerr := rewind(markRetried(req.Context()), req)
			if rerr != nil {
				return nil, rerr
			}
			return next.RoundTrip(retry)
		})
	}
}

// rewind clones the request for its single retry, restoring the body from
// GetBody. Requests built by Client always carry a replayable body.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	retry := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	// BearerAuth overwrites this with the rotated token on the way out.
	retry.Header.Del("Authorization")
	return retry, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
