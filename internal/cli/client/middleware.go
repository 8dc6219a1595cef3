package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
)

// DoFunc sends a request and returns its response
type DoFunc func(req *http.Request) (*http.Response, error)

// Middleware decorates a DoFunc
type Middleware func(next DoFunc) DoFunc

// Chain composes middlewares around base. The first middleware is the
// outermost: it sees the request first and the response last.
func Chain(base DoFunc, middlewares ...Middleware) DoFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// TokenSource provides the session's credentials to the HTTP client
type TokenSource interface {
	// AccessToken returns the current access token, or "" when signed out
	AccessToken() string

	// RefreshAccessToken exchanges the refresh token for a new token pair and
	// returns the new access token. stale is the access token the server just
	// rejected; if the session already holds a different one, it is returned
	// without another refresh. Returns ErrNoRefreshToken when no refresh
	// token is held.
	RefreshAccessToken(ctx context.Context, stale string) (string, error)
}

// WithBearer attaches the current access token to requests that carry no
// Authorization header yet
func WithBearer(tokens TokenSource) Middleware {
	return func(next DoFunc) DoFunc {
		return func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") == "" {
				if token := tokens.AccessToken(); token != "" {
					req = req.Clone(req.Context())
					req.Header.Set("Authorization", bearerPrefix+token)
				}
			}
			return next(req)
		}
	}
}

// retryState tracks a single logical request through the refresh flow
type retryState int

const (
	stateInitial retryState = iota
	stateRetried
	stateDone
)

func (s retryState) String() string {
	switch s {
	case stateInitial:
		return "initial"
	case stateRetried:
		return "retried"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("retryState(%d)", int(s))
	}
}

// nextRetryState decides what to do with a response. Only the first 401 of a
// request triggers a refresh; everything else is returned to the caller.
func nextRetryState(state retryState, status int) (next retryState, refresh bool) {
	if state == stateInitial && status == http.StatusUnauthorized {
		return stateRetried, true
	}
	return stateDone, false
}

// WithRefresh recovers from one expired access token per request: on the
// first 401 it refreshes the session and replays the request once with the
// new token. Without a refresh token the original 401 is returned; a failed
// refresh surfaces as *AuthExpiredError. When the request's own context ends
// before the refresh completes, the context error is returned as is.
func WithRefresh(tokens TokenSource, expiredMessage string) Middleware {
	return func(next DoFunc) DoFunc {
		return func(req *http.Request) (*http.Response, error) {
			state := stateInitial

			for {
				resp, err := next(req)
				if err != nil {
					return nil, err
				}

				var refresh bool
				state, refresh = nextRetryState(state, resp.StatusCode)
				if !refresh {
					return resp, nil
				}

				stale := strings.TrimPrefix(req.Header.Get("Authorization"), bearerPrefix)
				token, err := tokens.RefreshAccessToken(req.Context(), stale)
				if errors.Is(err, ErrNoRefreshToken) {
					return resp, nil
				}

				drain(resp)

				if err != nil {
					// The caller gave up before the shared refresh finished
					if ctxErr := req.Context().Err(); ctxErr != nil {
						return nil, ctxErr
					}
					return nil, &AuthExpiredError{Message: expiredMessage, Err: err}
				}

				req, err = replay(req, token)
				if err != nil {
					return nil, err
				}
			}
		}
	}
}

// replay returns a copy of req with a fresh body and the given access token
func replay(req *http.Request, token string) (*http.Request, error) {
	clone := req.Clone(req.Context())

	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, fmt.Errorf("cannot replay %s %s: request body is not rewindable", req.Method, req.URL.Path)
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		clone.Body = body
	}

	clone.Header.Set("Authorization", bearerPrefix+token)
	return clone, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// WithRequestID tags every logical request with a unique id; a replayed
// request keeps the id of the original
func WithRequestID() Middleware {
	return func(next DoFunc) DoFunc {
		return func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(requestIDHeader) == "" {
				req = req.Clone(req.Context())
				req.Header.Set(requestIDHeader, ulid.Make().String())
			}
			return next(req)
		}
	}
}

// WithHeader sets a static header on every request
func WithHeader(key, value string) Middleware {
	return func(next DoFunc) DoFunc {
		return func(req *http.Request) (*http.Response, error) {
			if value != "" {
				req = req.Clone(req.Context())
				req.Header.Set(key, value)
			}
			return next(req)
		}
	}
}

// WithLogging logs every attempt that reaches the network
func WithLogging(logger zerolog.Logger) Middleware {
	return func(next DoFunc) DoFunc {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)

			event := logger.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", req.Header.Get(requestIDHeader)).
				Dur("duration", time.Since(start))

			if err != nil {
				event.Err(err).Msg("HTTP request failed")
				return nil, err
			}

			event.Int("status", resp.StatusCode).Msg("HTTP request")
			return resp, nil
		}
	}
}
