package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoRefreshToken is returned by a TokenSource that holds no refresh token
var ErrNoRefreshToken = errors.New("no refresh token")

// NetworkError is returned when no response reached the client
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is returned for non-2xx responses. Message is taken from the
// response body when present, otherwise it is the operation's fallback.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether the server rejected the credentials
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// AuthExpiredError is returned when an expired access token could not be
// refreshed. The session has been cleared and the user must sign in again.
type AuthExpiredError struct {
	Message string
	Err     error
}

func (e *AuthExpiredError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%v)", e.Message, e.Err)
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of err, or 0 if err carries none
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
