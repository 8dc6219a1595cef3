package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultAuthTimeout = 10 * time.Second

	deviceIDHeader = "X-Device-ID"
	userAgent      = "creatorhub-cli"
)

// Client represents an HTTP client for the creator API
type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	authTimeout time.Duration
	tokens      TokenSource
	tr          *i18n.Translator
	logger      zerolog.Logger
	deviceID    string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeouts sets the request ceiling for auth calls and for everything else
func WithTimeouts(auth, other time.Duration) Option {
	return func(c *Client) {
		if auth > 0 {
			c.authTimeout = auth
		}
		if other > 0 {
			c.timeout = other
		}
	}
}

// WithTranslator sets the locale used for fallback error messages
func WithTranslator(tr *i18n.Translator) Option {
	return func(c *Client) {
		c.tr = tr
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDeviceID sends the installation id with every request
func WithDeviceID(id string) Option {
	return func(c *Client) {
		c.deviceID = id
	}
}

// New creates a new API client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		timeout:     defaultTimeout,
		authTimeout: defaultAuthTimeout,
		tr:          i18n.New("en"),
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetTokenSource sets where authenticated requests get their credentials.
// Without one, requests are sent without an Authorization header.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Translator returns the client's message catalog
func (c *Client) Translator() *i18n.Translator {
	return c.tr
}

// doer builds the middleware chain for a request. Authenticated requests get
// bearer injection and the refresh-on-401 flow; the refresh call itself goes
// through the plain chain so it can never recurse.
func (c *Client) doer(authenticated bool) DoFunc {
	middlewares := []Middleware{
		WithRequestID(),
		WithHeader("User-Agent", userAgent),
		WithHeader(deviceIDHeader, c.deviceID),
	}

	if authenticated && c.tokens != nil {
		middlewares = append(middlewares,
			WithBearer(c.tokens),
			WithRefresh(c.tokens, c.tr.T(i18n.SessionExpired)),
		)
	}

	middlewares = append(middlewares, WithLogging(c.logger))

	return Chain(c.httpClient.Do, middlewares...)
}

// call describes one API request
type call struct {
	method        string
	path          string
	query         url.Values
	body          any    // encoded as JSON
	rawBody       []byte // sent as is with contentType
	contentType   string
	authenticated bool
	auth          bool   // auth endpoint, uses the shorter timeout
	fallback      string // i18n key of the message used when the server gives none
}

// send performs the call and returns the raw response body of a 2xx response
func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	timeout := c.timeout
	if cl.auth {
		timeout = c.authTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	switch {
	case cl.rawBody != nil:
		body = bytes.NewReader(cl.rawBody)
	case cl.body != nil:
		jsonData, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	switch {
	case cl.rawBody != nil:
		req.Header.Set("Content-Type", cl.contentType)
	case cl.body != nil:
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer(cl.authenticated)(req)
	if err != nil {
		var expired *AuthExpiredError
		if errors.As(err, &expired) {
			return nil, expired
		}
		c.logger.Warn().Err(err).Str("path", cl.path).Msg("Request did not reach the API")
		return nil, &NetworkError{Message: c.tr.T(i18n.Network), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Message: c.tr.T(i18n.Network), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    c.errorMessage(respBody, cl.fallback),
		}
	}

	return respBody, nil
}

// sendJSON performs the call and decodes a JSON response into out
func (c *Client) sendJSON(ctx context.Context, cl call, out any) error {
	body, err := c.send(ctx, cl)
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the server's message from an error body, falling
// back to the operation's localized message
func (c *Client) errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if fallback == "" {
		fallback = i18n.Unknown
	}
	return c.tr.T(fallback)
}

// pathf builds a URL path, escaping every argument as a path segment
func pathf(format string, args ...string) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = url.PathEscape(arg)
	}
	return fmt.Sprintf(format, escaped...)
}
