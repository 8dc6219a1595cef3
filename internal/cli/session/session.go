// Package session owns the CLI's authentication state: the signed-in user and
// the token pair, persisted as a snapshot so a session survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/storage"
	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

//go:generate mockgen -destination=mocks/mock_authenticator.go -package=mocks github.com/creatorhub-dev/creatorhub/internal/cli/session Authenticator

// ErrNoRefreshToken is returned when a refresh is requested without a
// refresh token. It is the same value the HTTP client checks for.
var ErrNoRefreshToken = client.ErrNoRefreshToken

// ErrSessionSuperseded is returned by a refresh whose session was signed out
// while the refresh was in flight. A refresh overtaken by a login or
// registration returns the new session's access token instead.
var ErrSessionSuperseded = errors.New("session was replaced during refresh")

// snapshotVersion is written with every persisted snapshot
const snapshotVersion = 0

// Authenticator is the part of the API the store talks to
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*client.AuthResponse, error)
	Logout(ctx context.Context) error
	RefreshTokens(ctx context.Context, refreshToken string) (*client.TokenPair, error)
}

// State is the observable session. IsLoading and Error are never persisted.
type State struct {
	User            *client.User `json:"user"`
	AccessToken     string       `json:"token"`
	RefreshToken    string       `json:"refreshToken"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"-"`
	Error           string       `json:"-"`
}

// complete reports whether the state satisfies the authenticated invariant
func (s State) complete() bool {
	return s.User != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// snapshot is the persisted form of the session
type snapshot struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// AuthError is returned when a login or registration fails. Message is the
// text recorded in the store's error field.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Store is the single in-process holder of the session
type Store struct {
	auth    Authenticator
	storage storage.Storage
	logger  zerolog.Logger
	tr      *i18n.Translator

	mu    sync.Mutex
	state State
	// generation changes whenever the session is replaced wholesale, so a
	// refresh started against an older session can tell its result is stale
	generation uint64

	refreshGroup singleflight.Group
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTranslator sets the locale of the messages recorded in the error field
func WithTranslator(tr *i18n.Translator) Option {
	return func(s *Store) {
		s.tr = tr
	}
}

// NewStore creates an empty store. Call Load to rehydrate the persisted
// session before first use.
func NewStore(auth Authenticator, store storage.Storage, opts ...Option) *Store {
	s := &Store{
		auth:    auth,
		storage: store,
		logger:  zerolog.Nop(),
		tr:      i18n.New("en"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load replaces the in-memory session with the persisted snapshot. A missing
// snapshot leaves the store empty.
func (s *Store) Load() error {
	data, err := s.storage.Get(storage.KeySession)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	state := snap.State
	state.IsAuthenticated = state.complete()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = state

	return nil
}

// State returns a copy of the current session
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

// AccessToken returns the current access token, or "" when signed out
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

// Login signs in with email and password
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.startLoading()

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return s.authFailed(err, i18n.LoginFailed)
	}

	s.authenticated(resp)
	return nil
}

// Register creates an account and signs in to it
func (s *Store) Register(ctx context.Context, email, password, name string) error {
	s.startLoading()

	resp, err := s.auth.Register(ctx, email, password, name)
	if err != nil {
		return s.authFailed(err, i18n.RegisterFailed)
	}

	s.authenticated(resp)
	return nil
}

func (s *Store) startLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.IsLoading = true
	s.state.Error = ""
}

func (s *Store) authenticated(resp *client.AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := resp.User
	s.generation++
	s.state = State{
		User:         &user,
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
	}
	s.state.IsAuthenticated = s.state.complete()

	s.persistLocked()
}

// authFailed records the failure and leaves the previous session in place
func (s *Store) authFailed(err error, fallback string) error {
	message := err.Error()
	if message == "" {
		message = s.tr.T(fallback)
	}

	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Error = message
	s.mu.Unlock()

	return &AuthError{Message: message, Err: err}
}

// Logout ends the session. The server is told on a best-effort basis; the
// local session and its snapshot are cleared whatever the server answers.
// Only a failure to clear local storage is returned.
func (s *Store) Logout(ctx context.Context) error {
	if s.AccessToken() != "" {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Remote logout failed")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = State{}

	return s.clearLocked()
}

// RefreshSession exchanges the refresh token for a new token pair. It fails
// with ErrNoRefreshToken without contacting the server when none is held. A
// rejected refresh ends the session.
func (s *Store) RefreshSession(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.state.RefreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	_, err := s.refresh(ctx, "")
	return err
}

// RefreshAccessToken implements client.TokenSource. When the session already
// holds an access token other than stale, that token is returned without a
// refresh.
func (s *Store) RefreshAccessToken(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	current := s.state.AccessToken
	refreshToken := s.state.RefreshToken
	s.mu.Unlock()

	if current != "" && current != stale {
		return current, nil
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	return s.refresh(ctx, stale)
}

// refresh runs at most one refresh at a time; concurrent callers share its
// result. A non-empty stale skips the exchange when the session already moved
// past that access token.
func (s *Store) refresh(ctx context.Context, stale string) (string, error) {
	// The shared call must not die with whichever caller started it
	shared := context.WithoutCancel(ctx)

	ch := s.refreshGroup.DoChan("refresh", func() (any, error) {
		return s.doRefresh(shared, stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) doRefresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	generation := s.generation
	current := s.state.AccessToken
	refreshToken := s.state.RefreshToken
	s.mu.Unlock()

	if stale != "" && current != "" && current != stale {
		return current, nil
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	pair, err := s.auth.RefreshTokens(ctx, refreshToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		s.logger.Debug().Msg("Discarding refresh result of a replaced session")
		if s.state.IsAuthenticated && s.state.AccessToken != "" {
			return s.state.AccessToken, nil
		}
		return "", ErrSessionSuperseded
	}

	if err != nil {
		s.logger.Warn().Err(err).Msg("Session refresh failed")

		s.generation++
		s.state = State{Error: s.tr.T(i18n.SessionExpired)}
		if clearErr := s.clearLocked(); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("Failed to clear expired session")
		}
		return "", err
	}

	s.state.AccessToken = pair.Token
	if pair.RefreshToken != "" {
		s.state.RefreshToken = pair.RefreshToken
	}
	s.state.IsAuthenticated = s.state.complete()

	s.persistLocked()
	s.logger.Debug().Msg("Session refreshed")

	return pair.Token, nil
}

// ClearError clears the recorded error and nothing else
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

// SetUser replaces the session's user, e.g. after a profile update
func (s *Store) SetUser(user *client.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user != nil {
		u := *user
		user = &u
	}
	s.state.User = user
	s.state.IsAuthenticated = s.state.complete()

	s.persistLocked()
}

// persistLocked writes the snapshot and the token keys. Failures are logged:
// the in-memory session stays authoritative for this process.
func (s *Store) persistLocked() {
	if err := s.writeLocked(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist session")
	}
}

func (s *Store) writeLocked() error {
	data, err := json.Marshal(snapshot{State: s.state, Version: snapshotVersion})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.storage.Set(storage.KeySession, string(data)); err != nil {
		return err
	}

	tokens := []struct{ key, value string }{
		{storage.KeyAccessToken, s.state.AccessToken},
		{storage.KeyRefreshToken, s.state.RefreshToken},
	}
	for _, token := range tokens {
		if token.value == "" {
			err = s.storage.Delete(token.key)
		} else {
			err = s.storage.Set(token.key, token.value)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// clearLocked removes every persisted key of the session
func (s *Store) clearLocked() error {
	var errs []error
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeySession} {
		if err := s.storage.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
