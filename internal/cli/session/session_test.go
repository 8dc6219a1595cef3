package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/session/mocks"
	"github.com/creatorhub-dev/creatorhub/internal/cli/storage"
	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

var alice = client.User{ID: "u1", Email: "a@x.com", Name: "Alice"}

func newTestStore(t *testing.T, opts ...Option) (*Store, *mocks.MockAuthenticator, storage.Storage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(ctrl)
	store := storage.NewMemory()

	return NewStore(auth, store, opts...), auth, store
}

// signIn puts the store into an authenticated session with tokens t1/r1
func signIn(t *testing.T, s *Store, auth *mocks.MockAuthenticator) {
	t.Helper()

	auth.EXPECT().
		Login(gomock.Any(), "a@x.com", "secret1").
		Return(&client.AuthResponse{User: alice, Token: "t1", RefreshToken: "r1"}, nil)

	require.NoError(t, s.Login(context.Background(), "a@x.com", "secret1"))
}

func readSnapshot(t *testing.T, store storage.Storage) snapshot {
	t.Helper()

	data, err := store.Get(storage.KeySession)
	require.NoError(t, err)

	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	return snap
}

func assertNoTokens(t *testing.T, store storage.Storage) {
	t.Helper()

	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeySession} {
		_, err := store.Get(key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
}

func TestLogin_PersistsSession(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	state := s.State()
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.Error)
	require.NotNil(t, state.User)
	assert.Equal(t, alice, *state.User)
	assert.Equal(t, "t1", state.AccessToken)
	assert.Equal(t, "r1", state.RefreshToken)

	snap := readSnapshot(t, store)
	assert.Equal(t, State{User: &alice, AccessToken: "t1", RefreshToken: "r1", IsAuthenticated: true}, snap.State)

	token, err := store.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
	refresh, err := store.Get(storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r1", refresh)
}

func TestLogin_SnapshotOmitsTransientFields(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	data, err := store.Get(storage.KeySession)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(data), &raw))
	assert.JSONEq(t, "0", string(raw["version"]))

	var state map[string]any
	require.NoError(t, json.Unmarshal(raw["state"], &state))
	assert.ElementsMatch(t, []string{"user", "token", "refreshToken", "isAuthenticated"}, keys(state))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	s, auth, _ := newTestStore(t)
	signIn(t, s, auth)

	rejected := &client.HTTPError{StatusCode: 401, Message: "Invalid credentials"}
	auth.EXPECT().Login(gomock.Any(), "a@x.com", "wrong1").Return(nil, rejected)

	err := s.Login(context.Background(), "a@x.com", "wrong1")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
	assert.ErrorIs(t, err, rejected)

	state := s.State()
	assert.Equal(t, "Invalid credentials", state.Error)
	assert.False(t, state.IsLoading)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "t1", state.AccessToken)
}

func TestLogin_FailureWithoutMessageUsesFallback(t *testing.T) {
	s, auth, _ := newTestStore(t, WithTranslator(i18n.New("de")))

	auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &client.HTTPError{StatusCode: 500})

	err := s.Login(context.Background(), "a@x.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Login fehlgeschlagen", s.State().Error)
	assert.False(t, s.State().IsAuthenticated)
}

func TestRegister(t *testing.T) {
	s, auth, store := newTestStore(t)

	auth.EXPECT().
		Register(gomock.Any(), "a@x.com", "secret1", "Alice").
		Return(&client.AuthResponse{User: alice, Token: "t1", RefreshToken: "r1"}, nil)

	require.NoError(t, s.Register(context.Background(), "a@x.com", "secret1", "Alice"))
	assert.True(t, s.State().IsAuthenticated)
	assert.True(t, readSnapshot(t, store).State.IsAuthenticated)
}

func TestRegister_Failure(t *testing.T) {
	s, auth, _ := newTestStore(t)

	auth.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &client.HTTPError{StatusCode: 409, Message: "Email already registered"})

	err := s.Register(context.Background(), "a@x.com", "secret1", "Alice")

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Email already registered", s.State().Error)
}

func TestLogout_ClearsEverythingWhenRemoteFails(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	auth.EXPECT().Logout(gomock.Any()).Return(&client.NetworkError{Message: "Network error", Err: errors.New("dial tcp: refused")})

	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, State{}, s.State())
	assertNoTokens(t, store)
}

func TestLogout_SignedOutSkipsServer(t *testing.T) {
	s, _, store := newTestStore(t)

	require.NoError(t, s.Logout(context.Background()))
	assertNoTokens(t, store)
}

func TestRefreshSession_NoRefreshTokenMakesNoCall(t *testing.T) {
	// The mock has no expectations: any call fails the test
	s, _, _ := newTestStore(t)

	err := s.RefreshSession(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.ErrorIs(t, err, client.ErrNoRefreshToken)
}

func TestRefreshSession_ReplacesTokensOnly(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	auth.EXPECT().RefreshTokens(gomock.Any(), "r1").Return(&client.TokenPair{Token: "t2", RefreshToken: "r2"}, nil)

	require.NoError(t, s.RefreshSession(context.Background()))

	state := s.State()
	assert.Equal(t, "t2", state.AccessToken)
	assert.Equal(t, "r2", state.RefreshToken)
	assert.Equal(t, alice, *state.User)
	assert.True(t, state.IsAuthenticated)

	snap := readSnapshot(t, store)
	assert.Equal(t, "t2", snap.State.AccessToken)
	assert.Equal(t, "r2", snap.State.RefreshToken)

	token, err := store.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t2", token)
}

func TestRefreshSession_FailureEndsSession(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	rejected := &client.HTTPError{StatusCode: 401, Message: "Invalid refresh token"}
	auth.EXPECT().RefreshTokens(gomock.Any(), "r1").Return(nil, rejected)

	err := s.RefreshSession(context.Background())
	assert.ErrorIs(t, err, rejected)

	assert.Equal(t, State{Error: "Session expired. Please sign in again."}, s.State())
	assertNoTokens(t, store)
}

func TestRefreshAccessToken_NewerTokenSkipsRefresh(t *testing.T) {
	s, auth, _ := newTestStore(t)
	signIn(t, s, auth)

	token, err := s.RefreshAccessToken(context.Background(), "t0")
	require.NoError(t, err)
	assert.Equal(t, "t1", token)
}

func TestRefreshAccessToken_SignedOut(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.RefreshAccessToken(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestRefreshAccessToken_ConcurrentCallersShareOneRefresh(t *testing.T) {
	s, auth, _ := newTestStore(t)
	signIn(t, s, auth)

	release := make(chan struct{})
	auth.EXPECT().
		RefreshTokens(gomock.Any(), "r1").
		DoAndReturn(func(ctx context.Context, refreshToken string) (*client.TokenPair, error) {
			<-release
			return &client.TokenPair{Token: "t2", RefreshToken: "r2"}, nil
		}).
		Times(1)

	const callers = 8
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.RefreshAccessToken(context.Background(), "t1")
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "t2", results[i])
	}
}

func TestRefreshAccessToken_LogoutDuringRefreshWins(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	started := make(chan struct{})
	release := make(chan struct{})
	auth.EXPECT().
		RefreshTokens(gomock.Any(), "r1").
		DoAndReturn(func(ctx context.Context, refreshToken string) (*client.TokenPair, error) {
			close(started)
			<-release
			return &client.TokenPair{Token: "t2", RefreshToken: "r2"}, nil
		})
	auth.EXPECT().Logout(gomock.Any()).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.RefreshAccessToken(context.Background(), "t1")
		done <- err
	}()

	<-started
	require.NoError(t, s.Logout(context.Background()))
	close(release)

	assert.ErrorIs(t, <-done, ErrSessionSuperseded)
	assert.Equal(t, State{}, s.State())
	assertNoTokens(t, store)
}

func TestRefreshAccessToken_LoginDuringRefreshHandsOutNewToken(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	started := make(chan struct{})
	release := make(chan struct{})
	auth.EXPECT().
		RefreshTokens(gomock.Any(), "r1").
		DoAndReturn(func(ctx context.Context, refreshToken string) (*client.TokenPair, error) {
			close(started)
			<-release
			return &client.TokenPair{Token: "t2", RefreshToken: "r2"}, nil
		})
	auth.EXPECT().
		Login(gomock.Any(), "a@x.com", "secret1").
		Return(&client.AuthResponse{User: alice, Token: "t9", RefreshToken: "r9"}, nil)

	type result struct {
		token string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		token, err := s.RefreshAccessToken(context.Background(), "t1")
		done <- result{token, err}
	}()

	<-started
	require.NoError(t, s.Login(context.Background(), "a@x.com", "secret1"))
	close(release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "t9", res.token)

	state := s.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "t9", state.AccessToken)
	assert.Equal(t, "r9", state.RefreshToken)

	refresh, err := store.Get(storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r9", refresh)
}

func TestRefreshAccessToken_CallerCancellation(t *testing.T) {
	s, auth, _ := newTestStore(t)
	signIn(t, s, auth)

	release := make(chan struct{})
	auth.EXPECT().
		RefreshTokens(gomock.Any(), "r1").
		DoAndReturn(func(ctx context.Context, refreshToken string) (*client.TokenPair, error) {
			<-release
			return &client.TokenPair{Token: "t2", RefreshToken: "r2"}, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RefreshAccessToken(ctx, "t1")
	assert.ErrorIs(t, err, context.Canceled)

	// The shared refresh still completes for everyone else
	close(release)
	assert.Eventually(t, func() bool {
		return s.AccessToken() == "t2"
	}, time.Second, 5*time.Millisecond)
}

func TestLoad_RehydratesSnapshot(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	restored := NewStore(auth, store)
	require.NoError(t, restored.Load())

	state := restored.State()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "t1", state.AccessToken)
	assert.Equal(t, "r1", state.RefreshToken)
	assert.Equal(t, alice, *state.User)
}

func TestLoad_EnforcesAuthenticatedInvariant(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeySession, `{"state":{"user":null,"token":"t1","refreshToken":"r1","isAuthenticated":true},"version":0}`))

	s := NewStore(nil, store)
	require.NoError(t, s.Load())
	assert.False(t, s.State().IsAuthenticated)
}

func TestLoad_MissingSnapshot(t *testing.T) {
	s := NewStore(nil, storage.NewMemory())
	require.NoError(t, s.Load())
	assert.Equal(t, State{}, s.State())
}

func TestLoad_CorruptSnapshot(t *testing.T) {
	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeySession, "{"))

	s := NewStore(nil, store)
	assert.Error(t, s.Load())
}

func TestClearError_OnlyClearsError(t *testing.T) {
	s, auth, _ := newTestStore(t)
	signIn(t, s, auth)

	auth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &client.HTTPError{StatusCode: 401, Message: "nope"})
	require.Error(t, s.Login(context.Background(), "a@x.com", "bad"))

	before := s.State()
	s.ClearError()
	after := s.State()

	assert.Empty(t, after.Error)
	before.Error = ""
	assert.Equal(t, before, after)
}

func TestSetUser_ReplacesAndPersists(t *testing.T) {
	s, auth, store := newTestStore(t)
	signIn(t, s, auth)

	renamed := alice
	renamed.Name = "Alice B."
	s.SetUser(&renamed)

	assert.Equal(t, "Alice B.", s.State().User.Name)
	assert.Equal(t, "Alice B.", readSnapshot(t, store).State.User.Name)

	s.SetUser(nil)
	assert.False(t, s.State().IsAuthenticated)
}

func TestState_ReturnsCopy(t *testing.T) {
	s, auth, _ := newTestStore(t)
	signIn(t, s, auth)

	state := s.State()
	state.User.Name = "Mallory"

	assert.Equal(t, "Alice", s.State().User.Name)
}
