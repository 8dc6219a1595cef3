package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/storage"
)

// fakeAPI issues t1/r1 on login and rotates to t2/r2 on refresh. Only the
// newest access token is accepted.
type fakeAPI struct {
	mu           sync.Mutex
	valid        string
	refreshes    int
	logouts      int
	failLogout   bool
	refreshDelay time.Duration
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.valid = "t1"
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, client.AuthResponse{User: alice, Token: "t1", RefreshToken: "r1"})
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		f.mu.Lock()
		delay := f.refreshDelay
		f.mu.Unlock()
		time.Sleep(delay)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.refreshes++

		if body["refreshToken"] != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid refresh token"})
			return
		}
		f.valid = "t2"
		writeJSON(w, http.StatusOK, client.TokenPair{Token: "t2", RefreshToken: "r2"})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.logouts++

		if f.failLogout {
			panic(http.ErrAbortHandler)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /creators", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		valid := f.valid
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, []client.Creator{})
	})

	return mux
}

func (f *fakeAPI) expire(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.valid == token {
		f.valid = map[string]string{"t1": "t2", "t2": "t3"}[token]
	}
}

func (f *fakeAPI) counts() (refreshes, logouts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.logouts
}

func newSession(t *testing.T, api *fakeAPI, opts ...client.Option) (*Store, *client.Client, storage.Storage) {
	t.Helper()

	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	c := client.New(server.URL, opts...)
	store := storage.NewMemory()
	s := NewStore(c, store)
	c.SetTokenSource(s)

	return s, c, store
}

func TestSessionLifecycle(t *testing.T) {
	api := &fakeAPI{}
	s, c, store := newSession(t, api)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@x.com", "secret1"))

	for i := 0; i < 3; i++ {
		_, err := c.ListCreators(ctx)
		require.NoError(t, err)
	}

	// Server-side expiry: the next request sees 401 and refreshes once
	api.expire("t1")

	_, err := c.ListCreators(ctx)
	require.NoError(t, err)
	refreshes, _ := api.counts()
	assert.Equal(t, 1, refreshes)

	token, err := store.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t2", token)
	refresh, err := store.Get(storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r2", refresh)

	require.NoError(t, s.Logout(ctx))
	_, logouts := api.counts()
	assert.Equal(t, 1, logouts)
	assert.False(t, s.State().IsAuthenticated)
	assertNoTokens(t, store)
}

func TestSessionLifecycle_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	api := &fakeAPI{}
	s, c, _ := newSession(t, api)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@x.com", "secret1"))
	api.expire("t1")

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListCreators(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	refreshes, _ := api.counts()
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, "t2", s.AccessToken())
}

func TestSessionLifecycle_TimeoutDuringRefreshKeepsSession(t *testing.T) {
	api := &fakeAPI{refreshDelay: 300 * time.Millisecond}
	s, c, _ := newSession(t, api, client.WithTimeouts(5*time.Second, 100*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@x.com", "secret1"))
	api.expire("t1")

	_, err := c.ListCreators(ctx)
	require.Error(t, err)

	var netErr *client.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var expired *client.AuthExpiredError
	assert.False(t, errors.As(err, &expired))

	// The shared refresh finishes in the background and the session stays valid
	assert.Eventually(t, func() bool {
		return s.AccessToken() == "t2"
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, s.State().IsAuthenticated)
	assert.Empty(t, s.State().Error)

	_, err = c.ListCreators(ctx)
	require.NoError(t, err)
}

func TestSessionLifecycle_RejectedRefreshSignsOut(t *testing.T) {
	api := &fakeAPI{}
	s, c, store := newSession(t, api)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@x.com", "secret1"))
	api.expire("t1")

	// Refresh once so r1 is spent, then expire again
	_, err := c.ListCreators(ctx)
	require.NoError(t, err)
	api.expire("t2")

	_, err = c.ListCreators(ctx)
	var expired *client.AuthExpiredError
	require.ErrorAs(t, err, &expired)

	state := s.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.Equal(t, "Session expired. Please sign in again.", state.Error)
	assertNoTokens(t, store)
}

func TestSessionLifecycle_LogoutSurvivesNetworkFailure(t *testing.T) {
	api := &fakeAPI{failLogout: true}
	s, _, store := newSession(t, api)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "a@x.com", "secret1"))
	require.NoError(t, s.Logout(ctx))

	_, logouts := api.counts()
	assert.Equal(t, 1, logouts)
	assertNoTokens(t, store)
}
