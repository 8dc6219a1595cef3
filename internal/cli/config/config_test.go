package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CREATORHUB_HOME", home)
	t.Setenv("CREATORHUB_API_URL", "")
	t.Setenv("CREATORHUB_STORAGE", "")
	t.Setenv("CREATORHUB_TIMEOUT", "")
	t.Setenv("CREATORHUB_AUTH_TIMEOUT", "")
	t.Setenv("CREATORHUB_LOCALE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultWSURL, cfg.WSURL)
	assert.Equal(t, StorageKeyring, cfg.Storage)
	assert.Equal(t, 10*time.Second, cfg.AuthTimeout)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, filepath.Join(home, "session.json"), cfg.SessionFile())
	assert.Equal(t, filepath.Join(home, "config.json"), cfg.UserConfigFile())
	assert.Equal(t, filepath.Join(home, "logs", "creatorhub.log"), cfg.Logging.File)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CREATORHUB_HOME", t.TempDir())
	t.Setenv("CREATORHUB_API_URL", "http://localhost:8080/")
	t.Setenv("CREATORHUB_STORAGE", "FILE")
	t.Setenv("CREATORHUB_TIMEOUT", "45s")
	t.Setenv("CREATORHUB_LOCALE", "de")
	t.Setenv("CREATORHUB_YOUTUBE_CLIENT_ID", "yt-123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "yt-123", cfg.OAuth.YouTubeClientID)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CREATORHUB_HOME", t.TempDir())

	t.Run("storage", func(t *testing.T) {
		t.Setenv("CREATORHUB_STORAGE", "redis")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid CREATORHUB_STORAGE")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Setenv("CREATORHUB_TIMEOUT", "soon")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid CREATORHUB_TIMEOUT")
	})
}
