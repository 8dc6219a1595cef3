package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL = "https://api.creatorapp.com"
	DefaultWSURL  = "wss://api.creatorapp.com"

	StorageKeyring = "keyring"
	StorageFile    = "file"

	configDirName = "creatorhub"
)

// Config holds the CLI configuration, resolved from the environment
type Config struct {
	// Remote API
	APIURL      string
	WSURL       string
	AuthTimeout time.Duration // login, register, refresh, password reset
	Timeout     time.Duration // everything else, including uploads

	// Locale for fallback error messages (en, de)
	Locale string

	// Storage backend for the session: keyring or file
	Storage string

	// Directory for the session file, user config and logs
	Dir string

	OAuth OAuthConfig

	Logging LoggingConfig
}

// OAuthConfig holds third-party platform app keys
type OAuthConfig struct {
	YouTubeClientID   string
	InstagramClientID string
	TikTokClientID    string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
	File   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	dir := os.Getenv("CREATORHUB_HOME")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config", configDirName)
	}

	authTimeout, err := durationEnv("CREATORHUB_AUTH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	timeout, err := durationEnv("CREATORHUB_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	storage := strings.ToLower(envOr("CREATORHUB_STORAGE", StorageKeyring))
	if storage != StorageKeyring && storage != StorageFile {
		return nil, fmt.Errorf("invalid CREATORHUB_STORAGE %q, must be one of: keyring, file", storage)
	}

	return &Config{
		APIURL:      strings.TrimRight(envOr("CREATORHUB_API_URL", DefaultAPIURL), "/"),
		WSURL:       envOr("CREATORHUB_WS_URL", DefaultWSURL),
		AuthTimeout: authTimeout,
		Timeout:     timeout,
		Locale:      envOr("CREATORHUB_LOCALE", "en"),
		Storage:     storage,
		Dir:         dir,
		OAuth: OAuthConfig{
			YouTubeClientID:   os.Getenv("CREATORHUB_YOUTUBE_CLIENT_ID"),
			InstagramClientID: os.Getenv("CREATORHUB_INSTAGRAM_CLIENT_ID"),
			TikTokClientID:    os.Getenv("CREATORHUB_TIKTOK_CLIENT_ID"),
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "console"),
			File:   filepath.Join(dir, "logs", "creatorhub.log"),
		},
	}, nil
}

// SessionFile is the path of the file-backed session storage
func (c *Config) SessionFile() string {
	return filepath.Join(c.Dir, "session.json")
}

// UserConfigFile is the path of the user preferences file
func (c *Config) UserConfigFile() string {
	return filepath.Join(c.Dir, "config.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
