package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the API server
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Token Configuration
	Auth AuthConfig

	// Media Configuration
	Media MediaConfig

	// Publishing Configuration
	Publish PublishConfig

	// Logging Configuration
	Logging LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// HTTPConfig holds listener configuration
type HTTPConfig struct {
	Port        string
	CORSOrigins []string
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// MediaConfig holds where uploaded media is stored
type MediaConfig struct {
	Dir string
}

// PublishConfig holds the scheduled-content publisher configuration
type PublishConfig struct {
	Schedule string // Cron expression, empty disables the publisher
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "creatorhub.sqlite"),
		},
		HTTP: HTTPConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Auth: AuthConfig{
			// An empty secret is replaced by a random one at startup
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
		},
		Media: MediaConfig{
			Dir: getEnv("MEDIA_DIR", "media"),
		},
		Publish: PublishConfig{
			Schedule: getEnv("PUBLISH_SCHEDULE", "* * * * *"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
