// Package server implements the creator API consumed by the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/creatorhub-dev/creatorhub/internal/auth"
	"github.com/creatorhub-dev/creatorhub/internal/config"
	"github.com/creatorhub-dev/creatorhub/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *auth.Issuer
	media     afero.Fs
	now       func() time.Time
	version   string
}

// Option configures a Server
type Option func(*Server)

// WithMediaFs stores uploaded media on fs instead of the configured directory
func WithMediaFs(fs afero.Fs) Option {
	return func(s *Server) {
		s.media = fs
	}
}

// WithClock overrides the server's time source
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a new server instance on an open database
func New(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		generated, err := auth.NewOpaqueToken()
		if err != nil {
			return nil, err
		}
		secret = generated
		zlog.Warn().Msg("JWT_SECRET not set - using a random secret, tokens will not survive a restart")
	}

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		tokens:    auth.NewIssuer(secret, cfg.Auth.AccessTokenTTL),
		media:     afero.NewBasePathFs(afero.NewOsFs(), cfg.Media.Dir),
		now:       func() time.Time { return time.Now().UTC() },
		version:   version,
	}

	for _, opt := range opts {
		opt(server)
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// newValidator returns the request validator with the API's custom rules
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		return isPlatform(fl.Field().String())
	})

	return validate
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware, only for browser clients on the configured origins
	if len(s.config.HTTP.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.HTTP.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Device-ID"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Uploaded media (no auth required)
	s.router.StaticFS("/media", afero.NewHttpFs(s.media))

	// Public auth endpoints (no auth required)
	public := s.router.Group("/auth")
	{
		public.POST("/login", s.login)
		public.POST("/register", s.register)
		public.POST("/refresh", s.refresh)
		public.POST("/forgot-password", s.forgotPassword)
		public.POST("/reset-password", s.resetPassword)
	}

	// Authenticated routes (JWT required)
	api := s.router.Group("")
	api.Use(JWTAuthMiddleware(s.db, s.tokens, s.logger))
	{
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/me", s.getCurrentUser)
		api.PUT("/auth/profile", s.updateProfile)

		// Creators
		api.GET("/creators", s.listCreators)
		api.POST("/creators", s.createCreator)
		api.GET("/creators/:id", s.getCreator)
		api.PUT("/creators/:id", s.updateCreator)
		api.DELETE("/creators/:id", s.deleteCreator)

		// Platforms
		api.POST("/creators/:id/platforms/:platform/connect", s.connectPlatform)
		api.POST("/creators/:id/platforms/:platform/sync", s.syncPlatform)
		api.DELETE("/creators/:id/platforms/:platform", s.disconnectPlatform)

		// Contents
		api.GET("/creators/:id/contents", s.listContents)
		api.POST("/creators/:id/contents", s.uploadContent)
		api.GET("/contents/:id", s.getContent)
		api.PUT("/contents/:id", s.updateContent)
		api.DELETE("/contents/:id", s.deleteContent)
		api.POST("/contents/:id/schedule", s.scheduleContent)
		api.POST("/contents/:id/publish", s.publishContent)
		api.GET("/contents/:id/analytics", s.getContentAnalytics)

		// Analytics & subscribers
		api.GET("/creators/:id/analytics", s.getCreatorAnalytics)
		api.GET("/creators/:id/subscribers", s.listSubscribers)
		api.GET("/creators/:id/subscribers/export", s.exportSubscribers)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": s.now().UTC(),
		"service":   "creatorhub-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start serves the API until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	port := ":" + s.config.HTTP.Port

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:    port,
		Handler: s.router,
		// Uploads of large videos need generous body timeouts
		ReadTimeout:       180 * time.Second,
		WriteTimeout:      180 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
