package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/creatorhub-dev/creatorhub/internal/config"
	"github.com/creatorhub-dev/creatorhub/internal/logger"
	"github.com/creatorhub-dev/creatorhub/internal/server"
	"github.com/creatorhub-dev/creatorhub/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	db, err := server.OpenDatabase(cfg.Database.URL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := server.CloseDatabase(db); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	srv, err := server.New(cfg, db, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Msg("Starting creatorhub server...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		publisher := workers.NewPublisher(srv.GetDB(), log.With().Str("worker", "publisher").Logger())
		return workers.StartPublishScheduler(ctx, publisher, cfg.Publish.Schedule, log)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		stop()
		os.Exit(1)
	}
}
