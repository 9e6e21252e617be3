// Package main is the entry point for the fleetcore service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openfleet/fleetcore/internal/config"
	"github.com/openfleet/fleetcore/internal/db"
	"github.com/openfleet/fleetcore/internal/events"
	"github.com/openfleet/fleetcore/internal/server"
	"github.com/openfleet/fleetcore/internal/service"
	"github.com/openfleet/fleetcore/internal/store"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type configKeySource struct {
	key []byte
}

func (s configKeySource) SigningKey(context.Context) ([]byte, error) {
	if len(s.key) == 0 {
		return nil, fmt.Errorf("FLEETCORE_AGENT_SIGNING_KEY is not set")
	}
	return s.key, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "fleetcore").Str("version", version).Logger()
	}

	logger := log.With().Str("component", "main").Logger()
	logger.Info().Str("version", version).Str("commit", commit).Str("build_date", buildDate).Msg("starting fleetcore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, db.PoolConfig{DSN: cfg.DBDSN, MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to PostgreSQL")

	if err := runMigrations(cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}
	logger.Info().Msg("database migration complete")

	services := service.NewCollection(configKeySource{key: []byte(cfg.AgentSigningKey)}, log.Logger)
	defer services.Close()

	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name("fleetcore"))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer conn.Drain()

		dispatcher := events.NewDispatcher(pool, store.NewOutboxRepository(), conn,
			log.With().Str("component", "dispatcher").Logger())
		go func() {
			if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("outbox dispatcher stopped")
			}
		}()
		logger.Info().Str("url", cfg.NATSURL).Msg("outbox dispatcher started")
	} else {
		logger.Warn().Msg("FLEETCORE_NATS_URL not set; workflow messages will accumulate in the outbox")
	}

	srv := server.New(pool, services, log.Logger, version, commit, buildDate)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case serveErr := <-errCh:
		logger.Error().Err(serveErr).Msg("HTTP server error")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("server stopped gracefully")
}

func runMigrations(cfg config.Config) error {
	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
