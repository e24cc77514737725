// Package main provides the entry point for the PhD recruiting service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scoutlab/phd-recruiting-service/internal/config"
	"github.com/scoutlab/phd-recruiting-service/internal/database"
	"github.com/scoutlab/phd-recruiting-service/internal/observability"
	"github.com/scoutlab/phd-recruiting-service/internal/pipeline"
	"github.com/scoutlab/phd-recruiting-service/internal/repository"
	httpserver "github.com/scoutlab/phd-recruiting-service/internal/server/http"
	"github.com/scoutlab/phd-recruiting-service/internal/sources"
	"github.com/scoutlab/phd-recruiting-service/internal/sources/crossref"
	"github.com/scoutlab/phd-recruiting-service/internal/sources/openalex"
	"github.com/scoutlab/phd-recruiting-service/internal/sources/semanticscholar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("phd-recruiting-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	candidateRepo := repository.NewPgCandidateRepository(db)
	publicationRepo := repository.NewPgPublicationRepository(db)
	skillRepo := repository.NewPgSkillRepository(db)

	// Register publication sources. Registration order is search order for
	// institution queries; disabled sources register but never run.
	registry := sources.NewRegistry()
	registry.Register(openalex.New(openalex.Config{
		BaseURL:            cfg.Sources.OpenAlex.BaseURL,
		Email:              cfg.Sources.OpenAlex.Email,
		Timeout:            cfg.Sources.OpenAlex.Timeout,
		RateLimit:          cfg.Sources.OpenAlex.RateLimit,
		MaxResults:         cfg.Sources.OpenAlex.MaxResults,
		FallbackYearWindow: cfg.Pipeline.FallbackYearWindow,
		Enabled:            cfg.Sources.OpenAlex.Enabled,
	}, logger))
	registry.Register(semanticscholar.New(semanticscholar.Config{
		BaseURL:    cfg.Sources.SemanticScholar.BaseURL,
		APIKey:     cfg.Sources.SemanticScholar.APIKey,
		Timeout:    cfg.Sources.SemanticScholar.Timeout,
		RateLimit:  cfg.Sources.SemanticScholar.RateLimit,
		MaxResults: cfg.Sources.SemanticScholar.MaxResults,
		Enabled:    cfg.Sources.SemanticScholar.Enabled,
	}, logger))
	registry.Register(crossref.New(crossref.Config{
		BaseURL:    cfg.Sources.CrossRef.BaseURL,
		Email:      cfg.Sources.CrossRef.Email,
		Timeout:    cfg.Sources.CrossRef.Timeout,
		RateLimit:  cfg.Sources.CrossRef.RateLimit,
		MaxResults: cfg.Sources.CrossRef.MaxResults,
		Enabled:    cfg.Sources.CrossRef.Enabled,
	}, logger))

	for _, src := range registry.EnabledSources() {
		logger.Info().Str("source", src.Name()).Msg("publication source enabled")
	}

	// Create metrics and the pipeline services.
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	populator := pipeline.NewPopulator(
		cfg.Pipeline,
		registry,
		candidateRepo,
		publicationRepo,
		skillRepo,
		metrics,
		logger,
	)
	scraper := pipeline.NewScraper(registry, metrics, logger)

	// Create the HTTP server.
	httpSrv := httpserver.NewServer(
		httpserver.Config{
			Address:         cfg.Server.HTTPAddress(),
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			IdleTimeout:     cfg.Server.IdleTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			MetricsEnabled:  cfg.Metrics.Enabled,
			MetricsPath:     cfg.Metrics.Path,
		},
		populator,
		scraper,
		candidateRepo,
		publicationRepo,
		skillRepo,
		db,
		logger,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for a shutdown signal or a server failure.
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
