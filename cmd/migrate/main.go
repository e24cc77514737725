// Command migrate manages the recruiting database schema from the command
// line. Exactly one action flag is accepted per invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutlab/phd-recruiting-service/internal/config"
	"github.com/scoutlab/phd-recruiting-service/internal/database"
	"github.com/scoutlab/phd-recruiting-service/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		up      = flag.Bool("up", false, "apply all pending migrations")
		down    = flag.Bool("down", false, "roll back the entire schema")
		steps   = flag.Int("steps", 0, "apply N migrations forward, or -N backward")
		version = flag.Bool("version", false, "print the current schema version")
		force   = flag.Int("force", -1, "overwrite the recorded schema version (dirty-state recovery)")
		dir     = flag.String("path", "", "migrations directory (defaults to the configured path)")
	)
	flag.Parse()

	actions := 0
	for _, selected := range []bool{*up, *down, *steps != 0, *version, *force >= 0} {
		if selected {
			actions++
		}
	}
	switch {
	case actions == 0:
		flag.Usage()
		return fmt.Errorf("choose one of -up, -down, -steps N, -version, -force V")
	case actions > 1:
		return fmt.Errorf("choose a single action")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "migrate").Logger()

	migrationDir := cfg.Database.MigrationPath
	if *dir != "" {
		migrationDir = *dir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, migrationDir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	switch {
	case *up:
		err = migrator.Up()
	case *down:
		err = migrator.Down()
	case *steps != 0:
		err = migrator.Steps(*steps)
	case *force >= 0:
		err = migrator.Force(*force)
	}
	if err != nil {
		return err
	}

	reportVersion(migrator, logger)
	return nil
}

// reportVersion logs the schema version every action finishes on. A fresh
// database with no applied migrations is not an error worth failing over.
func reportVersion(migrator *database.Migrator, logger zerolog.Logger) {
	v, dirty, err := migrator.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine schema version")
		return
	}
	logger.Info().
		Uint("version", v).
		Bool("dirty", dirty).
		Msg("current schema version")
}
