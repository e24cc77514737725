package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Migrator applies schema migrations from a directory of numbered SQL files.
// golang-migrate's postgres driver needs a database/sql handle, so the
// migrator borrows one from the pgx pool and must be closed to release it.
type Migrator struct {
	m      *migrate.Migrate
	handle *sql.DB
	logger zerolog.Logger
}

// NewMigrator opens the migration source at dir against the given database.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil || db.pool == nil {
		return nil, errors.New("migrator needs an open database")
	}
	if dir == "" {
		return nil, errors.New("migrator needs a migrations directory")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations directory: %w", err)
	}

	handle := stdlib.OpenDBFromPool(db.pool)

	driver, err := postgres.WithInstance(handle, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	return &Migrator{m: m, handle: handle, logger: logger}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	err := mg.m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.logger.Info().Msg("schema already up to date")
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}
	mg.logger.Info().Msg("schema migrated")
	return nil
}

// Down rolls the schema all the way back.
func (mg *Migrator) Down() error {
	mg.logger.Warn().Msg("rolling back entire schema")
	err := mg.m.Down()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.logger.Info().Msg("nothing to roll back")
		return nil
	case err != nil:
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// Steps applies n migrations forward, or -n backward.
func (mg *Migrator) Steps(n int) error {
	err := mg.m.Steps(n)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.logger.Info().Msg("schema already up to date")
		return nil
	// golang-migrate surfaces walking past the last file as ErrNotExist.
	case errors.Is(err, os.ErrNotExist):
		mg.logger.Info().Int("steps", n).Msg("fewer migrations available than requested")
		return nil
	case err != nil:
		return fmt.Errorf("apply %d migration steps: %w", n, err)
	}
	mg.logger.Info().Int("steps", n).Msg("migration steps applied")
	return nil
}

// Version reports the current schema version and whether it is dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return mg.m.Version()
}

// Force overwrites the recorded schema version without running any
// migrations. Recovery tool for a dirty version after a failed run.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn().Int("version", version).Msg("forcing schema version")
	return mg.m.Force(version)
}

// Close releases the migration source and returns the borrowed sql.DB
// handle's connections to the pool.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	var handleErr error
	if mg.handle != nil {
		handleErr = mg.handle.Close()
	}
	return errors.Join(sourceErr, dbErr, handleErr)
}
