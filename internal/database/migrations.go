package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"webwrap/internal/infrastructure/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SchemaMigrator applies the embedded schema to one connection
type SchemaMigrator struct {
	provider *goose.Provider
	logger   logging.Logger
}

var _ MigrationManager = (*SchemaMigrator)(nil)

// NewSchemaMigrator collects the embedded migrations for db. It fails when
// db is nil or no migration files are embedded.
func NewSchemaMigrator(db *sql.DB, logger logging.Logger) (*SchemaMigrator, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}

	logger.Debug("Collected schema migrations", "count", len(provider.ListSources()))
	return &SchemaMigrator{provider: provider, logger: logger}, nil
}

// Up applies pending migrations and returns the resulting schema version
func (m *SchemaMigrator) Up(ctx context.Context) (int64, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		m.logger.Debug("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return 0, err
	}
	if len(results) > 0 {
		m.logger.Info("Schema migrated", "version", version, "applied", len(results))
	}
	return version, nil
}

// Version returns the schema version recorded in the database
func (m *SchemaMigrator) Version(ctx context.Context) (int64, error) {
	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Latest returns the highest embedded migration version
func (m *SchemaMigrator) Latest() int64 {
	var latest int64
	for _, s := range m.provider.ListSources() {
		if s.Version > latest {
			latest = s.Version
		}
	}
	return latest
}
