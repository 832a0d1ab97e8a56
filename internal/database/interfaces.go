package database

import (
	"context"
	"database/sql"
)

// Service defines the interface for database service operations
type Service interface {
	// Connection management
	Connect(ctx context.Context, config *Config) error
	Close() error
	Health(ctx context.Context) error

	// Database access
	DB() *sql.DB

	// Migration management
	Migrate(ctx context.Context) error
	GetMigrationVersion(ctx context.Context) (int64, error)

	// Maintenance operations
	Optimize(ctx context.Context) error
	GetStats() sql.DBStats
}

// MigrationManager applies and reports the schema version
type MigrationManager interface {
	Up(ctx context.Context) (int64, error)
	Version(ctx context.Context) (int64, error)
}
