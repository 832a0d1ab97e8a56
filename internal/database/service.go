package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	dberrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
)

// SQLiteService implements the Service interface for SQLite
//
// Lifecycle:
// 1. Create service with NewSQLiteService()
// 2. Connect to database with Connect()
// 3. Apply the schema with Migrate()
// 4. Hand DB() to the repository
// 5. Close service with Close()
type SQLiteService struct {
	db       *sql.DB
	config   *Config
	migrator MigrationManager
	logger   logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates a new SQLite database service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{
		logger: logger,
	}
}

// Connect opens and pings the database described by config
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		return dberrors.HandleValidationError("Connect", "config", "nil", "configuration is required")
	}
	if err := config.Validate(); err != nil {
		return dberrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}
	s.config = config

	// Close any existing connection to prevent resource leaks
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrator = nil
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	migrator, err := NewSchemaMigrator(db, s.logger)
	if err != nil {
		db.Close()
		return dberrors.NewWithContext("Connect", err, dberrors.ErrCodeSchema, map[string]string{
			"path": config.Path,
		})
	}

	s.db = db
	s.migrator = migrator

	s.logger.Info("Connected to SQLite database", "path", config.Path)
	return nil
}

// Close closes the database connection
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return dberrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}

	s.db = nil
	s.migrator = nil

	s.logger.Info("Closed SQLite database connection")
	return nil
}

// Migrate applies the embedded schema migrations
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Migrate", "database not connected")
	}
	if _, err := s.migrator.Up(ctx); err != nil {
		return dberrors.NewWithContext("Migrate", err, dberrors.ClassifyError(err), map[string]string{
			"path": s.config.Path,
		})
	}
	return nil
}

// Health checks the database connection health
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Health", "database not connected")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return dberrors.WrapStoreError("Health", err)
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapStoreError("Health", err)
	}
	if result != 1 {
		return dberrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}
	return nil
}

// DB returns the underlying database connection for use by repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// Config returns the configuration passed to Connect
func (s *SQLiteService) Config() *Config {
	return s.config
}

// GetMigrationVersion returns the schema version recorded in the database
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, dberrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}
	version, err := s.migrator.Version(ctx)
	if err != nil {
		return 0, dberrors.WrapStoreError("GetMigrationVersion", err)
	}
	return version, nil
}

// GetStats returns database connection pool statistics
func (s *SQLiteService) GetStats() sql.DBStats {
	if s.db == nil {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// Optimize runs ANALYZE and VACUUM. Run after pruning focus history.
func (s *SQLiteService) Optimize(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Optimize", "database not connected")
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return dberrors.NewWithContext("Optimize", err, dberrors.ClassifyError(err), map[string]string{
			"phase": "analyze",
		})
	}

	// ignored on non-WAL journals
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal_checkpoint failed", "error", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return dberrors.NewWithContext("Optimize", err, dberrors.ClassifyError(err), map[string]string{
			"phase": "vacuum",
		})
	}

	s.logger.Debug("Database optimization completed")
	return nil
}

// configureConnectionPool sizes the pool for SQLite. Without WAL a single
// connection avoids lock contention; with WAL a small pool is allowed.
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.ForceSingleConnection || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Debug("Configured SQLite for single connection mode", "journalMode", config.JournalMode)
	} else {
		maxConns := config.MaxConnections
		if maxConns <= 0 || maxConns > 4 {
			maxConns = 4
		}
		idleConns := min(config.MaxIdleConns, maxConns)
		if idleConns <= 0 {
			idleConns = 1
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(idleConns)
		s.logger.Debug("Configured SQLite for limited connection pool (WAL mode)",
			"maxOpenConns", maxConns, "maxIdleConns", idleConns)
	}

	// in-memory databases vanish with their last connection
	if !config.IsInMemory() {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
}
