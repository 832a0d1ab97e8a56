package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dberrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/testutils"
)

func connectTestService(t *testing.T, config *Config) *SQLiteService {
	t.Helper()
	service := NewSQLiteService(&testutils.RecordingLogger{})
	if err := service.Connect(context.Background(), config); err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() { service.Close() })
	return service
}

func TestSQLiteService_Connect(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	config := DefaultConfig()
	config.Path = dbPath
	service := connectTestService(t, config)

	if err := service.Health(context.Background()); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created: %s", dbPath)
	}
	if service.Config() != config {
		t.Error("Config() should return the connected configuration")
	}
}

func TestSQLiteService_ConnectInvalidConfig(t *testing.T) {
	t.Parallel()

	service := NewSQLiteService(&testutils.RecordingLogger{})

	err := service.Connect(context.Background(), nil)
	if !dberrors.IsValidation(err) {
		t.Errorf("expected validation error for nil config, got %v", err)
	}

	config := DefaultConfig()
	config.Path = ""
	if err := service.Connect(context.Background(), config); !dberrors.IsValidation(err) {
		t.Errorf("expected validation error for empty path, got %v", err)
	}
}

func TestSQLiteService_Migrate(t *testing.T) {
	t.Parallel()

	service := connectTestService(t, TestConfig())
	ctx := context.Background()

	if err := service.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	var n int
	if err := service.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM focus_events").Scan(&n); err != nil {
		t.Fatalf("focus_events table was not created: %v", err)
	}

	version, err := service.GetMigrationVersion(ctx)
	if err != nil {
		t.Fatalf("GetMigrationVersion() error = %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
}

func TestSQLiteService_NotConnected(t *testing.T) {
	t.Parallel()

	service := NewSQLiteService(&testutils.RecordingLogger{})
	ctx := context.Background()

	checks := map[string]error{
		"Migrate":  service.Migrate(ctx),
		"Health":   service.Health(ctx),
		"Optimize": service.Optimize(ctx),
	}
	for name, err := range checks {
		if !dberrors.IsConnection(err) {
			t.Errorf("%s: expected connection error, got %v", name, err)
		}
	}

	if _, err := service.GetMigrationVersion(ctx); !dberrors.IsConnection(err) {
		t.Errorf("GetMigrationVersion: expected connection error, got %v", err)
	}
	if service.GetStats().OpenConnections != 0 {
		t.Error("expected empty stats")
	}
	if err := service.Close(); err != nil {
		t.Errorf("Close on unconnected service should be a no-op, got %v", err)
	}
}

func TestSQLiteService_Reconnect(t *testing.T) {
	t.Parallel()

	service := connectTestService(t, TestConfig())
	first := service.DB()

	if err := service.Connect(context.Background(), TestConfig()); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if service.DB() == first {
		t.Error("expected a fresh connection after reconnect")
	}
	if err := first.Ping(); err == nil {
		t.Error("expected the previous connection to be closed")
	}
}

func TestSQLiteService_ConnectionPool(t *testing.T) {
	t.Parallel()

	memory := connectTestService(t, TestConfig())
	if got := memory.GetStats().MaxOpenConnections; got != 1 {
		t.Errorf("in-memory MaxOpenConnections = %d, want 1", got)
	}

	config := DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "pool.db")
	config.MaxConnections = 10
	config.MaxIdleConns = 2
	wal := connectTestService(t, config)
	if got := wal.GetStats().MaxOpenConnections; got != 4 {
		t.Errorf("WAL MaxOpenConnections = %d, want 4", got)
	}
}

func TestSQLiteService_Optimize(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "optimize.db")
	service := connectTestService(t, config)
	ctx := context.Background()

	if err := service.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := service.Optimize(ctx); err != nil {
		t.Errorf("Optimize() error = %v", err)
	}
}
