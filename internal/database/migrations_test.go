package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"webwrap/internal/testutils"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_migrations.db")
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestMigrator(t *testing.T, db *sql.DB) *SchemaMigrator {
	t.Helper()
	migrator, err := NewSchemaMigrator(db, &testutils.RecordingLogger{})
	if err != nil {
		t.Fatalf("NewSchemaMigrator() error = %v", err)
	}
	return migrator
}

func TestSchemaMigrator_Up(t *testing.T) {
	db := openTestDB(t)
	migrator := newTestMigrator(t, db)
	ctx := context.Background()

	version, err := migrator.Up(ctx)
	if err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if version != 2 || version != migrator.Latest() {
		t.Errorf("version = %d, latest = %d, want 2", version, migrator.Latest())
	}

	tables := []string{"window_state", "focus_events", "goose_db_version"}
	for _, table := range tables {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}

	current, err := migrator.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if current != 2 {
		t.Errorf("Version() = %d, want 2", current)
	}
}

func TestSchemaMigrator_Idempotent(t *testing.T) {
	db := openTestDB(t)
	migrator := newTestMigrator(t, db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		version, err := migrator.Up(ctx)
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if version != 2 {
			t.Errorf("run %d: version = %d, want 2", i, version)
		}
	}
}

func TestSchemaMigrator_WindowStateIsSingleRow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if _, err := newTestMigrator(t, db).Up(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO window_state (id, width, height) VALUES (2, 800, 600)"); err == nil {
		t.Error("expected the id check constraint to reject a second row")
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO window_state (id, width, height) VALUES (1, 0, 600)"); err == nil {
		t.Error("expected the width check constraint to reject zero")
	}
}

func TestSchemaMigrator_NilDB(t *testing.T) {
	migrator, err := NewSchemaMigrator(nil, &testutils.RecordingLogger{})
	if err == nil {
		t.Fatal("Expected error for nil database, got nil")
	}
	if migrator != nil {
		t.Error("expected no migrator for a nil database")
	}
	if err.Error() != "database connection is nil" {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestSchemaMigrator_ContextCancellation(t *testing.T) {
	db := openTestDB(t)
	migrator := newTestMigrator(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := migrator.Up(ctx); err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}
