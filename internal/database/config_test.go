package database

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		modifier    func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:     "defaults should pass",
			modifier: func(c *Config) {},
		},
		{
			name:        "empty path should fail",
			modifier:    func(c *Config) { c.Path = "" },
			expectError: true,
			errorMsg:    "database path cannot be empty",
		},
		{
			name:        "negative maxConnections should fail",
			modifier:    func(c *Config) { c.MaxConnections = -1 },
			expectError: true,
			errorMsg:    "maxConnections must be positive",
		},
		{
			name: "maxIdleConns greater than maxConnections should fail",
			modifier: func(c *Config) {
				c.MaxConnections = 2
				c.MaxIdleConns = 3
			},
			expectError: true,
			errorMsg:    "cannot be greater than maxConnections",
		},
		{
			name:        "invalid journal mode should fail",
			modifier:    func(c *Config) { c.JournalMode = "BOGUS" },
			expectError: true,
			errorMsg:    "invalid journalMode",
		},
		{
			name:     "journal mode is case-insensitive",
			modifier: func(c *Config) { c.JournalMode = "wal" },
		},
		{
			name: "WAL with in-memory database should fail",
			modifier: func(c *Config) {
				c.Path = ":memory:"
				c.JournalMode = "WAL"
			},
			expectError: true,
			errorMsg:    "journalMode cannot be WAL",
		},
		{
			name:        "invalid synchronous mode should fail",
			modifier:    func(c *Config) { c.SynchronousMode = "SOMETIMES" },
			expectError: true,
			errorMsg:    "invalid synchronousMode",
		},
		{
			name:        "negative retention should fail",
			modifier:    func(c *Config) { c.RetentionDays = -1 },
			expectError: true,
			errorMsg:    "retentionDays cannot be negative",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			config := DefaultConfig()
			config.Path = filepath.Join(t.TempDir(), "state.db")
			tt.modifier(config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error message to contain %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfig_ValidateCreatesDirectory(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "nested", "dir", "state.db")
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestTestConfig(t *testing.T) {
	t.Parallel()

	config := TestConfig()
	if !config.IsInMemory() {
		t.Error("TestConfig should be in-memory")
	}
	if !config.ForceSingleConnection {
		t.Error("in-memory databases need a single connection")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("TestConfig should be valid: %v", err)
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	if c := ForPath(":memory:", 7); !c.IsInMemory() || c.JournalMode != "MEMORY" || c.RetentionDays != 7 {
		t.Errorf("ForPath(:memory:) = %+v", c)
	}
	if c := ForPath("/tmp/x.db", 0); c.Path != "/tmp/x.db" || c.JournalMode != "WAL" {
		t.Errorf("ForPath(file) = %+v", c)
	}
}

func TestConfig_GetConnectionString(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Path = "/data/what?&.db"

	connStr := config.GetConnectionString()
	path, query, ok := strings.Cut(connStr, "?")
	if !ok {
		t.Fatalf("connection string has no query: %q", connStr)
	}
	if path != "/data/what%3F%26.db" {
		t.Errorf("path = %q", path)
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("invalid query: %v", err)
	}
	expected := map[string]string{
		"_foreign_keys": "on",
		"_journal_mode": "WAL",
		"_synchronous":  "NORMAL",
		"_busy_timeout": "5000",
	}
	for key, want := range expected {
		if got := values.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	clone := config.Clone()
	clone.Path = "other.db"
	if config.Path == clone.Path {
		t.Error("Clone shares state with the original")
	}
}

func TestConfig_RetentionCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	config := DefaultConfig()
	config.RetentionDays = 30
	if got := config.RetentionCutoff(now); !got.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("RetentionCutoff() = %v", got)
	}

	config.RetentionDays = 0
	if got := config.RetentionCutoff(now); !got.IsZero() {
		t.Errorf("RetentionCutoff() with no retention = %v", got)
	}
}
