package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the window-state store settings
type Config struct {
	// Connection settings
	Path                  string        `yaml:"path"`                  // Database file path
	MaxConnections        int           `yaml:"maxConnections"`        // Maximum number of open connections
	MaxIdleConns          int           `yaml:"maxIdleConns"`          // Maximum number of idle connections
	ConnMaxLifetime       time.Duration `yaml:"connMaxLifetime"`       // Maximum connection lifetime
	ForceSingleConnection bool          `yaml:"forceSingleConnection"` // Force single connection mode

	// Migration settings
	AutoMigrate bool `yaml:"autoMigrate"` // Run migrations on startup

	// Performance settings
	JournalMode     string `yaml:"journalMode"`     // SQLite journal mode (WAL, DELETE, etc.)
	SynchronousMode string `yaml:"synchronousMode"` // SQLite synchronous mode (FULL, NORMAL, OFF)
	BusyTimeout     int    `yaml:"busyTimeout"`     // SQLite busy timeout in milliseconds
	ForeignKeys     bool   `yaml:"foreignKeys"`     // Enable foreign key constraints

	// Data retention
	RetentionDays int `yaml:"retentionDays"` // Days of focus history to keep (0 = keep all)
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:            "webwrap.db",
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		BusyTimeout:     5000,
		ForeignKeys:     true,
		RetentionDays:   30,
	}
}

// TestConfig returns an in-memory configuration for tests
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = ":memory:"
	config.RetentionDays = 0

	// WAL is meaningless for in-memory databases, and each pooled
	// connection would get its own database
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.ForceSingleConnection = true
	config.BusyTimeout = 1000
	return config
}

// ForPath returns the default configuration for a database at path
func ForPath(path string, retentionDays int) *Config {
	if path == ":memory:" {
		config := TestConfig()
		config.RetentionDays = retentionDays
		return config
	}
	config := DefaultConfig()
	config.Path = path
	config.RetentionDays = retentionDays
	return config
}

// Validate validates the configuration parameters and creates the
// database directory if needed
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}
	if c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) cannot be greater than maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connMaxLifetime cannot be negative, got %v", c.ConnMaxLifetime)
	}

	validJournalModes := []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}
	journalModeValid := false
	for _, mode := range validJournalModes {
		if strings.EqualFold(c.JournalMode, mode) {
			journalModeValid = true
			break
		}
	}
	if !journalModeValid {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	validSyncModes := map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	if !validSyncModes[c.SynchronousMode] {
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retentionDays cannot be negative, got %d", c.RetentionDays)
	}

	return nil
}

// GetConnectionString builds the go-sqlite3 DSN
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	values.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout))

	// escape only what would break query parsing
	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}

	return path + "?" + values.Encode()
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// IsInMemory returns true if the database is configured to use in-memory storage
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}

// RetentionCutoff returns the oldest focus event time to keep, or the zero
// time when history is kept forever
func (c *Config) RetentionCutoff(now time.Time) time.Time {
	if c.RetentionDays == 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -c.RetentionDays)
}
