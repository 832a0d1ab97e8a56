package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const appDirName = "webwrap"

// AppConfig describes the hosted web application
type AppConfig struct {
	URL       string `yaml:"url"`        // Target URL loaded into the window
	CustomCSS string `yaml:"custom_css"` // Optional stylesheet URL, fetched once per page load
	Title     string `yaml:"title"`      // Window title outside focus requests
}

// WindowConfig holds the initial window geometry
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// WMConfig holds the window-manager command lines
type WMConfig struct {
	ListCommand  string `yaml:"list_command"`  // Prints blank-line separated window blocks
	FocusCommand string `yaml:"focus_command"` // Contains exactly one %d for the window id
}

// ExecutorConfig controls external command execution
type ExecutorConfig struct {
	Timeout time.Duration `yaml:"timeout"` // 0 waits forever
}

// StylesheetConfig controls the custom stylesheet fetch
type StylesheetConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StoreConfig controls the window-state store
type StoreConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"` // Focus history retention, 0 keeps everything
}

// LogConfig controls logging output
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // Optional log file in addition to the console
}

// Config is the complete shell configuration
type Config struct {
	App         AppConfig        `yaml:"app"`
	Window      WindowConfig     `yaml:"window"`
	WM          WMConfig         `yaml:"wm"`
	Executor    ExecutorConfig   `yaml:"executor"`
	Stylesheet  StylesheetConfig `yaml:"stylesheet"`
	Store       StoreConfig      `yaml:"store"`
	Log         LogConfig        `yaml:"log"`
	Environment string           `yaml:"environment"`
}

// Dir returns the per-user configuration directory
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, appDirName)
}

// DefaultConfig returns a configuration with sensible defaults. App.URL is
// left empty; it must come from the file, the environment or a flag.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Title: "Web App",
		},
		Window: WindowConfig{
			Width:  800,
			Height: 600,
		},
		WM: WMConfig{
			ListCommand:  "niri msg windows",
			FocusCommand: "niri msg action focus-window --id %d",
		},
		Stylesheet: StylesheetConfig{
			Timeout:   10 * time.Second,
			UserAgent: "webwrap/1.0",
		},
		Store: StoreConfig{
			Enabled:       true,
			Path:          filepath.Join(Dir(), "state.db"),
			RetentionDays: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
		Environment: "production",
	}
}

// DevelopmentConfig returns defaults tuned for local development
func DevelopmentConfig() *Config {
	c := DefaultConfig()
	c.Environment = "development"
	c.Log.Level = "debug"
	c.Store.Path = filepath.Join(Dir(), "state_dev.db")
	return c
}

// TestConfig returns defaults that never touch the user's files
func TestConfig() *Config {
	c := DefaultConfig()
	c.Environment = "test"
	c.Log.Level = "error"
	c.Store.Path = ":memory:"
	c.Store.RetentionDays = 0
	return c
}

// ConfigForEnvironment returns the defaults for env
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		return DefaultConfig()
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validateHTTPURL("app.url", c.App.URL); err != nil {
		return err
	}
	if c.App.CustomCSS != "" {
		if err := validateHTTPURL("app.custom_css", c.App.CustomCSS); err != nil {
			return err
		}
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}

	if err := c.ValidateCommands(); err != nil {
		return err
	}
	if c.Stylesheet.Timeout < 0 {
		return fmt.Errorf("stylesheet.timeout cannot be negative, got %v", c.Stylesheet.Timeout)
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path cannot be empty when the store is enabled")
	}
	if c.Store.RetentionDays < 0 {
		return fmt.Errorf("store.retention_days cannot be negative, got %d", c.Store.RetentionDays)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level: %s", c.Log.Level)
	}

	validEnvironments := map[string]bool{"development": true, "test": true, "production": true}
	if !validEnvironments[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	return nil
}

// ValidateCommands checks only the wm and executor sections, which is all
// the window-less subcommands need
func (c *Config) ValidateCommands() error {
	if strings.TrimSpace(c.WM.ListCommand) == "" {
		return fmt.Errorf("wm.list_command cannot be empty")
	}
	verbs := strings.ReplaceAll(c.WM.FocusCommand, "%%", "")
	if strings.Count(verbs, "%") != 1 || strings.Count(verbs, "%d") != 1 {
		return fmt.Errorf("wm.focus_command must contain exactly one %%d placeholder and no other verbs, got %q", c.WM.FocusCommand)
	}
	if c.Executor.Timeout < 0 {
		return fmt.Errorf("executor.timeout cannot be negative, got %v", c.Executor.Timeout)
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required (set it in the config file, WEB_APP_URL or --url)", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, raw)
	}
	return nil
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Clone returns a copy; Config holds no reference types
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
