package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no explicit path is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load builds the configuration from defaults, then the YAML file, then the
// environment. An explicit path must exist; the default path is optional.
// The result is not validated so callers can apply flag overrides first.
func Load(path string) (*Config, error) {
	env := os.Getenv("WEBWRAP_ENVIRONMENT")
	c := ConfigForEnvironment(env)

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if err := c.LoadFromFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := c.LoadFromEnvironment(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile overlays the YAML file at path onto c
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// WriteFile writes c as YAML to path, creating the directory
func (c *Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromEnvironment overlays environment variables onto c. WEB_APP_URL and
// WEB_APP_CUSTOM_CSS are kept for compatibility with existing launchers.
func (c *Config) LoadFromEnvironment() error {
	if v := os.Getenv("WEB_APP_URL"); v != "" {
		c.App.URL = v
	}
	if v := os.Getenv("WEB_APP_CUSTOM_CSS"); v != "" {
		c.App.CustomCSS = v
	}
	if v := os.Getenv("WEBWRAP_TITLE"); v != "" {
		c.App.Title = v
	}

	if v := os.Getenv("WEBWRAP_WM_LIST_COMMAND"); v != "" {
		c.WM.ListCommand = v
	}
	if v := os.Getenv("WEBWRAP_WM_FOCUS_COMMAND"); v != "" {
		c.WM.FocusCommand = v
	}

	if v := os.Getenv("WEBWRAP_EXEC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WEBWRAP_EXEC_TIMEOUT %q: %w", v, err)
		}
		c.Executor.Timeout = d
	}

	if v := os.Getenv("WEBWRAP_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if enabled, present := parseBoolEnv("WEBWRAP_STORE_ENABLED"); present {
		c.Store.Enabled = enabled
	}
	if v := os.Getenv("WEBWRAP_STORE_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days >= 0 {
			c.Store.RetentionDays = days
		}
	}

	if v := os.Getenv("WEBWRAP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WEBWRAP_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("WEBWRAP_ENVIRONMENT"); v != "" {
		c.Environment = v
	}

	return nil
}

// parseBoolEnv reads key as a boolean. The second result reports whether the
// variable held a recognised value.
func parseBoolEnv(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}

	switch value {
	case "yes", "YES", "Yes", "y", "Y", "on", "ON", "On":
		return true, true
	case "no", "NO", "No", "n", "N", "off", "OFF", "Off":
		return false, true
	default:
		return false, false
	}
}
