package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout is the per-request HTTP timeout used when the config file
// does not set one.
const DefaultTimeout = 30 * time.Second

// Config holds the optional tvbackup settings file. Everything has a working
// default; most users never create the file at all.
type Config struct {
	// BaseURL is the Tradervue server; the API path is appended by the client.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// UserAgent identifies this tool to the Tradervue API.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
	// TargetUser, when set, issues API calls on behalf of another user via
	// the Tradervue-UserId header (organization accounts only).
	TargetUser string `json:"target_user,omitempty" yaml:"target_user,omitempty"`
	// Timeout is the per-request HTTP timeout as a duration string, e.g. "30s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// HistoryDB is the SQLite file recording past backup runs. Empty disables
	// the run ledger.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tvbackup.yaml"
	}
	return filepath.Join(home, ".tvbackup.yaml")
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	historyDB := ".tvbackup.sqlite"
	if home, err := os.UserHomeDir(); err == nil {
		historyDB = filepath.Join(home, ".tvbackup.sqlite")
	}

	return &Config{
		BaseURL:   "https://www.tradervue.com",
		UserAgent: "tvbackup (github.com/greinacker/tvbackup)",
		Timeout:   "30s",
		HistoryDB: historyDB,
	}
}

// Load resolves the effective configuration. With an empty path the default
// location is used, and a missing default file simply means defaults; a path
// given explicitly must exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default(), nil
		}
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL: %q", c.BaseURL)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required")
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("timeout is not a valid duration: %q", c.Timeout)
		}
	}
	return nil
}

// HTTPTimeout returns the configured request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return DefaultTimeout
	}
	return d
}
