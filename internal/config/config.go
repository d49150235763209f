// Package config provides configuration loading and validation for the
// CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the application configuration. It can be loaded from
// a JSON file; environment variables fill in anything the file leaves
// empty. All fields are optional.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Collaborators
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; empty selects the file store
	DataDir     string `json:"data_dir,omitempty"`     // Directory for the file store

	// Model overrides by tier name (lite, standard, advanced)
	Models map[string]string `json:"models,omitempty"`

	// Logging
	LogJSON bool `json:"log_json,omitempty"` // JSON log encoding
	Verbose bool `json:"verbose,omitempty"`  // Debug-level logging
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Port:    8080,
		DataDir: "data",
	}
}

// Load reads configuration from a JSON file. An empty path yields the
// defaults with environment overrides applied. Precedence: file values win
// over the environment, the environment wins over the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv fills fields the file left unset from environment variables.
// Flags are merged later and win over both.
func (c *Config) applyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.DataDir == "" {
		c.DataDir = os.Getenv("RESUME_DATA_DIR")
	}
	if c.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Port = p
		}
	}
}

// applyDefaults fills whatever the file and environment both left unset.
func (c *Config) applyDefaults() {
	def := Defaults()
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}
	if c.DatabaseURL == "" && c.DataDir == "" {
		return fmt.Errorf("config error: either 'database_url' or 'data_dir' is required")
	}
	for tier := range c.Models {
		switch tier {
		case "lite", "standard", "advanced":
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}
	return nil
}
