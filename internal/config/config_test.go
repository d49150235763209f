package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"port": 9090, "data_dir": "/tmp/resumes", "models": {"advanced": "gemini-3.0-pro"}, "verbose": true}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/resumes", cfg.DataDir)
	assert.Equal(t, "gemini-3.0-pro", cfg.Models["advanced"])
	assert.True(t, cfg.Verbose)
}

func TestLoad_EnvFillsEmptyFields(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/resumes")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/resumes", cfg.DatabaseURL)
}

func TestLoad_FileWinsOverEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "file-key"}`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.APIKey)
}

func TestLoad_FileWinsOverEnvForDefaultEqualValues(t *testing.T) {
	t.Setenv("RESUME_DATA_DIR", "/env/resumes")
	t.Setenv("PORT", "9999")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 8080, "data_dir": "data"}`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestLoad_EnvWinsOverDefaults(t *testing.T) {
	t.Setenv("RESUME_DATA_DIR", "/env/resumes")
	t.Setenv("PORT", "9999")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "/env/resumes", cfg.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))

	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"zero port", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"no storage target", func(c *Config) { c.DataDir = ""; c.DatabaseURL = "" }, true},
		{"database only is fine", func(c *Config) { c.DataDir = ""; c.DatabaseURL = "postgres://x" }, false},
		{"unknown model tier", func(c *Config) { c.Models = map[string]string{"turbo": "x"} }, true},
		{"known model tiers", func(c *Config) { c.Models = map[string]string{"lite": "a", "standard": "b", "advanced": "c"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
