package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplanhq/dayplan-cli/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit path must exist")

	// No path at all falls back to defaults.
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("HOME", t.TempDir())
	cfg, err = config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.dayplan.app", cfg.Server.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, 2*time.Minute, cfg.Cache.AgendaTTL)
	assert.Equal(t, 30*time.Second, cfg.Request.RefreshSkew)
	assert.NotEmpty(t, cfg.Storage.Dir)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
server:
  baseURL: https://staging.dayplan.app
  timeout: 5s
storage:
  dir: ` + dir + `
logger:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.dayplan.app", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, dir, cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// Untouched sections still get defaults.
	assert.Equal(t, 2*time.Minute, cfg.Cache.AgendaTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: warn\n"), 0o600))
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*config.Config) {}},
		{name: "relative baseURL", mutate: func(c *config.Config) { c.Server.BaseURL = "/api" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *config.Config) { c.Server.Timeout = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server: config.Server{BaseURL: "https://api.dayplan.app", Timeout: time.Second},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
