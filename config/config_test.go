package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "DATABASE_PATH", "SESSION_SECRET",
		"SESSION_TTL_MINUTES", "RECOMMEND_DELAY_MS", "LOGIN_DELAY_MS",
		"SOIL_INTERVAL_MS", "CORS_ORIGINS", "LOG_LEVEL",
		"LOGIN_RATE_MAX", "LOGIN_RATE_WINDOW_SECONDS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// Keep a stray .env in the package dir from leaking in.
	t.Chdir(t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 2*time.Second, cfg.Simulate.RecommendDelay())
	assert.Equal(t, time.Second, cfg.Simulate.LoginDelay())
	assert.Equal(t, 5*time.Second, cfg.Simulate.SoilInterval())
	assert.Equal(t, time.Hour, cfg.Session.TTL())
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window())
}

func TestLoad_RequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "fertpro.yaml")
	yml := "server:\n  port: 9000\nsession:\n  secret: from-file\nsimulate:\n  recommend_delay_ms: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Session.Secret)
	assert.Equal(t, 10*time.Millisecond, cfg.Simulate.RecommendDelay())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 1000, cfg.Simulate.LoginDelayMS)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./data/fertpro.db", cfg.Database.Path)
}

func TestLoad_InvalidNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("SOIL_INTERVAL_MS", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOIL_INTERVAL_MS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero ttl", func(c *Config) { c.Session.TTLMinutes = 0 }},
		{"negative delay", func(c *Config) { c.Simulate.LoginDelayMS = -1 }},
		{"zero interval", func(c *Config) { c.Simulate.SoilIntervalMS = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Session.Secret = "s"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
