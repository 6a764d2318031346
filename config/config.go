// Package config loads the service configuration.
//
// Values come from three layers, later ones winning:
//  1. built-in defaults (DefaultConfig)
//  2. an optional YAML file (--config)
//  3. environment variables, including a .env file in the working directory
//
// Keeping everything in one Config value means no other package calls
// os.Getenv.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config carries every setting.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Simulate  SimulateConfig  `yaml:"simulate"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the SQLite settings. Only the forum is stored there.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig holds the token secret and the idle lifetime of a session.
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// SimulateConfig holds the artificial latencies and the soil cadence.
type SimulateConfig struct {
	RecommendDelayMS int `yaml:"recommend_delay_ms"`
	LoginDelayMS     int `yaml:"login_delay_ms"`
	SoilIntervalMS   int `yaml:"soil_interval_ms"`
}

// RateLimitConfig bounds login/sign-up submissions per IP.
type RateLimitConfig struct {
	LoginMax           int `yaml:"login_max"`
	LoginWindowSeconds int `yaml:"login_window_seconds"`
}

// LogConfig selects the zap level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in defaults. Session.Secret is empty and
// must be provided.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:8080"},
		},
		Database: DatabaseConfig{
			Path: "./data/fertpro.db",
		},
		Session: SessionConfig{
			TTLMinutes: 60,
		},
		Simulate: SimulateConfig{
			RecommendDelayMS: 2000,
			LoginDelayMS:     1000,
			SoilIntervalMS:   5000,
		},
		RateLimit: RateLimitConfig{
			LoginMax:           10,
			LoginWindowSeconds: 120,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config. path may be empty; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// .env is a development convenience; production sets real variables.
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides copies set environment variables over cfg.
func (c *Config) applyEnvOverrides() error {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Database.Path = getEnv("DATABASE_PATH", c.Database.Path)
	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	if origins, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(origins)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &c.Server.Port},
		{"SESSION_TTL_MINUTES", &c.Session.TTLMinutes},
		{"RECOMMEND_DELAY_MS", &c.Simulate.RecommendDelayMS},
		{"LOGIN_DELAY_MS", &c.Simulate.LoginDelayMS},
		{"SOIL_INTERVAL_MS", &c.Simulate.SoilIntervalMS},
		{"LOGIN_RATE_MAX", &c.RateLimit.LoginMax},
		{"LOGIN_RATE_WINDOW_SECONDS", &c.RateLimit.LoginWindowSeconds},
	}
	for _, f := range ints {
		raw, ok := os.LookupEnv(f.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = n
	}
	return nil
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session ttl must be positive, got %d minutes", c.Session.TTLMinutes)
	}
	if c.Simulate.RecommendDelayMS < 0 || c.Simulate.LoginDelayMS < 0 {
		return fmt.Errorf("simulated delays must not be negative")
	}
	if c.Simulate.SoilIntervalMS <= 0 {
		return fmt.Errorf("soil interval must be positive, got %dms", c.Simulate.SoilIntervalMS)
	}
	if c.RateLimit.LoginMax <= 0 || c.RateLimit.LoginWindowSeconds <= 0 {
		return fmt.Errorf("login rate limit must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTL returns the idle lifetime of a session.
func (c *SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func (c *SimulateConfig) RecommendDelay() time.Duration {
	return time.Duration(c.RecommendDelayMS) * time.Millisecond
}

func (c *SimulateConfig) LoginDelay() time.Duration {
	return time.Duration(c.LoginDelayMS) * time.Millisecond
}

func (c *SimulateConfig) SoilInterval() time.Duration {
	return time.Duration(c.SoilIntervalMS) * time.Millisecond
}

// Window returns the rate limit window.
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.LoginWindowSeconds) * time.Second
}

// ZapLevel returns the parsed log level. Validate has already rejected
// unknown names, so the fallback is only reached for hand-built configs.
func (c *LogConfig) ZapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
