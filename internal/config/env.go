// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Preference store backends.
const (
	PrefsSQLite = "sqlite"
	PrefsYAML   = "yaml"
	PrefsMemory = "memory"
)

// Config describes every environment-driven setting of the server.
type Config struct {
	Port           string        `env:"PORT" envDefault:"2000"`
	DBPath         string        `env:"STOPWATCH_DB_PATH" envDefault:"data/stopwatch.db"`
	SilentDB       bool          `env:"STOPWATCH_SILENT_DB" envDefault:"true"`
	PrefsBackend   string        `env:"STOPWATCH_PREFS_BACKEND" envDefault:"sqlite"`
	PrefsFile      string        `env:"STOPWATCH_PREFS_FILE"`
	TickInterval   time.Duration `env:"STOPWATCH_TICK_INTERVAL" envDefault:"10ms"`
	AllowedOrigins []string      `env:"STOPWATCH_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN      string        `env:"SENTRY_DSN"`
	StatsdAddr     string        `env:"STATSD_ADDR"`
	StatsdRate     float32       `env:"STATSD_SAMPLE_RATE" envDefault:"1"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the server configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.PrefsBackend = strings.ToLower(strings.TrimSpace(cfg.PrefsBackend))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.PrefsBackend {
	case PrefsSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("config: missing database path")
		}
	case PrefsYAML, PrefsMemory:
	default:
		return fmt.Errorf("config: unknown preferences backend: backend=%s", c.PrefsBackend)
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive")
	}

	if c.StatsdAddr != "" && (c.StatsdRate < 0 || c.StatsdRate > 1) {
		return fmt.Errorf("config: statsd sample rate must be in range [0.0, 1.0]")
	}

	return nil
}
