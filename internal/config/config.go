// Package config reads process configuration from the environment
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mrcode/nightscout-widget/internal/xslog"
)

// MinRefreshInterval is the shortest automatic refresh cadence the host may use
const MinRefreshInterval = time.Minute

// Settings store backends
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is process configuration. User settings (URL, token, units) live in the settings store.
type Config struct {
	SettingsBackend string        `env:"SETTINGS_BACKEND" envDefault:"file"`
	SettingsPath    string        `env:"SETTINGS_PATH"`
	RedisURL        string        `env:"REDIS_URL"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:"127.0.0.1:7480"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1m"`
	AlertsEnabled   bool          `env:"ALERTS_ENABLED" envDefault:"false"`
	AlertRepeat     time.Duration `env:"ALERT_REPEAT" envDefault:"15m"`
	WidgetDir       string        `env:"WIDGET_DIR"` // When set, every refresh writes small/medium/large PNGs here
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Read parses the environment and validates the result
func Read() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval < MinRefreshInterval {
		cfg.RefreshInterval = MinRefreshInterval
	}
	return cfg, nil
}

// Validate checks enum-like fields
func (c Config) Validate() error {
	switch c.SettingsBackend {
	case BackendFile, BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis settings backend")
		}
	default:
		return fmt.Errorf("invalid SETTINGS_BACKEND %q (valid: file, memory, redis, sqlite)", c.SettingsBackend)
	}
	if _, err := xslog.Parse(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level, falling back to the default
func (c Config) Level() xslog.Level {
	level, err := xslog.Parse(c.LogLevel)
	if err != nil {
		return xslog.Default
	}
	return level
}
