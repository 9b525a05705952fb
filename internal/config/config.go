package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"FleetSpend"`
		Port     int    `envconfig:"PORT" default:"8080"`
		Timezone string `envconfig:"APP_TIMEZONE" default:"America/Sao_Paulo"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"fleetspend"`
		MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Auth struct {
		JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
		TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"24h"`
	}

	Billing struct {
		Enabled  bool          `envconfig:"BILLING_ENABLED" default:"true"`
		DueDays  int           `envconfig:"BILLING_DUE_DAYS" default:"15"`
		Interval time.Duration `envconfig:"BILLING_INTERVAL" default:"1h"`
	}

	Retry struct {
		MaxAttempts  int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
		InitialDelay time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"25ms"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Location resolves APP_TIMEZONE. Period windows (days, weeks, months) are cut in it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.App.Timezone, err)
	}

	return loc, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Billing.DueDays < 0 {
		return nil, fmt.Errorf("BILLING_DUE_DAYS must not be negative, got %d", cfg.Billing.DueDays)
	}

	return &cfg, nil
}
