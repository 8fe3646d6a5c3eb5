package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the reminder service.
// Environment variables are parsed from the SPHERELOG_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8085"`

	// Persistence: sqlite (local file) or postgres
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Journal backend (entity/memory data source). Empty means the
	// service runs against an in-process static source.
	JournalBaseURL string `envconfig:"JOURNAL_BASE_URL" default:""`

	// SubscriptionActive is the premium flag folded into the reschedule
	// key; flipping it forces the next refresh to rebuild schedules.
	SubscriptionActive bool `envconfig:"SUBSCRIPTION_ACTIVE" default:"false"`

	// RefreshDebounce coalesces bursts of state changes into one
	// reschedule pass.
	RefreshDebounce time.Duration `envconfig:"REFRESH_DEBOUNCE" default:"1s"`

	// HealthInterval is the period between dependency health probes.
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
}

// Validate checks driver selection and required settings.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.RefreshDebounce <= 0 {
		return fmt.Errorf("REFRESH_DEBOUNCE must be positive")
	}
	return nil
}

// New creates a Config by parsing environment variables.
// Example: SPHERELOG_HTTP_PORT, SPHERELOG_DB_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SPHERELOG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Bool("journal_remote", cfg.JournalBaseURL != "").
		Dur("refresh_debounce", cfg.RefreshDebounce).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:     EnvTesting,
		HTTPPort:        8085,
		DBDriver:        "sqlite",
		RefreshDebounce: 50 * time.Millisecond,
		HealthInterval:  time.Second,
	}
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
