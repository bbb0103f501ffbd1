package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/Daxiongmao87/alignment-correction-mcp/internal/localstate"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the alignment state core.
// Environment variables are automatically parsed from the ALIGNMENT_ prefix.
type Config struct {
	// StoreDriver selects the durable backend for the event log.
	StoreDriver string `envconfig:"STORE_DRIVER" default:"file"`

	// StatePath is the file path for the file and sqlite drivers. When empty
	// it is derived under the local state directory.
	StatePath string `envconfig:"STATE_PATH" default:""`

	// PostgresDSN is required when StoreDriver is "postgres".
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
}

// ResolveDefaults validates StoreDriver and derives StatePath when unset.
func (c *Config) ResolveDefaults() error {
	switch c.StoreDriver {
	case "file":
		if c.StatePath == "" {
			p, err := localstate.StatePath("events.json")
			if err != nil {
				return err
			}
			c.StatePath = p
		}
	case "sqlite":
		if c.StatePath == "" {
			p, err := localstate.StatePath("events.db")
			if err != nil {
				return err
			}
			c.StatePath = p
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("ALIGNMENT_POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with ALIGNMENT_
// Example: ALIGNMENT_STORE_DRIVER, ALIGNMENT_STATE_PATH
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ALIGNMENT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("store_driver", cfg.StoreDriver).
		Str("state_path", cfg.StatePath).
		Str("environment", string(cfg.Environment)).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting(statePath string) *Config {
	return &Config{
		StoreDriver: "file",
		StatePath:   statePath,
		Environment: EnvTesting,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
