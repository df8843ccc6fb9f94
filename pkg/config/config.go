package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for canvass-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3180"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Canvassing behavior
	Canvass CanvassConfig `yaml:"canvass"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"canvass"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"canvass_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// CanvassConfig holds canvassing workflow settings.
type CanvassConfig struct {
	// DoorEventsPageSize bounds the door-status monitoring listing.
	DoorEventsPageSize int `yaml:"door_events_page_size" env:"CANVASS_DOOR_EVENTS_PAGE_SIZE" env-default:"300"`
	// LeadsPageSize bounds the leads listing.
	LeadsPageSize int `yaml:"leads_page_size" env:"CANVASS_LEADS_PAGE_SIZE" env-default:"200"`
	// RecentLocationsLimit bounds the recent-locations picker listing.
	RecentLocationsLimit int `yaml:"recent_locations_limit" env:"CANVASS_RECENT_LOCATIONS_LIMIT" env-default:"20"`
	// TxMaxRetries is how many times a workflow transaction is retried on
	// lock or serialization contention before the conflict is surfaced.
	TxMaxRetries int `yaml:"tx_max_retries" env:"CANVASS_TX_MAX_RETRIES" env-default:"3"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. If no config.yaml exists, environment variables alone are used.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Canvass.DoorEventsPageSize <= 0 {
		return fmt.Errorf("door_events_page_size must be positive")
	}
	if c.Canvass.LeadsPageSize <= 0 {
		return fmt.Errorf("leads_page_size must be positive")
	}
	if c.Canvass.RecentLocationsLimit <= 0 {
		return fmt.Errorf("recent_locations_limit must be positive")
	}
	if c.Canvass.TxMaxRetries < 0 {
		return fmt.Errorf("tx_max_retries must not be negative")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
