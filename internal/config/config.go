package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverDatastore = "datastore"
)

type envConfig struct {
	APP_PORT         string        `env:"APP_PORT" envDefault:"8080"`
	LOG_FILE_PATH    string        `env:"LOG_FILE_PATH"`
	LOG_LEVEL        string        `env:"LOG_LEVEL" envDefault:"info"`
	SHUTDOWN_TIMEOUT time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	STORAGE_DRIVER string `env:"STORAGE_DRIVER" envDefault:"memory"`

	DB_HOST              string        `env:"DB_HOST" envDefault:"localhost"`
	DB_PORT              int           `env:"DB_PORT" envDefault:"5432"`
	DB_USER              string        `env:"DB_USER" envDefault:"postgres"`
	DB_PASSWORD          string        `env:"DB_PASSWORD"`
	DB_NAME              string        `env:"DB_NAME" envDefault:"tasktracker"`
	DB_SSL_MODE          string        `env:"DB_SSL_MODE" envDefault:"disable"`
	DB_MAX_OPEN_CONNS    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DB_MAX_IDLE_CONNS    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DB_CONN_MAX_LIFETIME time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	GCP_PROJECT_ID string `env:"GCP_PROJECT_ID"`

	ELASTIC_URL   string `env:"ELASTIC_URL"`
	ELASTIC_INDEX string `env:"ELASTIC_INDEX" envDefault:"tasks"`

	SEED_FILE          string        `env:"SEED_FILE"`
	SEED_WORKERS       int           `env:"SEED_WORKERS" envDefault:"1"`
	SEED_RETRY_BACKOFF time.Duration `env:"SEED_RETRY_BACKOFF"`

	EXPORT_TEMPLATE string `env:"EXPORT_TEMPLATE"`
}

// DefaultEnvConfig holds the configuration loaded by LoadEnvConfig.
var DefaultEnvConfig envConfig

// LoadEnvConfig reads an optional .env file and then the process environment
// into DefaultEnvConfig.
func LoadEnvConfig(files ...string) error {
	cfg, err := Load(files...)
	if err != nil {
		return err
	}
	DefaultEnvConfig = cfg
	return nil
}

// Load is LoadEnvConfig without touching DefaultEnvConfig. Variables already
// present in the environment win over the files.
func Load(files ...string) (envConfig, error) {
	var cfg envConfig
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.STORAGE_DRIVER = strings.ToLower(strings.TrimSpace(cfg.STORAGE_DRIVER))
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c envConfig) validate() error {
	switch c.STORAGE_DRIVER {
	case DriverMemory, DriverPostgres:
	case DriverDatastore:
		if c.GCP_PROJECT_ID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required for the %s driver", DriverDatastore)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.STORAGE_DRIVER)
	}
	if c.SEED_WORKERS < 1 {
		return fmt.Errorf("SEED_WORKERS must be positive, got %d", c.SEED_WORKERS)
	}
	if c.SEED_RETRY_BACKOFF < 0 {
		return fmt.Errorf("SEED_RETRY_BACKOFF must not be negative, got %s", c.SEED_RETRY_BACKOFF)
	}
	return nil
}
