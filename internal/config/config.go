// Package config loads process configuration from the environment, with an
// optional .env file.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/medisync/medisync/internal/store"
)

// Config holds every runtime option. Exactly one store backing mode is
// active per process lifetime: DSN when set, else in-memory when InMemory,
// else the durable file at DBPath.
type Config struct {
	// InMemory selects an ephemeral store backing instead of a durable file.
	InMemory bool `envconfig:"MEDISYNC_IN_MEMORY" default:"false"`

	// DBPath is the durable store backing location.
	DBPath string `envconfig:"MEDISYNC_DB_PATH" default:"data/medisync.db"`

	// DSN is an alternate addressing form passed to the driver verbatim.
	DSN string `envconfig:"MEDISYNC_DSN"`

	// CachePath is the cache persistence slot holding the full serialized
	// patient collection.
	CachePath string `envconfig:"MEDISYNC_CACHE_PATH" default:"data/patients.json"`

	// SignalPath is the cross-context signal slot whose value change
	// triggers the storage-changed notification.
	SignalPath string `envconfig:"MEDISYNC_SIGNAL_PATH" default:"data/datachanged.signal"`

	// LogLevel is the zap log level: debug, info, warn, or error.
	LogLevel string `envconfig:"MEDISYNC_LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment. When envFile is non-empty
// it is loaded first; a missing file is an error so typos surface instead
// of silently falling back.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// StoreConfig maps the store-related options onto the store's config.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		InMemory: c.InMemory,
		Path:     c.DBPath,
		DSN:      c.DSN,
	}
}
