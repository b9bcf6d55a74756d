package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// StoreBackend selects where session state lives: "memory" for a
	// single-binary demo, "sqlite" for a persistent single host, "redis"
	// for a shared external store.
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath       string `env:"DB_PATH" envDefault:"data/sensequiz.db"`
	RedisURL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// MasterKey guards the master console endpoints.
	MasterKey string `env:"MASTER_KEY,required"`

	// CatalogPath overrides the built-in stage table with a JSON file.
	CatalogPath string `env:"CATALOG_PATH"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
