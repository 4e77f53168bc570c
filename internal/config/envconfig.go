package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

type envConfig struct {
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"INFO"`
	ServerPort       int           `env:"SERVER_PORT" envDefault:"8080"`
	Version          string        `env:"VERSION" envDefault:"v1"`
	LedgerEndpoint   string        `env:"LEDGER_ENDPOINT" envDefault:"http://localhost:8000"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s"`
	StoreBackend     string        `env:"STORE_BACKEND" envDefault:"file"`
	StoreDir         string        `env:"STORE_DIR" envDefault:".leave-console"`
	StoreNamespace   string        `env:"STORE_NAMESPACE" envDefault:"leave-console"`
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	DebounceInterval time.Duration `env:"DEBOUNCE_INTERVAL" envDefault:"300ms"`
	DefaultYear      int           `env:"DEFAULT_YEAR" envDefault:"2025"`
	DefaultMonth     int           `env:"DEFAULT_MONTH" envDefault:"7"`
	DefaultPageSize  int           `env:"DEFAULT_PAGE_SIZE" envDefault:"5"`
	EmailTo          string        `env:"EMAIL_TO"`
	EmailFrom        string        `env:"EMAIL_FROM"`
	AWSRegion        string        `env:"AWS_REGION" envDefault:"ap-southeast-2"`
}

// NewEnvironmentConfig reads the process environment.
func NewEnvironmentConfig() (*envConfig, error) {
	cfg := &envConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	if cfg.StoreBackend != StoreBackendFile && cfg.StoreBackend != StoreBackendRedis {
		return nil, errors.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}
