package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/currency"
)

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Config selects the snapshot backend and tunes the cart store.
type Config struct {
	Backend         Backend `env:"CART_BACKEND"          envDefault:"sqlite"`
	StorageKey      string  `env:"CART_STORAGE_KEY"      envDefault:"@GoMarketplace:products"`
	SQLitePath      string  `env:"CART_SQLITE_PATH"      envDefault:"gomarketplace-cart.db"`
	PostgresURL     string  `env:"CART_POSTGRES_URL"`
	RedisAddr       string  `env:"CART_REDIS_ADDR"       envDefault:"localhost:6379"`
	LogLevel        string  `env:"CART_LOG_LEVEL"        envDefault:"info"`
	DefaultCurrency string  `env:"CART_DEFAULT_CURRENCY" envDefault:"BRL"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.StorageKey == "" {
		return fmt.Errorf("storage key is empty")
	}

	if _, err := c.Currency(); err != nil {
		return err
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level[%s] is not valid: %w", c.LogLevel, err)
	}

	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is empty")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres url is empty")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis addr is empty")
		}
	default:
		return fmt.Errorf("backend[%s] is not supported", c.Backend)
	}

	return nil
}

func (c Config) Currency() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.DefaultCurrency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", c.DefaultCurrency, err)
	}

	return unit, nil
}
