package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gomarketplace-cart/internal/cart"
	"github.com/nikolayk812/gomarketplace-cart/internal/config"
	"github.com/nikolayk812/gomarketplace-cart/internal/logging"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"go.uber.org/zap"
)

// App owns the cart store and its backend for the lifetime of the process.
type App struct {
	Store *cart.Store

	logger     *zap.Logger
	ownsLogger bool
	closers    []func() error
}

// OpenFromEnv loads the configuration from the environment and opens the app
// with a logger built from CART_LOG_LEVEL.
func OpenFromEnv(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return Open(ctx, cfg, nil)
}

// Open connects the configured backend and hydrates the cart. A corrupt or
// unreadable snapshot is logged and the cart starts empty. A nil logger is
// replaced by one built at cfg.LogLevel.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cfg.Validate: %w", err)
	}

	ownsLogger := false
	if logger == nil {
		built, err := logging.New(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("logging.New: %w", err)
		}
		logger, ownsLogger = built, true
	}

	unit, err := cfg.Currency()
	if err != nil {
		return nil, fmt.Errorf("cfg.Currency: %w", err)
	}

	a := &App{logger: logger, ownsLogger: ownsLogger}

	kv, err := a.openBackend(ctx, cfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("openBackend: %w", err), a.closeBackends())
	}

	a.Store, err = cart.New(kv,
		cart.WithStorageKey(cfg.StorageKey),
		cart.WithDefaultCurrency(unit),
		cart.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("cart.New: %w", err), a.closeBackends())
	}

	state, err := a.Store.Hydrate(ctx)
	fields := []zap.Field{
		zap.String("backend", string(cfg.Backend)),
		zap.String("key", cfg.StorageKey),
		zap.Stringer("snapshot", state),
	}
	if err != nil {
		logger.Warn("cart hydration failed, starting empty", append(fields, zap.Error(err))...)
	} else {
		logger.Info("cart ready", append(fields, zap.Int("items", len(a.Store.Items())))...)
	}

	return a, nil
}

// Logger is the logger the app and its store write to.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Context returns a copy of parent that provides the cart store.
func (a *App) Context(parent context.Context) context.Context {
	return cart.NewContext(parent, a.Store)
}

// Close persists the last snapshot and releases the backend.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.Store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store.Close: %w", err))
	}
	if err := a.closeBackends(); err != nil {
		errs = append(errs, err)
	}
	if a.ownsLogger {
		// stderr sync fails on some platforms
		_ = a.logger.Sync()
	}

	return errors.Join(errs...)
}

func (a *App) openBackend(ctx context.Context, cfg config.Config) (port.KeyValueStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil

	case config.BackendSQLite:
		store, err := repository.OpenSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("repository.OpenSQLiteStore: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("pool.Ping: %w", err)
		}
		return repository.NewPostgresStore(pool)

	case config.BackendRedis:
		store, err := repository.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("repository.NewRedisStore: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("store.Ping: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("backend[%s] is not supported", cfg.Backend)
	}
}

func (a *App) closeBackends() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
