package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gomarketplace-cart/internal/db"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

type postgresStore struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (port.KeyValueStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	return &postgresStore{
		q:    db.New(pool),
		pool: pool,
	}, nil
}

func NewPostgresStoreWithTx(tx pgx.Tx) port.KeyValueStore {
	return &postgresStore{
		q:    db.New(tx),
		pool: nil, // writes join the caller's transaction
	}
}

func (s *postgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	value, err := s.q.GetValue(ctx, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("q.GetValue: %w", err)
	}

	return value, true, nil
}

// Set locks the row and leaves it untouched when the stored value is already equal.
func (s *postgresStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := withTx(ctx, s.pool, s.q, func(q *db.Queries) (bool, error) {
		current, err := q.GetValueForUpdate(ctx, key)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return false, fmt.Errorf("q.GetValueForUpdate: %w", err)
		case current == value:
			return false, nil
		}

		if err := q.UpsertValue(ctx, db.UpsertValueParams{Key: key, Value: value}); err != nil {
			return false, fmt.Errorf("q.UpsertValue: %w", err)
		}

		return true, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}
