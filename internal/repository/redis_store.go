package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
)

const (
	redisPingAttempts   = 5
	redisPingTimeout    = 5 * time.Second
	redisMaxPingBackoff = 5 * time.Second
)

// RedisStore keeps values as plain redis strings without expiry.
type RedisStore struct {
	client *redis.Client
}

var _ port.KeyValueStore = (*RedisStore)(nil)

// NewRedisStore accepts either a redis:// URL or a bare host:port address.
func NewRedisStore(addr string) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("addr is empty")
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}
	}

	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// Ping retries with exponential backoff until redis answers or ctx is done.
func (s *RedisStore) Ping(ctx context.Context) error {
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= redisPingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		lastErr = s.client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == redisPingAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), lastErr)
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, redisMaxPingBackoff)
	}

	return fmt.Errorf("client.Ping after %d attempts: %w", redisPingAttempts, lastErr)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("client.Get: %w", err)
	}

	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
