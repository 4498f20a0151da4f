package port

import (
	"context"
)

// KeyValueStore persists string values under string keys.
// Get reports found=false, with a nil error, when the key was never set.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
