package cart

import (
	"context"
	"errors"
)

var ErrNoProvider = errors.New("cart: store used outside of a cart provider")

type contextKey struct{}

// NewContext returns a copy of ctx that provides s to cart consumers.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoProvider
	}

	return s, nil
}

// MustFromContext panics with ErrNoProvider when ctx carries no store.
func MustFromContext(ctx context.Context) *Store {
	s, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}

	return s
}
