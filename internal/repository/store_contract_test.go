package repository_test

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKeyValueStore checks the behaviour every port.KeyValueStore must share.
func testKeyValueStore(t *testing.T, store port.KeyValueStore) {
	t.Helper()

	t.Run("get missing key: not found", func(t *testing.T) {
		value, found, err := store.Get(t.Context(), randomKey())
		require.NoError(t, err)

		assert.False(t, found)
		assert.Empty(t, value)
	})

	t.Run("set then get: ok", func(t *testing.T) {
		ctx := t.Context()
		key := randomKey()
		want := gofakeit.Name() + " <" + gofakeit.Email() + ">"

		require.NoError(t, store.Set(ctx, key, want))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, want, got)
	})

	t.Run("overwrite keeps latest value: ok", func(t *testing.T) {
		ctx := t.Context()
		key := randomKey()

		require.NoError(t, store.Set(ctx, key, "first"))
		require.NoError(t, store.Set(ctx, key, "second"))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "second", got)
	})

	t.Run("set same value twice: ok", func(t *testing.T) {
		ctx := t.Context()
		key := randomKey()

		require.NoError(t, store.Set(ctx, key, "same"))
		require.NoError(t, store.Set(ctx, key, "same"))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "same", got)
	})

	t.Run("empty value is stored and found: ok", func(t *testing.T) {
		ctx := t.Context()
		key := randomKey()

		require.NoError(t, store.Set(ctx, key, ""))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, got)
	})

	t.Run("json snapshot with unicode: ok", func(t *testing.T) {
		ctx := t.Context()
		key := "@GoMarketplace:" + uuid.NewString()
		want := `[{"id":"1","title":"Camiseta Algodão ✓","price":59.9,"quantity":2}]` + strings.Repeat(" ", 4096)

		require.NoError(t, store.Set(ctx, key, want))

		got, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, want, got)
	})

	t.Run("empty key: error", func(t *testing.T) {
		ctx := t.Context()

		err := store.Set(ctx, "", "value")
		require.ErrorIs(t, err, repository.ErrEmptyKey)

		_, _, err = store.Get(ctx, "")
		require.ErrorIs(t, err, repository.ErrEmptyKey)
	})
}

func randomKey() string {
	return "cart:" + gofakeit.UUID()
}
