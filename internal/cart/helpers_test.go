package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/nikolayk812/gomarketplace-cart/internal/cart"
	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/nikolayk812/gomarketplace-cart/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

var errBackend = errors.New("backend unavailable")

// failingStore fails every call with errBackend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errBackend
}

func (failingStore) Set(context.Context, string, string) error {
	return errBackend
}

// blockingStore blocks Set until the writer context is cancelled.
type blockingStore struct {
	once    sync.Once
	started chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{started: make(chan struct{})}
}

func (s *blockingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (s *blockingStore) Set(ctx context.Context, _, _ string) error {
	s.once.Do(func() { close(s.started) })
	<-ctx.Done()
	return ctx.Err()
}

// gatedStore holds Get until release is closed.
type gatedStore struct {
	*repository.MemoryStore

	reading chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: repository.NewMemoryStore(),
		reading:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	close(s.reading)
	<-s.release
	return s.MemoryStore.Get(ctx, key)
}

func newStore(t *testing.T, kv port.KeyValueStore, opts ...cart.Option) *cart.Store {
	t.Helper()

	store, err := cart.New(kv, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, store.Close(context.Background()))
	})

	return store
}

func randomProduct() domain.Product {
	return domain.Product{
		ID:       uuid.NewString(),
		Title:    gofakeit.ProductName(),
		ImageURL: gofakeit.URL(),
		Price:    randomMoney(),
	}
}

func randomMoney() domain.Money {
	return domain.Money{
		Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)).Round(2),
		Currency: currency.BRL,
	}
}

func product(id string, price int64) domain.Product {
	return domain.Product{
		ID:    id,
		Title: "product " + id,
		Price: domain.Money{Amount: decimal.NewFromInt(price), Currency: currency.BRL},
	}
}

func assertItems(t *testing.T, expected, actual []domain.CartItem) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.EquateEmpty(),
		cmp.Comparer(func(x, y decimal.Decimal) bool {
			return x.Equal(y)
		}),
		cmp.Comparer(func(x, y currency.Unit) bool {
			return x.String() == y.String()
		}),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)
}

type idQuantity struct {
	ID       string
	Quantity int
}

func quantities(items []domain.CartItem) []idQuantity {
	var result []idQuantity
	for _, item := range items {
		result = append(result, idQuantity{ID: item.ID, Quantity: item.Quantity})
	}

	return result
}
