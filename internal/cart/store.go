package cart

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

const DefaultStorageKey = "@GoMarketplace:products"

var (
	ErrAlreadyHydrated = errors.New("cart: already hydrated")
	ErrCorruptSnapshot = errors.New("cart: corrupt snapshot")
)

type Option func(*Store)

func WithStorageKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithDefaultCurrency sets the currency used for snapshot items without one
// and for the total of an empty cart.
func WithDefaultCurrency(unit currency.Unit) Option {
	return func(s *Store) {
		s.defaultCurrency = unit
	}
}

// Store holds the cart items in memory and mirrors every change to a
// port.KeyValueStore through a background writer.
type Store struct {
	kv              port.KeyValueStore
	key             string
	defaultCurrency currency.Unit
	logger          *zap.Logger
	writer          *snapshotWriter

	mu          sync.Mutex
	items       []domain.CartItem
	revision    uint64
	hydrated    bool
	subscribers map[int]chan []domain.CartItem
	nextSubID   int
}

var _ port.Cart = (*Store)(nil)

func New(kv port.KeyValueStore, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv is nil")
	}

	s := &Store{
		kv:              kv,
		key:             DefaultStorageKey,
		defaultCurrency: currency.BRL,
		logger:          zap.NewNop(),
		subscribers:     make(map[int]chan []domain.CartItem),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.key == "" {
		return nil, fmt.Errorf("storage key is empty")
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.writer = newSnapshotWriter(kv, s.key, s.logger)

	return s, nil
}

// Hydrate loads the persisted snapshot into memory. It may run once per Store.
// On SnapshotCorrupt and SnapshotUnavailable the items are left untouched.
// Items changed while the snapshot is being read are kept and
// SnapshotSuperseded is returned, since their own snapshot is already queued.
func (s *Store) Hydrate(ctx context.Context) (SnapshotState, error) {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return SnapshotAbsent, ErrAlreadyHydrated
	}
	s.hydrated = true
	startRevision := s.revision
	s.mu.Unlock()

	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return SnapshotUnavailable, fmt.Errorf("kv.Get: %w", err)
	}
	if !found || raw == "" {
		return SnapshotAbsent, nil
	}

	items, err := decodeSnapshot(raw, s.defaultCurrency)
	if err != nil {
		return SnapshotCorrupt, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	s.mu.Lock()
	if s.revision != startRevision {
		s.mu.Unlock()
		s.logger.Debug("cart changed during hydration, snapshot skipped", zap.String("key", s.key))
		return SnapshotSuperseded, nil
	}
	s.items = items
	s.publishLocked()
	s.mu.Unlock()

	s.logger.Debug("cart hydrated", zap.String("key", s.key), zap.Int("items", len(items)))

	return SnapshotPresent, nil
}

// Items returns a copy of the cart in first-added order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneItems(s.items)
}

func (s *Store) AddToCart(product domain.Product) {
	s.mutate(func(items []domain.CartItem) ([]domain.CartItem, bool) {
		if i := indexOf(items, product.ID); i >= 0 {
			items[i].Quantity++
			return items, true
		}

		product.Extra = maps.Clone(product.Extra)
		return append(items, domain.CartItem{Product: product, Quantity: 1}), true
	})
}

func (s *Store) Increment(productID string) {
	s.mutate(func(items []domain.CartItem) ([]domain.CartItem, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, false
		}

		items[i].Quantity++
		return items, true
	})
}

// Decrement lowers the quantity by one. The quantity is not floored at zero
// and the item stays in the cart.
func (s *Store) Decrement(productID string) {
	s.mutate(func(items []domain.CartItem) ([]domain.CartItem, bool) {
		i := indexOf(items, productID)
		if i < 0 {
			return items, false
		}

		items[i].Quantity--
		return items, true
	})
}

// Count is the sum of quantities over all items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}

	return count
}

func (s *Store) Total() (domain.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return domain.ZeroMoney(s.defaultCurrency), nil
	}

	total := domain.ZeroMoney(s.items[0].Price.Currency)
	for _, item := range s.items {
		var err error
		total, err = total.Add(item.Subtotal())
		if err != nil {
			return domain.Money{}, fmt.Errorf("item[%s]: %w", item.ID, err)
		}
	}

	return total, nil
}

// Subscribe delivers the current items immediately and again after every
// change. A slow receiver only sees the latest items.
func (s *Store) Subscribe() (<-chan []domain.CartItem, func()) {
	ch := make(chan []domain.CartItem, 1)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- cloneItems(s.items)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Flush waits until snapshots queued before the call reach the backend.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close persists the pending snapshot and stops the writer. Later mutations
// still change memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	if err := s.writer.close(ctx); err != nil {
		return fmt.Errorf("writer.close: %w", err)
	}

	return nil
}

func (s *Store) mutate(fn func(items []domain.CartItem) ([]domain.CartItem, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, changed := fn(s.items)
	if !changed {
		return
	}
	s.items = items
	s.revision++

	s.publishLocked()
	s.persistLocked()
}

// persistLocked encodes the post-mutation items while s.mu is held so that
// snapshots are queued in mutation order.
func (s *Store) persistLocked() {
	raw, err := encodeSnapshot(s.items)
	if err != nil {
		s.logger.Error("encode cart snapshot", zap.Error(err))
		return
	}

	if !s.writer.enqueue(raw) {
		s.logger.Debug("cart store closed, snapshot dropped", zap.String("key", s.key))
	}
}

func (s *Store) publishLocked() {
	for _, ch := range s.subscribers {
		items := cloneItems(s.items)

		select {
		case <-ch:
		default:
		}

		select {
		case ch <- items:
		default:
		}
	}
}

// cloneItems copies items deep enough that callers cannot reach store state.
func cloneItems(items []domain.CartItem) []domain.CartItem {
	cloned := slices.Clone(items)
	for i := range cloned {
		cloned[i].Extra = maps.Clone(cloned[i].Extra)
	}

	return cloned
}

func indexOf(items []domain.CartItem, productID string) int {
	return slices.IndexFunc(items, func(item domain.CartItem) bool {
		return item.ID == productID
	})
}
