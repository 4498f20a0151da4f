package cart

import (
	"context"
	"sync"

	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"go.uber.org/zap"
)

// snapshotWriter is the only goroutine that writes snapshots to the backend.
// It keeps just the newest pending snapshot: older ones are superseded, so
// the backend never sees snapshots out of mutation order.
type snapshotWriter struct {
	kv     port.KeyValueStore
	key    string
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending *string
	closed  bool

	wake     chan struct{}
	flushReq chan chan struct{}
	done     chan struct{}
	stopped  chan struct{}
}

func newSnapshotWriter(kv port.KeyValueStore, key string, logger *zap.Logger) *snapshotWriter {
	ctx, cancel := context.WithCancel(context.Background())

	w := &snapshotWriter{
		kv:       kv,
		key:      key,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		flushReq: make(chan chan struct{}),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go w.run()

	return w
}

// enqueue returns false once the writer is closed.
func (w *snapshotWriter) enqueue(raw string) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = &raw
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	return true
}

func (w *snapshotWriter) run() {
	defer close(w.stopped)
	defer w.cancel()

	for {
		select {
		case <-w.wake:
			w.writePending()
		case ack := <-w.flushReq:
			w.writePending()
			close(ack)
		case <-w.done:
			w.writePending()
			return
		}
	}
}

func (w *snapshotWriter) writePending() {
	w.mu.Lock()
	raw := w.pending
	w.pending = nil
	w.mu.Unlock()

	if raw == nil {
		return
	}

	if err := w.kv.Set(w.ctx, w.key, *raw); err != nil {
		w.logger.Warn("persist cart snapshot", zap.String("key", w.key), zap.Error(err))
		return
	}

	w.logger.Debug("cart snapshot persisted", zap.String("key", w.key), zap.Int("bytes", len(*raw)))
}

func (w *snapshotWriter) flush(ctx context.Context) error {
	ack := make(chan struct{})

	select {
	case w.flushReq <- ack:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the pending snapshot. When ctx ends first the in-flight
// write is cancelled and ctx.Err() is returned.
func (w *snapshotWriter) close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.stopped
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)

	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		w.cancel()
		<-w.stopped
		return ctx.Err()
	}
}
