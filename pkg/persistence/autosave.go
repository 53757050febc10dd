package persistence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/domain"
)

// Autosaver coalesces high-frequency history mutations into debounced
// writes. Document mutation is never gated on persistence: Notify returns
// immediately and the write happens on the autosaver's own goroutine,
// debounceInterval after the last mutation.
//
// Failed writes are retried with backoff — except quota refusals, which
// cannot succeed without user intervention and are surfaced once through the
// error callback.
type Autosaver struct {
	gateway  *Gateway
	snapshot func() domain.HistorySnapshot

	debounce time.Duration
	retries  int
	backoff  time.Duration
	onError  func(error)
	logger   *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	wg     sync.WaitGroup
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithDebounce sets the quiet interval before a save fires.
func WithDebounce(d time.Duration) AutosaveOption {
	return func(a *Autosaver) { a.debounce = d }
}

// WithRetry sets retry count and base backoff for generic write failures.
func WithRetry(retries int, backoff time.Duration) AutosaveOption {
	return func(a *Autosaver) {
		a.retries = retries
		a.backoff = backoff
	}
}

// WithErrorHandler receives terminal persistence failures. Defaults to
// logging only.
func WithErrorHandler(fn func(error)) AutosaveOption {
	return func(a *Autosaver) { a.onError = fn }
}

// WithAutosaveLogger routes autosave activity to a logger.
func WithAutosaveLogger(logger *slog.Logger) AutosaveOption {
	return func(a *Autosaver) { a.logger = logger }
}

// NewAutosaver builds an autosaver over a gateway. snapshot is called on the
// autosaver goroutine at save time to capture the current history state.
func NewAutosaver(gateway *Gateway, snapshot func() domain.HistorySnapshot, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		gateway:  gateway,
		snapshot: snapshot,
		debounce: 500 * time.Millisecond,
		retries:  2,
		backoff:  250 * time.Millisecond,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.onError == nil {
		a.onError = func(err error) {
			a.logger.Warn("autosave failed", "err", err)
		}
	}
	return a
}

// Notify schedules a save. A newer notification within the debounce window
// supersedes the pending one.
func (a *Autosaver) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if a.timer != nil && a.timer.Stop() {
		a.wg.Done()
	}

	a.wg.Add(1)
	a.timer = time.AfterFunc(a.debounce, func() {
		defer a.wg.Done()
		a.flush()
	})
}

// Flush persists immediately, bypassing the debounce window. Pending timers
// are cancelled.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil && a.timer.Stop() {
		a.wg.Done()
	}
	a.timer = nil
	a.mu.Unlock()

	a.flush()
}

// Close flushes pending work and stops accepting notifications.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	pending := false
	if a.timer != nil && a.timer.Stop() {
		a.wg.Done()
		pending = true
	}
	a.timer = nil
	a.mu.Unlock()

	a.wg.Wait()
	if pending {
		a.flush()
	}
}

func (a *Autosaver) flush() {
	snap := a.snapshot()

	// Skip the write entirely when nothing changed since the last
	// successful save — oscillating UI updates must not hammer the store.
	if last := a.gateway.LastPersisted(); last != nil && last.EqualStacks(snap) {
		return
	}

	ctx := context.Background()
	var err error
	for attempt := 0; ; attempt++ {
		_, err = a.gateway.Save(ctx, snap)
		if err == nil {
			return
		}
		if errors.Is(err, domain.ErrQuotaExceeded) || errors.Is(err, domain.ErrStoreUnavailable) {
			break
		}
		if attempt >= a.retries {
			break
		}
		time.Sleep(a.backoff * time.Duration(attempt+1))
	}
	a.onError(err)
}
