package memory

import (
	"context"
	"sync"

	"github.com/draftbench/draftbench/pkg/domain"
)

// SyncChannel is an in-process broadcast channel. Sessions in the same
// process (or a test) share one instance; every published message fans out to
// all live subscribers. Slow subscribers drop messages rather than block the
// publisher.
type SyncChannel struct {
	mu   sync.Mutex
	subs map[int]chan domain.SyncMessage
	next int
}

// NewSyncChannel creates an empty in-process sync channel.
func NewSyncChannel() *SyncChannel {
	return &SyncChannel{subs: make(map[int]chan domain.SyncMessage)}
}

// Publish fans the message out to all subscribers without blocking.
func (c *SyncChannel) Publish(_ context.Context, msg domain.SyncMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		select {
		case sub <- msg:
		default:
			// Subscriber is not draining; last-writer-wins semantics make
			// dropped intermediate diffs acceptable.
		}
	}
	return nil
}

// Subscribe registers a buffered receiver. The cancel function is idempotent
// and closes the returned channel.
func (c *SyncChannel) Subscribe(ctx context.Context) (<-chan domain.SyncMessage, func(), error) {
	c.mu.Lock()
	id := c.next
	c.next++
	ch := make(chan domain.SyncMessage, 16)
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}

	stop := context.AfterFunc(ctx, cancel)
	return ch, func() { stop(); cancel() }, nil
}
