package ports

import (
	"context"

	"github.com/draftbench/draftbench/pkg/domain"
)

// SyncChannel broadcasts history diffs to sibling sessions (other tabs,
// other processes sharing the same store). Delivery is best-effort and
// last-writer-wins; receivers filter own-origin and stale messages.
type SyncChannel interface {
	// Publish sends the message to all current subscribers.
	Publish(ctx context.Context, msg domain.SyncMessage) error

	// Subscribe returns a channel of incoming messages and a cancel
	// function. The channel is closed on cancel or context expiry.
	Subscribe(ctx context.Context) (<-chan domain.SyncMessage, func(), error)
}
