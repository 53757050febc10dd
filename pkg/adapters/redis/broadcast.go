package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/domain"
)

// SyncChannel broadcasts history diffs over Redis pub/sub, so sessions in
// different processes can follow each other's saves.
type SyncChannel struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger
}

// ChannelOption configures a SyncChannel.
type ChannelOption func(*SyncChannel)

// WithChannelName overrides the pub/sub channel.
func WithChannelName(name string) ChannelOption {
	return func(c *SyncChannel) { c.channel = name }
}

// WithLogger routes dropped-message warnings to a logger.
func WithLogger(logger *slog.Logger) ChannelOption {
	return func(c *SyncChannel) { c.logger = logger }
}

// NewSyncChannel creates a sync channel over an existing client.
func NewSyncChannel(client *backend.Client, opts ...ChannelOption) *SyncChannel {
	c := &SyncChannel{
		client:  client,
		channel: "draftbench:sync",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish sends the message to all subscribers on the channel.
func (c *SyncChannel) Publish(ctx context.Context, msg domain.SyncMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal sync message: %w", err)
	}
	if err := c.client.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sync message: %w", err)
	}
	return nil
}

// Subscribe listens on the channel until cancel. Messages that fail to
// decode are logged and dropped; best-effort delivery is the contract.
func (c *SyncChannel) Subscribe(ctx context.Context) (<-chan domain.SyncMessage, func(), error) {
	pubsub := c.client.Subscribe(ctx, c.channel)

	// Wait for the subscription to be confirmed so messages published right
	// after Subscribe returns are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan domain.SyncMessage, 16)
	go func() {
		defer close(out)
		for raw := range pubsub.Channel() {
			var msg domain.SyncMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				c.logger.Warn("dropping malformed sync message", "err", err)
				continue
			}
			select {
			case out <- msg:
			default:
				// Receiver not draining; last-writer-wins allows drops.
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
