package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
)

func TestSyncChannelContract(t *testing.T) {
	ports.RunSyncChannelContract(t, NewSyncChannel())
}

func TestSyncChannelFanOut(t *testing.T) {
	ch := NewSyncChannel()
	ctx := context.Background()

	a, cancelA, err := ch.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelA()

	b, cancelB, err := ch.Subscribe(ctx)
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, ch.Publish(ctx, domain.SyncMessage{Origin: "s1", Version: 1}))

	for _, sub := range []<-chan domain.SyncMessage{a, b} {
		select {
		case msg := <-sub:
			assert.Equal(t, "s1", msg.Origin)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive broadcast")
		}
	}
}

func TestSyncChannelCancelStopsDelivery(t *testing.T) {
	ch := NewSyncChannel()
	ctx := context.Background()

	msgs, cancel, err := ch.Subscribe(ctx)
	require.NoError(t, err)
	cancel()
	cancel() // idempotent

	_, open := <-msgs
	assert.False(t, open, "cancelled subscription channel should be closed")

	assert.NoError(t, ch.Publish(ctx, domain.SyncMessage{Origin: "s1", Version: 2}))
}
