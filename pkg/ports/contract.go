package ports

import (
	"context"
	"testing"
	"time"

	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDurableStoreContract runs a suite of tests verifying that a DurableStore
// implementation adheres to the interface contract. Every adapter's test file
// calls this against a fresh store.
func RunDurableStoreContract(t *testing.T, store DurableStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("SetAndGet", func(t *testing.T) {
		err := store.Set(ctx, key, []byte(`{"hello":"world"}`))
		require.NoError(t, err, "Set should not return error")

		val, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.JSONEq(t, `{"hello":"world"}`, string(val))
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte("first")))
		require.NoError(t, store.Set(ctx, key, []byte("second")))

		val, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(val))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte("doomed")))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound, "Get after Delete should report ErrKeyNotFound")
	})

	t.Run("DeleteNonExistent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "non-existent-"+key), "deleting an absent key is a no-op")
	})

	t.Run("Keys", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		require.NoError(t, store.Set(ctx, k1, []byte("a")))
		require.NoError(t, store.Set(ctx, k2, []byte("b")))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key+"-clear", []byte("x")))
		require.NoError(t, store.Clear(ctx))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Available", func(t *testing.T) {
		assert.True(t, store.Available())
	})
}

// RunSyncChannelContract verifies publish/subscribe behavior common to all
// sync channel implementations.
func RunSyncChannelContract(t *testing.T, channel SyncChannel) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, stop, err := channel.Subscribe(ctx)
	require.NoError(t, err)
	defer stop()

	sent := domain.SyncMessage{Origin: "contract", Version: 7, Timestamp: time.Now().UnixMilli()}
	require.NoError(t, channel.Publish(ctx, sent))

	select {
	case got := <-msgs:
		assert.Equal(t, sent.Origin, got.Origin)
		assert.Equal(t, sent.Version, got.Version)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published message")
	}
}
