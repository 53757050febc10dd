package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/domain"
)

func serializedCommand(i int) domain.SerializedCommand {
	return domain.SerializedCommand{
		Type:      "entity.move",
		ID:        fmt.Sprintf("cmd-%d", i),
		Name:      fmt.Sprintf("Move entity %d", i),
		Timestamp: time.Now().UnixMilli(),
		Data:      map[string]any{"entityId": "line-1", "dx": float64(i), "dy": 0.0},
		Version:   1,
	}
}

func snapshotWith(undo, redo int) domain.HistorySnapshot {
	snap := domain.NewHistorySnapshot(time.Now().UnixMilli())
	for i := 0; i < undo; i++ {
		snap.UndoStack = append(snap.UndoStack, serializedCommand(i))
	}
	for i := 0; i < redo; i++ {
		snap.RedoStack = append(snap.RedoStack, serializedCommand(100+i))
	}
	return snap
}

func TestLoadEmptyStoreReturnsFactoryDefaults(t *testing.T) {
	g := New(memory.NewStore())

	result := g.Load(context.Background())

	assert.Equal(t, SourceFactory, result.Source)
	assert.True(t, result.Success, "a clean first run is not a failure")
	assert.Empty(t, result.Snapshot.UndoStack)
	assert.Empty(t, result.Snapshot.RedoStack)
	assert.Equal(t, domain.SnapshotVersion, result.Snapshot.Version)
}

func TestLoadNilStoreDisablesPersistence(t *testing.T) {
	g := New(nil)

	result := g.Load(context.Background())
	assert.Equal(t, SourceFactory, result.Source)
	assert.True(t, result.Success)

	_, err := g.Save(context.Background(), snapshotWith(1, 0))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := New(memory.NewStore())
	ctx := context.Background()

	snap := snapshotWith(3, 2)
	res, err := g.Save(ctx, snap)
	require.NoError(t, err)
	assert.True(t, res.Verified)

	result := g.Load(ctx)
	assert.Equal(t, SourceStorage, result.Source)
	assert.True(t, result.Success)
	require.Len(t, result.Snapshot.UndoStack, 3)
	require.Len(t, result.Snapshot.RedoStack, 2)
	assert.Equal(t, "cmd-0", result.Snapshot.UndoStack[0].ID)
	assert.Equal(t, snap.UndoStack[2].Data, result.Snapshot.UndoStack[2].Data)
}

func TestSaveCapsToMostRecent(t *testing.T) {
	g := New(memory.NewStore(), WithMaxPersisted(5))
	ctx := context.Background()

	_, err := g.Save(ctx, snapshotWith(10, 0))
	require.NoError(t, err)

	result := g.Load(ctx)
	require.Len(t, result.Snapshot.UndoStack, 5)
	// The oldest half is evicted, the most recent survive in order.
	assert.Equal(t, "cmd-5", result.Snapshot.UndoStack[0].ID)
	assert.Equal(t, "cmd-9", result.Snapshot.UndoStack[4].ID)
}

func TestSaveRejectsInvalidSnapshot(t *testing.T) {
	g := New(memory.NewStore())

	snap := snapshotWith(1, 0)
	snap.UndoStack[0].ID = ""

	_, err := g.Save(context.Background(), snap)
	assert.Error(t, err)
}

func TestLoadUnversionedRecordStartsFresh(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`{"undoStack":[],"redoStack":[]}`)))

	g := New(store)
	result := g.Load(ctx)

	assert.Equal(t, SourceFactory, result.Source)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Warnings)
}

func TestLoadCorruptJSONFallsBack(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`{"undoStack": [truncated`)))

	g := New(store)
	result := g.Load(ctx)

	assert.Equal(t, SourceFactory, result.Source)
	assert.False(t, result.Success)
}

func TestLoadMigratesV1Record(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	// v1 kept a single flat command list discriminated by "kind".
	v1 := map[string]any{
		"version": 1,
		"commands": []any{
			map[string]any{
				"kind": "entity.move",
				"id":   "cmd-old",
				"name": "Move entity",
				"data": map[string]any{"entityId": "line-1", "dx": 2.0, "dy": 3.0},
			},
		},
	}
	raw, err := json.Marshal(v1)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, DefaultKey, raw))

	g := New(store)
	result := g.Load(ctx)

	assert.Equal(t, SourceMigrated, result.Source)
	assert.True(t, result.Success)
	require.Len(t, result.Snapshot.UndoStack, 1)
	assert.Equal(t, "entity.move", result.Snapshot.UndoStack[0].Type)
	assert.Equal(t, "cmd-old", result.Snapshot.UndoStack[0].ID)
	assert.Empty(t, result.Snapshot.RedoStack)

	// The original record is backed up before migration touches it.
	backup, err := store.Get(ctx, DefaultKey+".v1.bak")
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(backup))
}

func TestLoadMigratesV2Record(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	v2 := map[string]any{
		"version": 2,
		"undoStack": []any{
			map[string]any{"kind": "entity.create", "id": "cmd-a", "data": map[string]any{}},
		},
		"redoStack": []any{
			map[string]any{"kind": "entity.delete", "id": "cmd-b", "data": map[string]any{}},
		},
	}
	raw, err := json.Marshal(v2)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, DefaultKey, raw))

	g := New(store)
	result := g.Load(ctx)

	assert.Equal(t, SourceMigrated, result.Source)
	require.Len(t, result.Snapshot.UndoStack, 1)
	require.Len(t, result.Snapshot.RedoStack, 1)
	assert.Equal(t, "entity.create", result.Snapshot.UndoStack[0].Type)
	assert.Equal(t, "entity.delete", result.Snapshot.RedoStack[0].Type)
}

func TestLoadMigrationGapFallsBackToDefaults(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`{"version":1,"commands":[]}`)))

	// A chain missing the v2 step cannot upgrade a v1 record.
	g := New(store, WithMigrations(Migrations{2: migrateV2RenameKind}))
	result := g.Load(ctx)

	assert.Equal(t, SourceFactory, result.Source)
	assert.False(t, result.Success)
}

func TestLoadCoercesMalformedRecord(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	// Current version tag but one command is missing its ID: validation
	// fails and coercion keeps only the well-formed entries.
	record := map[string]any{
		"version": domain.SnapshotVersion,
		"undoStack": []any{
			map[string]any{"type": "entity.move", "id": "cmd-ok", "version": 1, "data": map[string]any{}},
			map[string]any{"type": "entity.move", "version": 1},
		},
		"redoStack": []any{},
	}
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, DefaultKey, raw))

	g := New(store)
	result := g.Load(ctx)

	assert.Equal(t, SourceCoerced, result.Source)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Warnings)
	require.Len(t, result.Snapshot.UndoStack, 1)
	assert.Equal(t, "cmd-ok", result.Snapshot.UndoStack[0].ID)
}

func TestSaveQuotaExceededSurfacesTypedError(t *testing.T) {
	g := New(memory.NewStore(memory.WithQuota(16)))

	_, err := g.Save(context.Background(), snapshotWith(3, 0))
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

// failAfterStore lets the first N Sets through and fails the rest.
type failAfterStore struct {
	*memory.Store
	allowed int
	sets    int
}

func (f *failAfterStore) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.sets > f.allowed {
		// Rollback writes must still land.
		if f.sets == f.allowed+2 {
			return f.Store.Set(ctx, key, value)
		}
		return errors.New("disk on fire")
	}
	return f.Store.Set(ctx, key, value)
}

func TestSaveRollsBackOnWriteFailure(t *testing.T) {
	store := &failAfterStore{Store: memory.NewStore(), allowed: 1}
	g := New(store)
	ctx := context.Background()

	first := snapshotWith(1, 0)
	_, err := g.Save(ctx, first)
	require.NoError(t, err)

	res, err := g.Save(ctx, snapshotWith(2, 0))
	require.Error(t, err)
	assert.True(t, res.RolledBack)

	// The store still holds the previous good snapshot.
	result := g.Load(ctx)
	require.Len(t, result.Snapshot.UndoStack, 1)
	assert.Equal(t, first.UndoStack[0].ID, result.Snapshot.UndoStack[0].ID)
}

func TestResetDeletesPersistedRecord(t *testing.T) {
	store := memory.NewStore()
	g := New(store)
	ctx := context.Background()

	_, err := g.Save(ctx, snapshotWith(2, 0))
	require.NoError(t, err)

	require.NoError(t, g.Reset(ctx))

	_, err = store.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	assert.Nil(t, g.LastPersisted())
}

func TestSaveBroadcastsDiff(t *testing.T) {
	ch := memory.NewSyncChannel()
	g := New(memory.NewStore(), WithSyncChannel(ch, "session-a"))
	ctx := context.Background()

	msgs, cancel, err := ch.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	_, err = g.Save(ctx, snapshotWith(2, 0))
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "session-a", msg.Origin)
		assert.Equal(t, uint64(1), msg.Version)
		require.NotNil(t, msg.Diff)
		assert.Len(t, msg.Diff.UndoAppended, 2)
		assert.Zero(t, msg.Diff.UndoRemoved)
	case <-time.After(time.Second):
		t.Fatal("expected a sync message after save")
	}

	// A second save appending one command broadcasts only the delta.
	snap := snapshotWith(3, 0)
	_, err = g.Save(ctx, snap)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, uint64(2), msg.Version)
		require.Len(t, msg.Diff.UndoAppended, 1)
		assert.Equal(t, "cmd-2", msg.Diff.UndoAppended[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected a sync message after second save")
	}
}
