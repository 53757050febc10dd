package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/ports"
)

func TestDurableStoreContract(t *testing.T) {
	ports.RunDurableStoreContract(t, New(t.TempDir()))
}

func TestKeysWithUnsafeCharactersRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key := "draftbench:history"
	require.NoError(t, store.Set(ctx, key, []byte("x")))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestSetLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("first")))
	require.NoError(t, store.Set(ctx, "k", []byte("second")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "overwrites must not accumulate temp files")
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, New(dir).Set(ctx, "k", []byte("persisted")))

	got, err := New(dir).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestDefaultDirectory(t *testing.T) {
	store := New("")
	assert.Equal(t, filepath.Join(".draftbench", "state"), store.dir)
}
