package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewKVStore(dir)
	require.NoError(t, err)

	_, ok, err := store.Load(ctx, "game-quiz-users")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "game-quiz-users", []byte(`[{"id":1}]`)))
	require.NoError(t, store.Save(ctx, "game-quiz-users", []byte(`[{"id":2}]`)))

	got, ok, err := store.Load(ctx, "game-quiz-users")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":2}]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "game-quiz-users.json", entries[0].Name())
}

func TestKVStoreRejectsPathKeys(t *testing.T) {
	store, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, store.Save(context.Background(), "../escape", []byte("x")))
}
