package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"game-quiz-service/internal/domain"
	"game-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameCacheSharesDatasetInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{GameLoader: memory.NewStaticGameLoader(sampleGames())}
	cache := NewGameCache(client, loader, time.Minute)

	games, err := cache.LoadGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 1)
	assert.Equal(t, 1, loader.count())
	assert.True(t, mr.Exists(gamesKey))

	// A second instance reads the shared copy.
	other := NewGameCache(client, loader, time.Minute)
	games, err = other.LoadGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loader.count(), "expected cache hit")
	require.Len(t, games, 1)
	assert.Equal(t, "Counter-Strike 2", games[0].Name)
	assert.Equal(t, []string{"FPS"}, games[0].Tags)

	require.NoError(t, cache.Invalidate(context.Background()))
	_, _ = cache.LoadGames(context.Background())
	assert.Equal(t, 2, loader.count(), "expected reload after invalidate")
}

func TestIdentityStoreExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	store := NewIdentityStore(newClient(mr))

	user := domain.User{ID: 2, Username: "user1", Password: "user123", Role: domain.RoleUser}
	require.NoError(t, store.Save(ctx, "sid-1", user, time.Minute))
	assert.True(t, mr.Exists("quiz:identity:sid-1"))

	got, ok, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user1", got.Username)
	assert.Empty(t, got.Password)

	mr.FastForward(2 * time.Minute)
	_, ok, _ = store.Load(ctx, "sid-1")
	assert.False(t, ok, "expected identity to expire")

	require.NoError(t, store.Save(ctx, "sid-2", user, time.Minute))
	require.NoError(t, store.Delete(ctx, "sid-2"))
	assert.False(t, mr.Exists("quiz:identity:sid-2"))
}

func TestKVStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	ctx := context.Background()
	store := NewKVStore(newClient(mr), "snapshot:")

	_, ok, err := store.Load(ctx, "game-quiz-votes")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "game-quiz-votes", []byte(`{}`)))
	assert.True(t, mr.Exists("snapshot:game-quiz-votes"))

	raw, ok, err := store.Load(ctx, "game-quiz-votes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{}`, string(raw))
}

type countingLoader struct {
	GameLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadGames(ctx context.Context) ([]domain.Game, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.GameLoader.LoadGames(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleGames() []domain.Game {
	return []domain.Game{{ID: 730, AppID: 730, Name: "Counter-Strike 2", Tags: []string{"FPS"}}}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
