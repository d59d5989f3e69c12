package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"game-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const gamesKey = "games:catalog"

// GameLoader fetches the game dataset from its source (CSV, SQL).
type GameLoader interface {
	LoadGames(ctx context.Context) ([]domain.Game, error)
}

// GameCache shares the parsed game dataset between instances as one JSON value
// and falls back to the loader on a miss.
type GameCache struct {
	client *redis.Client
	loader GameLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewGameCache(client *redis.Client, loader GameLoader, ttl time.Duration) *GameCache {
	return &GameCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *GameCache) LoadGames(ctx context.Context) ([]domain.Game, error) {
	if games, ok := c.cached(ctx); ok {
		return games, nil
	}

	result, err, _ := c.sf.Do(gamesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if games, ok := c.cached(ctx); ok {
			return games, nil
		}

		games, err := c.loader.LoadGames(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(games)
		if err == nil {
			// best-effort; the next miss reloads
			_ = c.client.Set(ctx, gamesKey, raw, c.ttlWithJitter()).Err()
		}
		return games, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Game), nil
}

func (c *GameCache) cached(ctx context.Context) ([]domain.Game, bool) {
	raw, err := c.client.Get(ctx, gamesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var games []domain.Game
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, false
	}
	return games, true
}

// Invalidate drops the shared copy, e.g. after an import.
func (c *GameCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, gamesKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *GameCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
