package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"game-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// GameLoader fetches the game dataset from its source (CSV, SQL, cache).
type GameLoader interface {
	LoadGames(ctx context.Context) ([]domain.Game, error)
}

// GameCatalog memoizes the game dataset in process. A zero TTL keeps the first
// successful load for the process lifetime. Failed loads are not cached.
type GameCatalog struct {
	loader GameLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	games     []domain.Game
	loaded    bool
	expiresAt time.Time
}

func NewGameCatalog(loader GameLoader, ttl time.Duration) *GameCatalog {
	return &GameCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *GameCatalog) Games(ctx context.Context) ([]domain.Game, error) {
	if games, ok := c.cached(c.clock()); ok {
		return games, nil
	}

	result, err, _ := c.sf.Do("games", func() (interface{}, error) {
		now := c.clock()
		if games, ok := c.cached(now); ok {
			return games, nil
		}

		games, err := c.loader.LoadGames(ctx)
		if err != nil {
			return nil, err
		}
		if games == nil {
			games = []domain.Game{}
		}

		c.mu.Lock()
		c.games = games
		c.loaded = true
		if c.ttl > 0 {
			c.expiresAt = now.Add(c.ttlWithJitter())
		}
		c.mu.Unlock()
		return games, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Game(nil), result.([]domain.Game)...), nil
}

func (c *GameCatalog) cached(now time.Time) ([]domain.Game, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || (c.ttl > 0 && !c.expiresAt.After(now)) {
		return nil, false
	}
	return append([]domain.Game(nil), c.games...), true
}

// StaticGameLoader serves a fixed dataset (useful for tests/demos).
type StaticGameLoader struct {
	games []domain.Game
}

func NewStaticGameLoader(games []domain.Game) *StaticGameLoader {
	return &StaticGameLoader{games: games}
}

func (l *StaticGameLoader) LoadGames(_ context.Context) ([]domain.Game, error) {
	return append([]domain.Game(nil), l.games...), nil
}

func (c *GameCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
