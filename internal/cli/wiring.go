package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"game-quiz-service/internal/app"
	"game-quiz-service/internal/auth"
	"game-quiz-service/internal/catalog"
	"game-quiz-service/internal/config"
	"game-quiz-service/internal/events"
	"game-quiz-service/internal/infra/file"
	"game-quiz-service/internal/infra/local"
	"game-quiz-service/internal/infra/memory"
	mongobackend "game-quiz-service/internal/infra/mongo"
	pggames "game-quiz-service/internal/infra/postgres"
	rediscache "game-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// services is the wired application graph shared by the subcommands.
type services struct {
	data *app.DataService
	auth *auth.Service

	mu      sync.Mutex
	closers []func()
}

// onClose registers cleanup; the remote backend registers lazily on first use.
func (s *services) onClose(fn func()) {
	s.mu.Lock()
	s.closers = append(s.closers, fn)
	s.mu.Unlock()
}

func (s *services) Close() {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func buildServices(ctx context.Context, cfg config.Config) (_ *services, err error) {
	svc := &services{}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.onClose(func() { _ = redisClient.Close() })
	}

	kv, err := snapshotStore(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	localFactory := func(ctx context.Context) (app.Backend, error) {
		return local.Open(ctx, kv)
	}
	remoteFactory := func(ctx context.Context) (app.Backend, error) {
		b, err := mongobackend.Open(ctx, mongobackend.Options{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  config.TTLDuration(cfg.Mongo.Timeout, 5*time.Second),
		})
		if err != nil {
			return nil, err
		}
		svc.onClose(func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = b.Close(closeCtx)
		})
		return b, nil
	}
	resolver := app.NewResolver(app.ParseMode(cfg.Backend.Mode), remoteFactory, localFactory)

	var loader memory.GameLoader = catalog.NewCSVLoader(cfg.Games.Source)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		svc.onClose(pool.Close)
		loader = pggames.NewGameLoader(pool)
	}
	if redisClient != nil {
		loader = rediscache.NewGameCache(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}
	games := memory.NewGameCatalog(loader, config.TTLDuration(cfg.Games.TTL, 0))

	var publisher app.EventPublisher = events.Noop{}
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Printf("warning: events disabled: %v", err)
		} else {
			svc.onClose(func() { _ = amqpPublisher.Close() })
			publisher = amqpPublisher
		}
	}

	var identities auth.IdentityStore = memory.NewIdentityStore()
	if redisClient != nil {
		identities = rediscache.NewIdentityStore(redisClient)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth jwt secret not configured")
	}

	svc.data = app.NewDataService(resolver, games, publisher)
	svc.auth = auth.NewService(svc.data, identities, cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	return svc, nil
}

// snapshotStore picks the medium the local backend persists to.
func snapshotStore(cfg config.Config, redisClient *redis.Client) (local.KVStore, error) {
	switch cfg.Backend.Snapshot {
	case "memory":
		return memory.NewKVStore(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis snapshot requires redis.addr")
		}
		return rediscache.NewKVStore(redisClient, "snapshot:"), nil
	case "file":
		return file.NewKVStore(filepath.Clean(cfg.Backend.DataDir))
	}
	return nil, fmt.Errorf("unknown snapshot medium %q", cfg.Backend.Snapshot)
}
