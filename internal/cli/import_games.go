package cli

import (
	"context"
	"log"
	"time"

	"game-quiz-service/internal/catalog"
	"game-quiz-service/internal/config"
	pggames "game-quiz-service/internal/infra/postgres"
	rediscache "game-quiz-service/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewImportGamesCmd loads the games CSV into Postgres and drops the cached catalog.
func NewImportGamesCmd(configPath *string) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "import-games",
		Short: "Import the games CSV into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if source != "" {
				cfg.Games.Source = source
			}
			return importGames(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "CSV path or URL (defaults to games.source)")
	return cmd
}

func importGames(ctx context.Context, cfg config.Config) error {
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	games, err := catalog.NewCSVLoader(cfg.Games.Source).LoadGames(ctx)
	if err != nil {
		return err
	}

	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := pggames.NewGameImporter(db).Import(ctx, games)
	if err != nil {
		return err
	}
	log.Printf("imported %d of %d games from %s", n, len(games), cfg.Games.Source)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		cache := rediscache.NewGameCache(client, nil, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		if err := cache.Invalidate(ctx); err != nil {
			log.Printf("warning: invalidate games cache: %v", err)
		}
	}
	return nil
}
