package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"game-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// GameLoader reads the game catalog from the games table.
type GameLoader struct {
	pool *pgxpool.Pool
}

func NewGameLoader(pool *pgxpool.Pool) *GameLoader {
	return &GameLoader{pool: pool}
}

func (l *GameLoader) LoadGames(ctx context.Context) ([]domain.Game, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT appid, name, developer, publisher, rate, windows, macos, linux, steamdeck,
		       tags, release_year, release_month, current_players, peak_24h, all_time_peak
		FROM games
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	defer rows.Close()

	games := []domain.Game{}
	for rows.Next() {
		var (
			g       domain.Game
			rawTags []byte
		)
		if err := rows.Scan(
			&g.AppID, &g.Name, &g.Developer, &g.Publisher, &g.Rate,
			&g.Windows, &g.MacOS, &g.Linux, &g.SteamDeck,
			&rawTags, &g.ReleaseYear, &g.ReleaseMonth,
			&g.CurrentPlayers, &g.Peak24h, &g.AllTimePeak,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.ID = g.AppID
		g.Tags = []string{}
		if len(rawTags) > 0 {
			if err := json.Unmarshal(rawTags, &g.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags of %d: %w", g.AppID, err)
			}
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	return games, nil
}
