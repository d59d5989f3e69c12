package postgres

import (
	"context"
	"fmt"

	"game-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

const importBatchSize = 500

type gameRow struct {
	bun.BaseModel `bun:"table:games"`

	ID             int64    `bun:"id,pk,autoincrement"`
	AppID          int64    `bun:"appid,notnull"`
	Name           string   `bun:"name,notnull"`
	Developer      string   `bun:"developer"`
	Publisher      string   `bun:"publisher"`
	Rate           float64  `bun:"rate"`
	Windows        bool     `bun:"windows"`
	MacOS          bool     `bun:"macos"`
	Linux          bool     `bun:"linux"`
	SteamDeck      bool     `bun:"steamdeck"`
	Tags           []string `bun:"tags,type:jsonb"`
	ReleaseYear    int      `bun:"release_year"`
	ReleaseMonth   int      `bun:"release_month"`
	CurrentPlayers int64    `bun:"current_players"`
	Peak24h        int64    `bun:"peak_24h"`
	AllTimePeak    int64    `bun:"all_time_peak"`
}

// GameImporter upserts parsed games into the games table keyed by appid.
type GameImporter struct {
	db *bun.DB
}

func NewGameImporter(db *bun.DB) *GameImporter {
	return &GameImporter{db: db}
}

// Import writes games in batches and returns how many rows were written. Games
// without an appid cannot be keyed and are skipped; a repeated appid keeps its
// last row.
func (i *GameImporter) Import(ctx context.Context, games []domain.Game) (int, error) {
	rows := uniqueRows(games)

	written := 0
	for start := 0; start < len(rows); start += importBatchSize {
		batch := rows[start:min(start+importBatchSize, len(rows))]
		_, err := i.db.NewInsert().
			Model(&batch).
			On("CONFLICT (appid) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("developer = EXCLUDED.developer").
			Set("publisher = EXCLUDED.publisher").
			Set("rate = EXCLUDED.rate").
			Set("windows = EXCLUDED.windows").
			Set("macos = EXCLUDED.macos").
			Set("linux = EXCLUDED.linux").
			Set("steamdeck = EXCLUDED.steamdeck").
			Set("tags = EXCLUDED.tags").
			Set("release_year = EXCLUDED.release_year").
			Set("release_month = EXCLUDED.release_month").
			Set("current_players = EXCLUDED.current_players").
			Set("peak_24h = EXCLUDED.peak_24h").
			Set("all_time_peak = EXCLUDED.all_time_peak").
			Exec(ctx)
		if err != nil {
			return written, fmt.Errorf("import games: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

// uniqueRows converts games to rows keyed by appid, in order of first
// appearance. Postgres rejects an upsert that touches the same key twice in
// one statement.
func uniqueRows(games []domain.Game) []gameRow {
	index := make(map[int64]int, len(games))
	rows := make([]gameRow, 0, len(games))
	for _, g := range games {
		if g.AppID == 0 {
			continue
		}
		if i, ok := index[g.AppID]; ok {
			rows[i] = toRow(g)
			continue
		}
		index[g.AppID] = len(rows)
		rows = append(rows, toRow(g))
	}
	return rows
}

func toRow(g domain.Game) gameRow {
	tags := g.Tags
	if tags == nil {
		tags = []string{}
	}
	return gameRow{
		AppID:          g.AppID,
		Name:           g.Name,
		Developer:      g.Developer,
		Publisher:      g.Publisher,
		Rate:           g.Rate,
		Windows:        g.Windows,
		MacOS:          g.MacOS,
		Linux:          g.Linux,
		SteamDeck:      g.SteamDeck,
		Tags:           tags,
		ReleaseYear:    g.ReleaseYear,
		ReleaseMonth:   g.ReleaseMonth,
		CurrentPlayers: g.CurrentPlayers,
		Peak24h:        g.Peak24h,
		AllTimePeak:    g.AllTimePeak,
	}
}
