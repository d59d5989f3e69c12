// Package catalog reads the static game dataset.
package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"game-quiz-service/internal/domain"
)

// Column order of the dataset.
const (
	colAppID = iota
	colName
	colDeveloper
	colPublisher
	colRate
	colWindows
	colMacOS
	colLinux
	colSteamDeck
	colTags
	colReleaseYear
	colReleaseMonth
	colCurrentPlayers
	colPeak24h
	colAllTimePeak
	columnCount
)

// Parse reads the dataset. The first row is a header. Rows with fewer columns than
// the header, or without a name, are skipped. Numeric fields that do not parse
// read as zero and a malformed tag list reads as no tags.
func Parse(r io.Reader) ([]domain.Game, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Game{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	width := max(len(header), columnCount)

	games := []domain.Game{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read games: %w", err)
		}
		if len(record) < width {
			continue
		}
		game := parseRow(record)
		if game.Name == "" {
			continue
		}
		game.ID = game.AppID
		if game.ID == 0 {
			game.ID = int64(len(games) + 1)
		}
		games = append(games, game)
	}
	return games, nil
}

func parseRow(v []string) domain.Game {
	return domain.Game{
		AppID:          parseInt(v[colAppID]),
		Name:           strings.TrimSpace(v[colName]),
		Developer:      v[colDeveloper],
		Publisher:      v[colPublisher],
		Rate:           parseFloat(v[colRate]),
		Windows:        v[colWindows] == "1",
		MacOS:          v[colMacOS] == "1",
		Linux:          v[colLinux] == "1",
		SteamDeck:      v[colSteamDeck] == "1",
		Tags:           parseTags(v[colTags]),
		ReleaseYear:    int(parseInt(v[colReleaseYear])),
		ReleaseMonth:   int(parseInt(v[colReleaseMonth])),
		CurrentPlayers: parseInt(v[colCurrentPlayers]),
		Peak24h:        parseInt(v[colPeak24h]),
		AllTimePeak:    parseInt(v[colAllTimePeak]),
	}
}

// parseTags decodes a JSON string list. Older exports double the quotes inside an
// unquoted field, so a failed decode is retried with them collapsed.
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		return nonNil(tags)
	}
	if err := json.Unmarshal([]byte(strings.ReplaceAll(raw, `""`, `"`)), &tags); err == nil {
		return nonNil(tags)
	}
	return []string{}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func parseInt(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}
