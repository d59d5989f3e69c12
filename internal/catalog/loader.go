package catalog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"game-quiz-service/internal/domain"
)

// CSVLoader loads the dataset from a file path or an http(s) URL.
type CSVLoader struct {
	Source string
	Client *http.Client
}

func NewCSVLoader(source string) *CSVLoader {
	return &CSVLoader{Source: source, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (l *CSVLoader) LoadGames(ctx context.Context) ([]domain.Game, error) {
	if l.Source == "" {
		return nil, fmt.Errorf("games source is not configured")
	}
	if strings.HasPrefix(l.Source, "http://") || strings.HasPrefix(l.Source, "https://") {
		return l.fetch(ctx)
	}

	f, err := os.Open(l.Source)
	if err != nil {
		return nil, fmt.Errorf("open games csv: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (l *CSVLoader) fetch(ctx context.Context) ([]domain.Game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Source, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch games csv: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch games csv: unexpected status %s", resp.Status)
	}
	return Parse(resp.Body)
}
