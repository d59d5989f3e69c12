package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"game-quiz-service/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "appid,name,developer,publisher,rate,windows,macos,linux,steamdeck,tags,release_year,release_month,current_players,peak_24h,all_time_peak\n"

func TestParseQuotedRow(t *testing.T) {
	input := header + `730,Counter-Strike 2,Valve,Valve,95.5,1,0,1,1,"[""FPS""]",2012,8,100,200,300` + "\n"

	games, err := catalog.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, int64(730), g.AppID)
	assert.Equal(t, int64(730), g.ID)
	assert.Equal(t, "Counter-Strike 2", g.Name)
	assert.True(t, g.Windows)
	assert.False(t, g.MacOS)
	assert.True(t, g.Linux)
	assert.True(t, g.SteamDeck)
	assert.Equal(t, []string{"FPS"}, g.Tags)
	assert.Equal(t, 2012, g.ReleaseYear)
	assert.Equal(t, 8, g.ReleaseMonth)
	assert.InDelta(t, 95.5, g.Rate, 0.001)
	assert.Equal(t, int64(300), g.AllTimePeak)
}

func TestParseEmbeddedCommaAndLegacyTags(t *testing.T) {
	input := header +
		`1091500,"Cyberpunk 2077, Phantom Liberty",CD PROJEKT RED,CD PROJEKT RED,80,1,0,0,1,[""RPG""],2020,12,1,2,3` + "\n"

	games, err := catalog.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Cyberpunk 2077, Phantom Liberty", games[0].Name)
	assert.Equal(t, []string{"RPG"}, games[0].Tags)
}

func TestParseSkipsBadRows(t *testing.T) {
	input := header +
		"1,,Dev,Pub,1,1,1,1,1,[],2000,1,0,0,0\n" + // no name
		"2,Short,Dev\n" + // too few columns
		`3,Broken Tags,Dev,Pub,1,1,1,1,1,"not json",2001,2,0,0,0` + "\n" +
		"\n" +
		"0,No AppID,Dev,Pub,x,1,1,1,1,[],,,,,\n"

	games, err := catalog.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "Broken Tags", games[0].Name)
	assert.Empty(t, games[0].Tags)
	assert.NotNil(t, games[0].Tags)

	assert.Equal(t, "No AppID", games[1].Name)
	assert.Equal(t, int64(2), games[1].ID, "falls back to position")
	assert.Zero(t, games[1].Rate)
	assert.Zero(t, games[1].ReleaseYear)
}

func TestParseEmpty(t *testing.T) {
	games, err := catalog.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestCSVLoaderReadsFileAndURL(t *testing.T) {
	body := header + `730,Counter-Strike 2,Valve,Valve,95.5,1,0,1,1,"[""FPS""]",2012,8,100,200,300` + "\n"

	path := filepath.Join(t.TempDir(), "games.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	games, err := catalog.NewCSVLoader(path).LoadGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	games, err = catalog.NewCSVLoader(srv.URL + "/games.csv").LoadGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 1)

	_, err = catalog.NewCSVLoader(srv.URL + "/missing.csv").LoadGames(context.Background())
	assert.Error(t, err)

	_, err = catalog.NewCSVLoader("").LoadGames(context.Background())
	assert.Error(t, err)
}
