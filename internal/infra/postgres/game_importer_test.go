package postgres

import (
	"testing"

	"game-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRowCopiesGameFields(t *testing.T) {
	row := toRow(domain.Game{
		ID: 730, AppID: 730, Name: "Counter-Strike 2", Windows: true, Rate: 95.5,
		ReleaseYear: 2012, AllTimePeak: 300,
	})

	assert.Zero(t, row.ID, "id is assigned by the database")
	assert.Equal(t, int64(730), row.AppID)
	assert.Equal(t, "Counter-Strike 2", row.Name)
	assert.True(t, row.Windows)
	assert.Equal(t, 2012, row.ReleaseYear)
	assert.NotNil(t, row.Tags)
	assert.Empty(t, row.Tags)
}

func TestUniqueRowsKeepsLastRowPerAppID(t *testing.T) {
	rows := uniqueRows([]domain.Game{
		{AppID: 730, Name: "Counter-Strike"},
		{AppID: 0, Name: "no appid"},
		{AppID: 570, Name: "Dota 2"},
		{AppID: 730, Name: "Counter-Strike 2"},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, int64(730), rows[0].AppID)
	assert.Equal(t, "Counter-Strike 2", rows[0].Name)
	assert.Equal(t, int64(570), rows[1].AppID)
}
