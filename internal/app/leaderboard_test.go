package app_test

import (
	"testing"

	"game-quiz-service/internal/app"
	"game-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLeaderboardAggregatesAndRanks(t *testing.T) {
	results := []domain.QuizResult{
		{ID: 1, UserID: 1, Username: "alice", Score: 3},
		{ID: 2, UserID: 1, Username: "alice", Score: 5},
		{ID: 3, UserID: 2, Username: "bob", Score: 4},
	}
	users := []domain.User{
		{ID: 1, Username: "alice-renamed", Avatar: "https://cdn/a.png"},
		{ID: 2, Username: "bob"},
	}

	lb := app.BuildLeaderboard(results, users)
	require.Len(t, lb, 2)

	assert.Equal(t, domain.LeaderboardEntry{
		Rank: 1, UserID: 1, Username: "alice", Avatar: "https://cdn/a.png",
		TotalScore: 8, TotalQuizzes: 2, AverageScore: 4.00,
	}, lb[0])
	assert.Equal(t, domain.LeaderboardEntry{
		Rank: 2, UserID: 2, Username: "bob",
		TotalScore: 4, TotalQuizzes: 1, AverageScore: 4.00,
	}, lb[1])
}

func TestBuildLeaderboardTiesKeepFirstAppearance(t *testing.T) {
	results := []domain.QuizResult{
		{UserID: 7, Username: "late", Score: 1},
		{UserID: 3, Username: "early", Score: 2},
		{UserID: 7, Username: "late", Score: 1},
		{UserID: 9, Username: "top", Score: 5},
	}
	lb := app.BuildLeaderboard(results, nil)
	require.Len(t, lb, 3)

	assert.Equal(t, int64(9), lb[0].UserID)
	// 7 and 3 both total 2; 7 appeared first in the log.
	assert.Equal(t, int64(7), lb[1].UserID)
	assert.Equal(t, int64(3), lb[2].UserID)
	assert.Equal(t, []int{1, 2, 3}, []int{lb[0].Rank, lb[1].Rank, lb[2].Rank})
}

func TestBuildLeaderboardRoundsAverage(t *testing.T) {
	results := []domain.QuizResult{
		{UserID: 1, Score: 1},
		{UserID: 1, Score: 1},
		{UserID: 1, Score: 0},
	}
	lb := app.BuildLeaderboard(results, nil)
	require.Len(t, lb, 1)
	assert.Equal(t, 0.67, lb[0].AverageScore)
}

func TestBuildLeaderboardEmpty(t *testing.T) {
	assert.Empty(t, app.BuildLeaderboard(nil, nil))
}
