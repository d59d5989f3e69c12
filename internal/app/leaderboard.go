package app

import (
	"math"
	"sort"

	"game-quiz-service/internal/domain"
)

// BuildLeaderboard groups the result log by user and ranks users by total score.
//
// Groups are created in order of each user's first result and then stably sorted,
// so equal totals keep first-appearance order. The username shown is the snapshot
// stored on the results; the avatar comes from the live user record.
func BuildLeaderboard(results []domain.QuizResult, users []domain.User) []domain.LeaderboardEntry {
	avatars := make(map[int64]string, len(users))
	for _, u := range users {
		avatars[u.ID] = u.Avatar
	}

	index := make(map[int64]int)
	entries := make([]domain.LeaderboardEntry, 0)
	for _, r := range results {
		i, ok := index[r.UserID]
		if !ok {
			i = len(entries)
			index[r.UserID] = i
			entries = append(entries, domain.LeaderboardEntry{
				UserID:   r.UserID,
				Username: r.Username,
				Avatar:   avatars[r.UserID],
			})
		}
		entries[i].TotalScore += r.Score
		entries[i].TotalQuizzes++
	}

	for i := range entries {
		entries[i].AverageScore = averageScore(entries[i].TotalScore, entries[i].TotalQuizzes)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func averageScore(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(count)*100) / 100
}
