package local

import (
	"time"

	"game-quiz-service/internal/domain"
)

func seedTime(layout, value string) time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func seedQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          1,
			GameID:      730,
			Title:       "Counter-Strike 2 quiz",
			Description: "Warm-up questions for every rifler",
			CoverImage:  "https://s0.rbk.ru/v6_top_pics/media/img/0/66/346959045956660.webp",
			Upvotes:     5,
			Downvotes:   1,
			CreatedAt:   seedTime("2006-01-02T15:04:05", "2024-01-10T10:00:00"),
			UpdatedAt:   seedTime("2006-01-02T15:04:05", "2024-01-10T10:00:00"),
			Questions: []domain.Question{
				{ID: 1, Text: "How many rounds win a match?", Options: []string{"13", "16", "15", "12"}, CorrectAnswer: 1},
				{ID: 2, Text: "Which weapon is the most expensive?", Options: []string{"AK-47", "AWP", "M4A4", "Desert Eagle"}, CorrectAnswer: 1},
			},
		},
		{
			ID:          2,
			GameID:      1091500,
			Title:       "Cyberpunk 2077 quiz",
			Description: "A couple of silly questions",
			CoverImage:  "https://cdn.kanobu.ru/r/c369697658c1420200a8656749fa105f/1040x-/u.kanobu.ru/editor/images/30/f9ec5e56-7869-44b0-8b09-6a1282359b56.jpg",
			Upvotes:     8,
			Downvotes:   0,
			CreatedAt:   seedTime("2006-01-02T15:04:05", "2024-01-12T14:30:00"),
			UpdatedAt:   seedTime("2006-01-02T15:04:05", "2024-01-12T14:30:00"),
			Questions: []domain.Question{
				{ID: 1, Text: "Where do you find the iguana after the prologue?", Options: []string{"Arasaka Tower", "Jackie's place", "Nomad camp", "No idea"}, CorrectAnswer: 0},
				{ID: 2, Text: "And the cat?", Options: []string{"Arasaka Tower, believe it or not", "Dumpster next to V's apartment", "Outside Afterlife"}, CorrectAnswer: 1},
			},
		},
	}
}

func seedUsers() []domain.User {
	return []domain.User{
		{
			ID:        1,
			Username:  "admin",
			Email:     "admin@example.com",
			Password:  "admin123",
			Role:      domain.RoleAdmin,
			CreatedAt: seedTime("2006-01-02", "2024-01-01"),
			UpdatedAt: seedTime("2006-01-02", "2024-01-01"),
		},
		{
			ID:        2,
			Username:  "user1",
			Email:     "user1@example.com",
			Password:  "user123",
			Role:      domain.RoleUser,
			CreatedAt: seedTime("2006-01-02", "2024-01-02"),
			UpdatedAt: seedTime("2006-01-02", "2024-01-02"),
		},
	}
}

func seedResults() []domain.QuizResult {
	return []domain.QuizResult{
		{
			ID:             1,
			UserID:         2,
			Username:       "user1",
			QuizID:         1,
			Score:          3,
			TotalQuestions: 3,
			CompletedAt:    seedTime("2006-01-02T15:04:05", "2024-01-15T10:30:00"),
		},
	}
}
