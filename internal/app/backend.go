package app

import (
	"context"

	"game-quiz-service/internal/domain"
)

// Backend is a persistence strategy for the four owned collections: quizzes,
// users, votes and quiz results. Lookups report absence with the domain
// not-found errors. Mutations are durable before they return.
type Backend interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, error)
	QuizzesByGame(ctx context.Context, gameID int64) ([]domain.Quiz, error)
	QuizzesByRating(ctx context.Context) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	UpdateQuiz(ctx context.Context, id int64, update domain.QuizUpdate) (domain.Quiz, error)

	// SetVote moves the (user, quiz) vote to next and adjusts the quiz counters.
	SetVote(ctx context.Context, userID, quizID int64, next domain.VoteDirection) (domain.Quiz, error)
	UserVote(ctx context.Context, userID, quizID int64) (domain.VoteDirection, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (domain.User, error)

	AddResult(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error)
	UserResults(ctx context.Context, userID int64) ([]domain.QuizResult, error)
	ListResults(ctx context.Context) ([]domain.QuizResult, error)
}

// BackendFactory acquires a backend, e.g. by connecting to its storage.
type BackendFactory func(ctx context.Context) (Backend, error)

// GameCatalog serves the static game dataset.
type GameCatalog interface {
	Games(ctx context.Context) ([]domain.Game, error)
}

// EventPublisher receives domain events after successful mutations.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}
