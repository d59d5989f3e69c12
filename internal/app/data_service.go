package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"game-quiz-service/internal/domain"
	"game-quiz-service/internal/events"
	"game-quiz-service/internal/metrics"
)

// DataService is the single entry point for quiz, user, vote, result and game
// operations. It forwards to whichever backend the Resolver settled on.
//
// Reads are best-effort: backend failures are logged and answered with an empty
// list or a false lookup. Mutations return their errors to the caller.
type DataService struct {
	backends  *Resolver
	games     GameCatalog
	publisher EventPublisher
	feed      *LeaderboardFeed
	now       func() time.Time
}

func NewDataService(backends *Resolver, games GameCatalog, publisher EventPublisher) *DataService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &DataService{
		backends:  backends,
		games:     games,
		publisher: publisher,
		feed:      NewLeaderboardFeed(),
		now:       time.Now,
	}
}

// WithClock replaces the clock used for timestamps; intended for tests.
func (s *DataService) WithClock(now func() time.Time) *DataService {
	s.now = now
	return s
}

// Rating is the synchronous net rating of a quiz; it never touches the backend.
func (s *DataService) Rating(q domain.Quiz) int {
	return domain.Rating(q)
}

func (s *DataService) ListQuizzes(ctx context.Context) []domain.Quiz {
	return list(ctx, s, "list quizzes", func(b Backend) ([]domain.Quiz, error) {
		return b.ListQuizzes(ctx)
	})
}

func (s *DataService) QuizByID(ctx context.Context, id int64) (domain.Quiz, bool) {
	return lookup(ctx, s, "get quiz", domain.ErrQuizNotFound, func(b Backend) (domain.Quiz, error) {
		return b.GetQuiz(ctx, id)
	})
}

func (s *DataService) QuizzesByGame(ctx context.Context, gameID int64) []domain.Quiz {
	return list(ctx, s, "quizzes by game", func(b Backend) ([]domain.Quiz, error) {
		return b.QuizzesByGame(ctx, gameID)
	})
}

// QuizzesByRating lists quizzes by rating descending, newest first on ties.
func (s *DataService) QuizzesByRating(ctx context.Context) []domain.Quiz {
	return list(ctx, s, "quizzes by rating", func(b Backend) ([]domain.Quiz, error) {
		return b.QuizzesByRating(ctx)
	})
}

// CreateQuiz validates and stores a new quiz with zeroed vote counters.
func (s *DataService) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions = domain.NumberQuestions(quiz.Questions)
	quiz.Upvotes, quiz.Downvotes = 0, 0

	b, err := s.backends.Backend(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	created, err := b.CreateQuiz(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.publish(ctx, events.QuizCreated, created)
	return created, nil
}

// UpdateQuiz applies a partial update. Vote counters cannot be changed here.
func (s *DataService) UpdateQuiz(ctx context.Context, id int64, update domain.QuizUpdate) (domain.Quiz, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if update.Description != nil && strings.TrimSpace(*update.Description) == "" {
		return domain.Quiz{}, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if update.GameID != nil && *update.GameID <= 0 {
		return domain.Quiz{}, fmt.Errorf("%w: game is required", domain.ErrValidation)
	}
	if update.CoverImage != nil {
		if err := domain.ValidateImage(*update.CoverImage); err != nil {
			return domain.Quiz{}, fmt.Errorf("cover image: %w", err)
		}
	}
	if update.Questions != nil {
		if err := domain.ValidateQuestions(*update.Questions); err != nil {
			return domain.Quiz{}, err
		}
		numbered := domain.NumberQuestions(*update.Questions)
		update.Questions = &numbered
	}

	b, err := s.backends.Backend(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	updated, err := b.UpdateQuiz(ctx, id, update)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz %d: %w", id, err)
	}
	s.publish(ctx, events.QuizUpdated, updated)
	return updated, nil
}

// Vote casts actor's vote on a quiz. Casting the current direction again clears
// it, casting the opposite replaces it, and VoteNone clears it. It returns the
// updated quiz and the resulting vote state.
func (s *DataService) Vote(ctx context.Context, actor *domain.User, quizID int64, cast domain.VoteDirection) (domain.Quiz, domain.VoteDirection, error) {
	if actor == nil {
		return domain.Quiz{}, domain.VoteNone, domain.ErrUnauthenticated
	}
	if !cast.Valid() {
		return domain.Quiz{}, domain.VoteNone, fmt.Errorf("%w: unknown vote %q", domain.ErrValidation, cast)
	}

	b, err := s.backends.Backend(ctx)
	if err != nil {
		return domain.Quiz{}, domain.VoteNone, err
	}
	current, err := b.UserVote(ctx, actor.ID, quizID)
	if err != nil {
		return domain.Quiz{}, domain.VoteNone, fmt.Errorf("read vote: %w", err)
	}
	next := domain.NextVote(current, cast)
	quiz, err := b.SetVote(ctx, actor.ID, quizID, next)
	if err != nil {
		return domain.Quiz{}, current, fmt.Errorf("vote on quiz %d: %w", quizID, err)
	}

	metrics.VotesCast.WithLabelValues(voteLabel(next)).Inc()
	s.publish(ctx, events.QuizVoted, domain.Vote{UserID: actor.ID, QuizID: quizID, Direction: next})
	return quiz, next, nil
}

// UserVote returns the user's current vote on a quiz, VoteNone if absent.
func (s *DataService) UserVote(ctx context.Context, userID, quizID int64) domain.VoteDirection {
	b, ok := s.backend(ctx, "get user vote")
	if !ok {
		return domain.VoteNone
	}
	v, err := b.UserVote(ctx, userID, quizID)
	if err != nil {
		readFailed("get user vote", err)
		return domain.VoteNone
	}
	return v
}

func (s *DataService) ListUsers(ctx context.Context) []domain.User {
	return list(ctx, s, "list users", func(b Backend) ([]domain.User, error) {
		return b.ListUsers(ctx)
	})
}

func (s *DataService) UserByID(ctx context.Context, id int64) (domain.User, bool) {
	return lookup(ctx, s, "get user", domain.ErrUserNotFound, func(b Backend) (domain.User, error) {
		return b.GetUser(ctx, id)
	})
}

func (s *DataService) UserByEmail(ctx context.Context, email string) (domain.User, bool) {
	return lookup(ctx, s, "get user by email", domain.ErrUserNotFound, func(b Backend) (domain.User, error) {
		return b.UserByEmail(ctx, email)
	})
}

func (s *DataService) UserByUsername(ctx context.Context, username string) (domain.User, bool) {
	return lookup(ctx, s, "get user by username", domain.ErrUserNotFound, func(b Backend) (domain.User, error) {
		return b.UserByUsername(ctx, username)
	})
}

// CreateUser registers a regular user. The password is stored as given; callers
// hash it first.
func (s *DataService) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if err := domain.ValidateUser(user); err != nil {
		return domain.User{}, err
	}
	user.Role = domain.RoleUser
	user.Avatar = ""

	b, err := s.backends.Backend(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.ensureUnique(ctx, b, 0, &user.Username, &user.Email); err != nil {
		return domain.User{}, err
	}
	created, err := b.CreateUser(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.publish(ctx, events.UserCreated, created.Public())
	return created, nil
}

// UpdateUser applies a partial update to a user profile.
func (s *DataService) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (domain.User, error) {
	if update.Username != nil {
		trimmed := strings.TrimSpace(*update.Username)
		if trimmed == "" {
			return domain.User{}, fmt.Errorf("%w: username is required", domain.ErrValidation)
		}
		update.Username = &trimmed
	}
	if update.Email != nil && !strings.Contains(*update.Email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if update.Avatar != nil {
		if err := domain.ValidateImage(*update.Avatar); err != nil {
			return domain.User{}, fmt.Errorf("avatar: %w", err)
		}
	}
	if update.Role != nil && *update.Role != domain.RoleUser && *update.Role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, *update.Role)
	}

	b, err := s.backends.Backend(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.ensureUnique(ctx, b, id, update.Username, update.Email); err != nil {
		return domain.User{}, err
	}
	updated, err := b.UpdateUser(ctx, id, update)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	s.publish(ctx, events.UserUpdated, updated.Public())
	return updated, nil
}

// UpdateUserAvatar sets or, with an empty value, clears the user's avatar.
func (s *DataService) UpdateUserAvatar(ctx context.Context, id int64, avatar string) (domain.User, error) {
	return s.UpdateUser(ctx, id, domain.UserUpdate{Avatar: &avatar})
}

// RecordQuizResult appends a completed attempt to the result log, snapshotting
// the player's current username.
func (s *DataService) RecordQuizResult(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	if result.Score < 0 || result.TotalQuestions < 0 {
		return domain.QuizResult{}, fmt.Errorf("%w: score and total must not be negative", domain.ErrValidation)
	}
	b, err := s.backends.Backend(ctx)
	if err != nil {
		metrics.ResultsRecorded.WithLabelValues("error").Inc()
		return domain.QuizResult{}, err
	}

	result.Username = "Unknown"
	if u, err := b.GetUser(ctx, result.UserID); err == nil {
		result.Username = u.Username
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now().UTC()
	}

	recorded, err := b.AddResult(ctx, result)
	if err != nil {
		metrics.ResultsRecorded.WithLabelValues("error").Inc()
		return domain.QuizResult{}, fmt.Errorf("record quiz result: %w", err)
	}
	metrics.ResultsRecorded.WithLabelValues("ok").Inc()
	s.publish(ctx, events.ResultRecorded, recorded)
	s.feed.Refresh(func() []domain.LeaderboardEntry { return s.Leaderboard(ctx) })
	return recorded, nil
}

func (s *DataService) UserResults(ctx context.Context, userID int64) []domain.QuizResult {
	return list(ctx, s, "user results", func(b Backend) ([]domain.QuizResult, error) {
		return b.UserResults(ctx, userID)
	})
}

// Leaderboard ranks every user with at least one result.
func (s *DataService) Leaderboard(ctx context.Context) []domain.LeaderboardEntry {
	b, ok := s.backend(ctx, "leaderboard")
	if !ok {
		return []domain.LeaderboardEntry{}
	}
	results, err := b.ListResults(ctx)
	if err != nil {
		readFailed("leaderboard", err)
		return []domain.LeaderboardEntry{}
	}
	users, err := b.ListUsers(ctx)
	if err != nil {
		// Avatars are decoration; rank without them.
		log.Printf("warning: leaderboard users: %v", err)
		users = nil
	}
	return BuildLeaderboard(results, users)
}

// Games returns the memoized game catalog.
func (s *DataService) Games(ctx context.Context) []domain.Game {
	if s.games == nil {
		return []domain.Game{}
	}
	games, err := s.games.Games(ctx)
	if err != nil {
		readFailed("list games", err)
		return []domain.Game{}
	}
	return games
}

// GameByID finds a game by catalog id or Steam appid.
func (s *DataService) GameByID(ctx context.Context, id int64) (domain.Game, bool) {
	for _, g := range s.Games(ctx) {
		if g.ID == id || g.AppID == id {
			return g, true
		}
	}
	return domain.Game{}, false
}

func (s *DataService) ensureUnique(ctx context.Context, b Backend, selfID int64, username, email *string) error {
	if username != nil {
		u, err := b.UserByUsername(ctx, *username)
		if err == nil && u.ID != selfID {
			return fmt.Errorf("%w: username %q is taken", domain.ErrUserExists, *username)
		}
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("check username: %w", err)
		}
	}
	if email != nil {
		u, err := b.UserByEmail(ctx, *email)
		if err == nil && u.ID != selfID {
			return fmt.Errorf("%w: email %q is taken", domain.ErrUserExists, *email)
		}
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
	}
	return nil
}

func (s *DataService) backend(ctx context.Context, op string) (Backend, bool) {
	b, err := s.backends.Backend(ctx)
	if err != nil {
		readFailed(op, err)
		return nil, false
	}
	return b, true
}

func (s *DataService) publish(ctx context.Context, eventType string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		log.Printf("warning: publish %s: %v", eventType, err)
	}
}

func list[T any](ctx context.Context, s *DataService, op string, fn func(Backend) ([]T, error)) []T {
	b, ok := s.backend(ctx, op)
	if !ok {
		return []T{}
	}
	items, err := fn(b)
	if err != nil {
		readFailed(op, err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func lookup[T any](ctx context.Context, s *DataService, op string, notFound error, fn func(Backend) (T, error)) (T, bool) {
	var zero T
	b, ok := s.backend(ctx, op)
	if !ok {
		return zero, false
	}
	item, err := fn(b)
	if err != nil {
		if !errors.Is(err, notFound) {
			readFailed(op, err)
		}
		return zero, false
	}
	return item, true
}

func readFailed(op string, err error) {
	log.Printf("warning: %s: %v", op, err)
	metrics.ReadFailures.WithLabelValues(op).Inc()
}

func voteLabel(v domain.VoteDirection) string {
	if v == domain.VoteNone {
		return "none"
	}
	return string(v)
}
