package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"game-quiz-service/internal/domain"
)

// Snapshot entry names.
const (
	QuizzesKey = "game-quiz-quizzes"
	VotesKey   = "game-quiz-votes"
	UsersKey   = "game-quiz-users"
	ResultsKey = "game-quiz-results"
)

// KVStore is the durable medium the snapshot is written to.
type KVStore interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Backend keeps quizzes, votes, users and results in memory and writes all four
// collections back to the KVStore after every mutation. The four writes are not
// atomic: a failure part-way leaves earlier entries updated.
type Backend struct {
	kv  KVStore
	now func() time.Time

	mu      sync.RWMutex
	quizzes []domain.Quiz
	votes   map[int64]map[int64]domain.VoteDirection
	users   []domain.User
	results []domain.QuizResult
}

// Open restores the snapshot from kv. Missing or unreadable entries are replaced by
// seed data, which is written back.
func Open(ctx context.Context, kv KVStore) (*Backend, error) {
	return OpenWithClock(ctx, kv, time.Now)
}

func OpenWithClock(ctx context.Context, kv KVStore, now func() time.Time) (*Backend, error) {
	b := &Backend{kv: kv, now: now}
	seeded := false

	var err error
	var ok bool
	if ok, err = restore(ctx, kv, QuizzesKey, &b.quizzes); err != nil {
		return nil, err
	}
	if !ok || len(b.quizzes) == 0 {
		b.quizzes, seeded = seedQuizzes(), true
	}
	if ok, err = restore(ctx, kv, VotesKey, &b.votes); err != nil {
		return nil, err
	}
	if !ok || b.votes == nil {
		b.votes, seeded = make(map[int64]map[int64]domain.VoteDirection), true
	}
	if ok, err = restore(ctx, kv, UsersKey, &b.users); err != nil {
		return nil, err
	}
	if !ok || len(b.users) == 0 {
		b.users, seeded = seedUsers(), true
	}
	if ok, err = restore(ctx, kv, ResultsKey, &b.results); err != nil {
		return nil, err
	}
	if !ok || len(b.results) == 0 {
		b.results, seeded = seedResults(), true
	}

	if seeded {
		b.persist(ctx)
	}
	return b, nil
}

// restore decodes one entry. It reports false when the entry is absent or corrupt;
// only a failing medium is an error.
func restore(ctx context.Context, kv KVStore, key string, dst any) (bool, error) {
	raw, ok, err := kv.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Printf("warning: snapshot entry %s is corrupt, using defaults: %v", key, err)
		return false, nil
	}
	return true, nil
}

// persist writes all collections in sequence. The in-memory state stays
// authoritative for the process, so write failures are only logged.
func (b *Backend) persist(ctx context.Context) {
	entries := []struct {
		key   string
		value any
	}{
		{QuizzesKey, b.quizzes},
		{VotesKey, b.votes},
		{UsersKey, b.users},
		{ResultsKey, b.results},
	}
	for _, e := range entries {
		raw, err := json.Marshal(e.value)
		if err != nil {
			log.Printf("warning: encode %s: %v", e.key, err)
			continue
		}
		if err := b.kv.Save(ctx, e.key, raw); err != nil {
			log.Printf("warning: save %s: %v", e.key, err)
		}
	}
}

func (b *Backend) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(b.quizzes))
	for _, q := range b.quizzes {
		out = append(out, cloneQuiz(q))
	}
	return out, nil
}

func (b *Backend) GetQuiz(_ context.Context, id int64) (domain.Quiz, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i := b.quizIndex(id)
	if i < 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(b.quizzes[i]), nil
}

func (b *Backend) QuizzesByGame(_ context.Context, gameID int64) ([]domain.Quiz, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []domain.Quiz{}
	for _, q := range b.quizzes {
		if q.GameID == gameID {
			out = append(out, cloneQuiz(q))
		}
	}
	return out, nil
}

func (b *Backend) QuizzesByRating(ctx context.Context) ([]domain.Quiz, error) {
	out, _ := b.ListQuizzes(ctx)
	domain.SortByRating(out)
	return out, nil
}

func (b *Backend) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var maxID int64
	for _, q := range b.quizzes {
		maxID = max(maxID, q.ID)
	}
	now := b.now().UTC()
	quiz = cloneQuiz(quiz)
	quiz.ID = maxID + 1
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	b.quizzes = append(b.quizzes, quiz)
	b.persist(ctx)
	return cloneQuiz(quiz), nil
}

func (b *Backend) UpdateQuiz(ctx context.Context, id int64, update domain.QuizUpdate) (domain.Quiz, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.quizIndex(id)
	if i < 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	q := &b.quizzes[i]
	if update.GameID != nil {
		q.GameID = *update.GameID
	}
	if update.Title != nil {
		q.Title = *update.Title
	}
	if update.Description != nil {
		q.Description = *update.Description
	}
	if update.CoverImage != nil {
		q.CoverImage = *update.CoverImage
	}
	if update.Questions != nil {
		q.Questions = cloneQuestions(*update.Questions)
	}
	q.UpdatedAt = b.now().UTC()
	b.persist(ctx)
	return cloneQuiz(*q), nil
}

// SetVote moves the user's vote on a quiz to next and adjusts the counters.
func (b *Backend) SetVote(ctx context.Context, userID, quizID int64, next domain.VoteDirection) (domain.Quiz, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.quizIndex(quizID)
	if i < 0 {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	byQuiz := b.votes[userID]
	prev := byQuiz[quizID]
	domain.ApplyVote(&b.quizzes[i], prev, next)

	if next == domain.VoteNone {
		delete(byQuiz, quizID)
		if len(byQuiz) == 0 {
			delete(b.votes, userID)
		}
	} else {
		if byQuiz == nil {
			byQuiz = make(map[int64]domain.VoteDirection)
			b.votes[userID] = byQuiz
		}
		byQuiz[quizID] = next
	}
	b.persist(ctx)
	return cloneQuiz(b.quizzes[i]), nil
}

func (b *Backend) UserVote(_ context.Context, userID, quizID int64) (domain.VoteDirection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.votes[userID][quizID], nil
}

func (b *Backend) ListUsers(_ context.Context) ([]domain.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.User{}, b.users...), nil
}

func (b *Backend) GetUser(_ context.Context, id int64) (domain.User, error) {
	return b.findUser(func(u domain.User) bool { return u.ID == id })
}

func (b *Backend) UserByEmail(_ context.Context, email string) (domain.User, error) {
	return b.findUser(func(u domain.User) bool { return u.Email == email })
}

func (b *Backend) UserByUsername(_ context.Context, username string) (domain.User, error) {
	return b.findUser(func(u domain.User) bool { return u.Username == username })
}

func (b *Backend) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var maxID int64
	for _, u := range b.users {
		maxID = max(maxID, u.ID)
	}
	now := b.now().UTC()
	user.ID = maxID + 1
	user.CreatedAt = now
	user.UpdatedAt = now
	b.users = append(b.users, user)
	b.persist(ctx)
	return user, nil
}

func (b *Backend) UpdateUser(ctx context.Context, id int64, update domain.UserUpdate) (domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.users {
		u := &b.users[i]
		if u.ID != id {
			continue
		}
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Email != nil {
			u.Email = *update.Email
		}
		if update.Password != nil {
			u.Password = *update.Password
		}
		if update.Avatar != nil {
			u.Avatar = *update.Avatar
		}
		if update.Role != nil {
			u.Role = *update.Role
		}
		u.UpdatedAt = b.now().UTC()
		b.persist(ctx)
		return *u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (b *Backend) AddResult(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var maxID int64
	for _, r := range b.results {
		maxID = max(maxID, r.ID)
	}
	result.ID = maxID + 1
	b.results = append(b.results, result)
	b.persist(ctx)
	return result, nil
}

func (b *Backend) UserResults(_ context.Context, userID int64) ([]domain.QuizResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []domain.QuizResult{}
	for _, r := range b.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListResults returns the result log in insertion order.
func (b *Backend) ListResults(_ context.Context) ([]domain.QuizResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.QuizResult{}, b.results...), nil
}

func (b *Backend) findUser(match func(domain.User) bool) (domain.User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, u := range b.users {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (b *Backend) quizIndex(id int64) int {
	for i, q := range b.quizzes {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Questions = cloneQuestions(q.Questions)
	return q
}

func cloneQuestions(in []domain.Question) []domain.Question {
	if in == nil {
		return nil
	}
	out := make([]domain.Question, len(in))
	for i, question := range in {
		question.Options = append([]string(nil), question.Options...)
		out[i] = question
	}
	return out
}
