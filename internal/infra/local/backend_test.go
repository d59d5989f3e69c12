package local_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"game-quiz-service/internal/domain"
	"game-quiz-service/internal/infra/local"
	"game-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestOpenSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()

	b, err := local.OpenWithClock(ctx, kv, fixedClock)
	require.NoError(t, err)

	quizzes, _ := b.ListQuizzes(ctx)
	require.Len(t, quizzes, 2)
	assert.Equal(t, int64(730), quizzes[0].GameID)
	assert.Equal(t, int64(1091500), quizzes[1].GameID)

	users, _ := b.ListUsers(ctx)
	require.Len(t, users, 2)
	assert.Equal(t, domain.RoleAdmin, users[0].Role)

	results, _ := b.ListResults(ctx)
	require.Len(t, results, 1)

	for _, key := range []string{local.QuizzesKey, local.VotesKey, local.UsersKey, local.ResultsKey} {
		_, ok, err := kv.Load(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "seed written back for %s", key)
	}
}

func TestOpenRestoresSnapshotAndFallsBackOnCorruptEntries(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()

	stored := []domain.Quiz{{ID: 9, GameID: 1, Title: "Stored", Description: "d"}}
	raw, _ := json.Marshal(stored)
	require.NoError(t, kv.Save(ctx, local.QuizzesKey, raw))
	require.NoError(t, kv.Save(ctx, local.UsersKey, []byte("{not json")))
	require.NoError(t, kv.Save(ctx, local.VotesKey, []byte(`{"2":{"9":"up"}}`)))

	b, err := local.Open(ctx, kv)
	require.NoError(t, err)

	quizzes, _ := b.ListQuizzes(ctx)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Stored", quizzes[0].Title)

	users, _ := b.ListUsers(ctx)
	assert.Len(t, users, 2, "corrupt users entry falls back to seed")

	vote, _ := b.UserVote(ctx, 2, 9)
	assert.Equal(t, domain.VoteUp, vote)
}

func TestOpenFailsWhenMediumFails(t *testing.T) {
	_, err := local.Open(context.Background(), failingKV{})
	require.Error(t, err)
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()

	b, err := local.OpenWithClock(ctx, kv, fixedClock)
	require.NoError(t, err)

	created, err := b.CreateQuiz(ctx, domain.Quiz{
		GameID:      730,
		Title:       "New",
		Description: "desc",
		Questions:   []domain.Question{{ID: 1, Text: "q", Options: []string{"a", "b"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
	assert.Equal(t, fixedClock(), created.CreatedAt)

	_, err = b.SetVote(ctx, 2, created.ID, domain.VoteUp)
	require.NoError(t, err)

	reopened, err := local.Open(ctx, kv)
	require.NoError(t, err)

	got, err := reopened.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes)
	vote, _ := reopened.UserVote(ctx, 2, created.ID)
	assert.Equal(t, domain.VoteUp, vote)
}

func TestSetVoteMovesCounters(t *testing.T) {
	ctx := context.Background()
	b, err := local.Open(ctx, memory.NewKVStore())
	require.NoError(t, err)

	// seed quiz 2 starts at 8 up, 0 down
	q, err := b.SetVote(ctx, 1, 2, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Upvotes)
	assert.Equal(t, 1, q.Downvotes)

	q, err = b.SetVote(ctx, 1, 2, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 9, q.Upvotes)
	assert.Equal(t, 0, q.Downvotes)

	q, err = b.SetVote(ctx, 1, 2, domain.VoteNone)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Upvotes)
	vote, _ := b.UserVote(ctx, 1, 2)
	assert.Equal(t, domain.VoteNone, vote)

	_, err = b.SetVote(ctx, 1, 404, domain.VoteUp)
	assert.True(t, errors.Is(err, domain.ErrQuizNotFound))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	b, err := local.Open(ctx, memory.NewKVStore())
	require.NoError(t, err)

	q, _ := b.GetQuiz(ctx, 1)
	q.Title = "mutated"
	q.Questions[0].Options[0] = "mutated"

	again, _ := b.GetQuiz(ctx, 1)
	assert.NotEqual(t, "mutated", again.Title)
	assert.NotEqual(t, "mutated", again.Questions[0].Options[0])
}

func TestQuizzesByRatingOrdersByRatingThenNewest(t *testing.T) {
	ctx := context.Background()
	b, err := local.Open(ctx, memory.NewKVStore())
	require.NoError(t, err)

	ranked, err := b.QuizzesByRating(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	// seed ratings: quiz 2 = 8, quiz 1 = 4
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, int64(1), ranked[1].ID)
}

func TestUsersAndResults(t *testing.T) {
	ctx := context.Background()
	b, err := local.OpenWithClock(ctx, memory.NewKVStore(), fixedClock)
	require.NoError(t, err)

	u, err := b.CreateUser(ctx, domain.User{Username: "neo", Email: "neo@example.com", Password: "x", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)

	byEmail, err := b.UserByEmail(ctx, "neo@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = b.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	avatar := "https://example.com/a.png"
	updated, err := b.UpdateUser(ctx, u.ID, domain.UserUpdate{Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, avatar, updated.Avatar)

	r, err := b.AddResult(ctx, domain.QuizResult{UserID: u.ID, QuizID: 1, Score: 1, TotalQuestions: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.ID)

	mine, _ := b.UserResults(ctx, u.ID)
	require.Len(t, mine, 1)
	all, _ := b.ListResults(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID, "result log keeps insertion order")
}

type failingKV struct{}

func (failingKV) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("medium offline")
}

func (failingKV) Save(context.Context, string, []byte) error {
	return errors.New("medium offline")
}
