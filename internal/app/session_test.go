package app_test

import (
	"context"
	"errors"
	"testing"

	"game-quiz-service/internal/app"
	"game-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoQuestionQuiz(t *testing.T, svc *app.DataService) domain.Quiz {
	t.Helper()
	quiz, err := svc.CreateQuiz(context.Background(), domain.Quiz{
		GameID:      730,
		Title:       "Two questions",
		Description: "Short one",
		Questions: []domain.Question{
			{Text: "First", Options: []string{"a", "b"}, CorrectAnswer: 1},
			{Text: "Second", Options: []string{"c", "d", "e"}, CorrectAnswer: 0},
		},
	})
	require.NoError(t, err)
	return quiz
}

func TestSessionScoresAndRecordsResult(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	quiz := twoQuestionQuiz(t, svc)
	user := player(2)

	session, err := svc.StartSession(ctx, quiz.ID, user)
	require.NoError(t, err)
	snap := session.Snapshot()
	assert.Equal(t, app.StateInProgress, snap.State)
	assert.Equal(t, 0, snap.QuestionIndex)
	require.NotNil(t, snap.Question)
	assert.Equal(t, "First", snap.Question.Text)

	_, err = session.Select(1)
	require.NoError(t, err)
	snap, advanced := session.Advance(ctx)
	require.True(t, advanced)
	assert.Equal(t, 1, snap.QuestionIndex)
	assert.Nil(t, snap.Selected)

	_, err = session.Select(0)
	require.NoError(t, err)
	snap, advanced = session.Advance(ctx)
	require.True(t, advanced)

	assert.Equal(t, app.StateCompleted, snap.State)
	assert.Equal(t, 2, snap.Score)
	assert.Equal(t, 2, snap.TotalQuestions)
	assert.Equal(t, 100, snap.Percentage)
	require.Len(t, snap.Answers, 2)
	assert.Equal(t, domain.AnswerRecord{QuestionID: 1, ChosenIndex: 1, IsCorrect: true}, snap.Answers[0])
	require.Len(t, snap.Review, 2)
	assert.Equal(t, 0, snap.Review[1].CorrectAnswer)

	var recorded *domain.QuizResult
	for _, r := range svc.UserResults(ctx, user.ID) {
		if r.QuizID == quiz.ID {
			r := r
			recorded = &r
		}
	}
	require.NotNil(t, recorded)
	assert.Equal(t, 2, recorded.Score)
	assert.Equal(t, 2, recorded.TotalQuestions)
	assert.Equal(t, "user1", recorded.Username)
}

func TestSessionAdvanceWithoutSelectionIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	quiz := twoQuestionQuiz(t, svc)

	session, err := svc.StartSession(ctx, quiz.ID, player(2))
	require.NoError(t, err)

	snap, advanced := session.Advance(ctx)
	assert.False(t, advanced)
	assert.Equal(t, app.StateInProgress, snap.State)
	assert.Equal(t, 0, snap.QuestionIndex)
	assert.Empty(t, snap.Answers)
}

func TestSessionSelectionMayChangeBeforeAdvancing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	quiz := twoQuestionQuiz(t, svc)

	session, err := svc.StartSession(ctx, quiz.ID, player(2))
	require.NoError(t, err)

	_, _ = session.Select(0)
	snap, err := session.Select(1)
	require.NoError(t, err)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, 1, *snap.Selected)

	_, err = session.Select(5)
	assert.ErrorIs(t, err, domain.ErrOptionOutOfRange)

	snap, _ = session.Advance(ctx)
	assert.Equal(t, 1, snap.Score)
}

func TestSessionPartialScore(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	quiz := twoQuestionQuiz(t, svc)

	session, err := svc.StartSession(ctx, quiz.ID, player(2))
	require.NoError(t, err)
	_, _ = session.Select(0)
	_, _ = session.Advance(ctx)
	_, _ = session.Select(0)
	snap, _ := session.Advance(ctx)

	assert.Equal(t, 1, snap.Score)
	assert.Equal(t, 50, snap.Percentage)
	assert.False(t, snap.Answers[0].IsCorrect)

	_, err = session.Select(0)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestSessionRestartKeepsRecordedResults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	quiz := twoQuestionQuiz(t, svc)

	session, err := svc.StartSession(ctx, quiz.ID, player(2))
	require.NoError(t, err)
	for _, choice := range []int{1, 0} {
		_, _ = session.Select(choice)
		_, _ = session.Advance(ctx)
	}
	before := len(svc.UserResults(ctx, 2))

	snap := session.Restart()
	assert.Equal(t, app.StateInProgress, snap.State)
	assert.Equal(t, 0, snap.QuestionIndex)
	assert.Zero(t, snap.Score)
	assert.Empty(t, snap.Answers)
	assert.Len(t, svc.UserResults(ctx, 2), before)
}

func TestStartSessionRejectsMissingQuizAndGuests(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.StartSession(ctx, 404, player(2))
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)

	_, err = svc.StartSession(ctx, 1, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.StartSession(ctx, 1, &domain.User{ID: 3, Role: "guest"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestSessionCompletesWhenRecordingFails(t *testing.T) {
	ctx := context.Background()
	session := app.NewQuizSession(player(2), failingRecorder{})
	require.NoError(t, session.Begin(domain.Quiz{
		ID:        5,
		Questions: []domain.Question{{ID: 1, Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 0}},
	}))

	_, _ = session.Select(0)
	snap, advanced := session.Advance(ctx)
	assert.True(t, advanced)
	assert.Equal(t, app.StateCompleted, snap.State)
	assert.Equal(t, 1, snap.Score)
}

func TestSessionRejectsInputBeforeBegin(t *testing.T) {
	session := app.NewQuizSession(player(2), nil)

	snap, err := session.Select(0)
	assert.ErrorIs(t, err, domain.ErrSessionNotStarted)
	assert.Equal(t, app.StateLoading, snap.State)

	snap, advanced := session.Advance(context.Background())
	assert.False(t, advanced)
	assert.Equal(t, app.StateLoading, snap.State)
}

type failingRecorder struct{}

func (failingRecorder) RecordQuizResult(context.Context, domain.QuizResult) (domain.QuizResult, error) {
	return domain.QuizResult{}, errors.New("write failed")
}
