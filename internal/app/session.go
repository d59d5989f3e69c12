package app

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"game-quiz-service/internal/domain"
)

// SessionState is the phase of a quiz session.
type SessionState string

const (
	StateLoading    SessionState = "loading"
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
)

// ResultRecorder persists a finished attempt.
type ResultRecorder interface {
	RecordQuizResult(ctx context.Context, result domain.QuizResult) (domain.QuizResult, error)
}

// QuestionView is a question as shown to the player, without the answer.
type QuestionView struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Image   string   `json:"image,omitempty"`
}

// ReviewItem pairs a question with the player's answer once the quiz is over.
type ReviewItem struct {
	QuestionID    int      `json:"questionId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	ChosenIndex   int      `json:"chosenIndex"`
	CorrectAnswer int      `json:"correctAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
}

// SessionSnapshot is a read-only view of a session.
type SessionSnapshot struct {
	State          SessionState          `json:"state"`
	QuizID         int64                 `json:"quizId"`
	Title          string                `json:"title"`
	QuestionIndex  int                   `json:"questionIndex"`
	TotalQuestions int                   `json:"totalQuestions"`
	Question       *QuestionView         `json:"question,omitempty"`
	Selected       *int                  `json:"selected"`
	Answers        []domain.AnswerRecord `json:"answers"`
	Score          int                   `json:"score"`
	Percentage     int                   `json:"percentage,omitempty"`
	Review         []ReviewItem          `json:"review,omitempty"`
}

// QuizSession drives one player through a quiz: loading, answering questions in
// order, and completion. It is safe for concurrent use.
type QuizSession struct {
	mu       sync.Mutex
	player   *domain.User
	recorder ResultRecorder
	now      func() time.Time

	state    SessionState
	quiz     domain.Quiz
	index    int
	selected int
	answers  []domain.AnswerRecord
	score    int
}

// NewQuizSession returns a session in the loading state.
func NewQuizSession(player *domain.User, recorder ResultRecorder) *QuizSession {
	return NewQuizSessionWithClock(player, recorder, time.Now)
}

// NewQuizSessionWithClock allows deterministic timestamps in tests.
func NewQuizSessionWithClock(player *domain.User, recorder ResultRecorder, now func() time.Time) *QuizSession {
	return &QuizSession{
		player:   player,
		recorder: recorder,
		now:      now,
		state:    StateLoading,
		selected: -1,
	}
}

// StartSession loads a quiz and opens a session on its first question. Missing
// quizzes and players who may not play never reach the in-progress state.
func (s *DataService) StartSession(ctx context.Context, quizID int64, player *domain.User) (*QuizSession, error) {
	session := NewQuizSessionWithClock(player, s, s.now)
	quiz, ok := s.QuizByID(ctx, quizID)
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	if err := session.Begin(quiz); err != nil {
		return nil, err
	}
	return session, nil
}

// Begin moves a loading session to the first question.
func (q *QuizSession) Begin(quiz domain.Quiz) error {
	if q.player == nil || !q.player.CanPlay() {
		return domain.ErrUnauthenticated
	}
	if err := domain.ValidateQuestions(quiz.Questions); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.quiz = quiz
	q.resetLocked()
	return nil
}

// Select marks option i of the current question. It may be called any number of
// times before advancing.
func (q *QuizSession) Select(i int) (SessionSnapshot, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch q.state {
	case StateLoading:
		return q.snapshotLocked(), domain.ErrSessionNotStarted
	case StateCompleted:
		return q.snapshotLocked(), domain.ErrSessionCompleted
	}
	if i < 0 || i >= len(q.quiz.Questions[q.index].Options) {
		return q.snapshotLocked(), domain.ErrOptionOutOfRange
	}
	q.selected = i
	return q.snapshotLocked(), nil
}

// Advance scores the selected option and moves to the next question, or
// completes the quiz after the last one. Without a selection it does nothing and
// reports false. On completion the result is recorded best-effort: a failed write
// is logged and the session is completed regardless.
func (q *QuizSession) Advance(ctx context.Context) (SessionSnapshot, bool) {
	q.mu.Lock()
	if q.state != StateInProgress || q.selected < 0 {
		snap := q.snapshotLocked()
		q.mu.Unlock()
		return snap, false
	}

	question := q.quiz.Questions[q.index]
	correct := q.selected == question.CorrectAnswer
	q.answers = append(q.answers, domain.AnswerRecord{
		QuestionID:  question.ID,
		ChosenIndex: q.selected,
		IsCorrect:   correct,
	})
	if correct {
		q.score++
	}
	q.selected = -1

	if q.index < len(q.quiz.Questions)-1 {
		q.index++
		snap := q.snapshotLocked()
		q.mu.Unlock()
		return snap, true
	}

	q.state = StateCompleted
	result := domain.QuizResult{
		QuizID:         q.quiz.ID,
		Score:          q.score,
		TotalQuestions: len(q.quiz.Questions),
		CompletedAt:    q.now().UTC(),
	}
	snap := q.snapshotLocked()
	q.mu.Unlock()

	if q.player != nil && q.recorder != nil {
		result.UserID = q.player.ID
		if _, err := q.recorder.RecordQuizResult(ctx, result); err != nil {
			log.Printf("warning: record result for quiz %d user %d: %v", result.QuizID, result.UserID, err)
		}
	}
	return snap, true
}

// Restart returns to the first question with a clean score. Results already
// recorded are kept.
func (q *QuizSession) Restart() SessionSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != StateLoading {
		q.resetLocked()
	}
	return q.snapshotLocked()
}

// Snapshot returns the current view of the session.
func (q *QuizSession) Snapshot() SessionSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *QuizSession) resetLocked() {
	q.state = StateInProgress
	q.index = 0
	q.selected = -1
	q.answers = nil
	q.score = 0
}

func (q *QuizSession) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		State:          q.state,
		QuizID:         q.quiz.ID,
		Title:          q.quiz.Title,
		QuestionIndex:  q.index,
		TotalQuestions: len(q.quiz.Questions),
		Answers:        append([]domain.AnswerRecord{}, q.answers...),
		Score:          q.score,
	}
	if q.selected >= 0 {
		sel := q.selected
		snap.Selected = &sel
	}

	switch q.state {
	case StateInProgress:
		question := q.quiz.Questions[q.index]
		snap.Question = &QuestionView{
			ID:      question.ID,
			Text:    question.Text,
			Options: append([]string(nil), question.Options...),
			Image:   question.Image,
		}
	case StateCompleted:
		snap.Percentage = int(math.Round(float64(q.score) / float64(len(q.quiz.Questions)) * 100))
		snap.Review = make([]ReviewItem, 0, len(q.answers))
		for i, a := range q.answers {
			question := q.quiz.Questions[i]
			snap.Review = append(snap.Review, ReviewItem{
				QuestionID:    question.ID,
				Text:          question.Text,
				Options:       append([]string(nil), question.Options...),
				ChosenIndex:   a.ChosenIndex,
				CorrectAnswer: question.CorrectAnswer,
				IsCorrect:     a.IsCorrect,
			})
		}
	}
	return snap
}
