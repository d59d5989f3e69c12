package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"game-quiz-service/internal/app"
	"game-quiz-service/internal/auth"
	"game-quiz-service/internal/domain"
	"game-quiz-service/internal/infra/local"
	"game-quiz-service/internal/infra/memory"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server *httptest.Server
	data   *app.DataService
	auth   *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	kv := memory.NewKVStore()
	resolver := app.NewResolver(app.ModeLocal, nil, func(ctx context.Context) (app.Backend, error) {
		return local.Open(ctx, kv)
	})
	games := memory.NewGameCatalog(memory.NewStaticGameLoader([]domain.Game{
		{ID: 730, AppID: 730, Name: "Counter-Strike 2"},
	}), 0)
	data := app.NewDataService(resolver, games, nil)
	authService := auth.NewService(data, memory.NewIdentityStore(), "test-secret", time.Hour)

	server := httptest.NewServer(NewRouter(data, authService, RouterOptions{}))
	t.Cleanup(server.Close)
	return &fixture{server: server, data: data, auth: authService}
}

func (f *fixture) login(t *testing.T, email, password string) string {
	t.Helper()
	session, err := f.auth.Login(context.Background(), email, password)
	require.NoError(t, err, "login %s", email)
	return session.Token
}

func (f *fixture) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + f.server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err, "dial %s", path)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketQuizFlow(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "user1@example.com", "user123")
	conn := f.dial(t, "/ws/quiz?quizId=1&token="+token)

	var snap app.SessionSnapshot
	readNext(conn, t, "state", &snap)
	require.Equal(t, app.StateInProgress, snap.State)
	require.Equal(t, 2, snap.TotalQuestions)

	send(conn, t, map[string]any{"type": "next"})
	readNext(conn, t, "error", nil)

	send(conn, t, map[string]any{"type": "select", "payload": map[string]any{"option": 9}})
	readNext(conn, t, "error", nil)

	for _, option := range []int{1, 0} {
		send(conn, t, map[string]any{"type": "select", "payload": map[string]any{"option": option}})
		readNext(conn, t, "state", &snap)
		send(conn, t, map[string]any{"type": "next"})
		readNext(conn, t, "state", &snap)
	}
	require.Equal(t, app.StateCompleted, snap.State)
	assert.Equal(t, 1, snap.Score)
	assert.Equal(t, 50, snap.Percentage)
	assert.Len(t, snap.Review, 2)

	var completedErr struct {
		Message string `json:"message"`
	}
	send(conn, t, map[string]any{"type": "next"})
	readNext(conn, t, "error", &completedErr)
	assert.Equal(t, domain.ErrSessionCompleted.Error(), completedErr.Message)

	results := f.data.UserResults(context.Background(), 2)
	require.NotEmpty(t, results)
	last := results[len(results)-1]
	assert.EqualValues(t, 1, last.QuizID)
	assert.Equal(t, 1, last.Score)
	assert.Equal(t, 2, last.TotalQuestions)

	send(conn, t, map[string]any{"type": "restart"})
	readNext(conn, t, "state", &snap)
	assert.Equal(t, app.StateInProgress, snap.State)
	assert.Zero(t, snap.QuestionIndex)
	assert.Empty(t, snap.Answers)
}

func TestWebSocketQuizRejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "user1@example.com", "user123")

	cases := map[string]int{
		"/ws/quiz?quizId=1":                  400,
		"/ws/quiz?quizId=1&token=garbage":    401,
		"/ws/quiz?quizId=404&token=" + token: 404,
		"/ws/quiz?quizId=abc&token=" + token: 400,
	}
	for path, want := range cases {
		u := "ws" + f.server.URL[len("http"):] + path
		_, resp, err := websocket.DefaultDialer.Dial(u, nil)
		require.Error(t, err, path)
		require.NotNil(t, resp, path)
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestWebSocketLeaderboardStream(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "/ws/leaderboard")

	var board []domain.LeaderboardEntry
	readNext(conn, t, "leaderboard", &board)
	require.Len(t, board, 1)
	assert.Equal(t, "user1", board[0].Username)

	_, err := f.data.RecordQuizResult(context.Background(), domain.QuizResult{UserID: 1, QuizID: 2, Score: 5, TotalQuestions: 5})
	require.NoError(t, err)

	readNext(conn, t, "leaderboard", &board)
	require.Len(t, board, 2)
	assert.Equal(t, "admin", board[0].Username)
	assert.Equal(t, 5, board[0].TotalScore)
}

func send(conn *websocket.Conn, t *testing.T, msg any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// readNext reads one message, checks its type and decodes the payload into dst
// when dst is non-nil.
func readNext(conn *websocket.Conn, t *testing.T, expect string, dst any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, expect, msg.Type, "payload: %s", msg.Payload)
	if dst != nil {
		require.NoError(t, json.Unmarshal(msg.Payload, dst), "decode %s payload", expect)
	}
}
