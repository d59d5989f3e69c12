package http

import (
	"fmt"
	"net/http"
	"strconv"

	"game-quiz-service/internal/auth"
	"game-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// quizView is a quiz with its derived rating.
type quizView struct {
	domain.Quiz
	Rating int `json:"rating"`
}

func (a *API) views(quizzes []domain.Quiz) []quizView {
	out := make([]quizView, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, quizView{Quiz: q, Rating: a.data.Rating(q)})
	}
	return out
}

func publicUsers(users []domain.User) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, c.Param("id")))
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return false
	}
	return true
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	session, err := a.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	session, err := a.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a *API) logout(c *gin.Context) {
	if err := a.auth.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) me(c *gin.Context) {
	user, _ := currentUser(c)
	if fresh, ok := a.data.UserByID(c.Request.Context(), user.ID); ok {
		user = fresh
	}
	c.JSON(http.StatusOK, user.Public())
}

func (a *API) listGames(c *gin.Context) {
	c.JSON(http.StatusOK, a.data.Games(c.Request.Context()))
}

func (a *API) getGame(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	game, found := a.data.GameByID(c.Request.Context(), id)
	if !found {
		writeError(c, domain.ErrGameNotFound)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (a *API) listQuizzes(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("gameId"); raw != "" {
		gameID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(c, fmt.Errorf("%w: invalid gameId %q", domain.ErrValidation, raw))
			return
		}
		c.JSON(http.StatusOK, a.views(a.data.QuizzesByGame(ctx, gameID)))
		return
	}
	c.JSON(http.StatusOK, a.views(a.data.ListQuizzes(ctx)))
}

func (a *API) topQuizzes(c *gin.Context) {
	quizzes := a.data.QuizzesByRating(c.Request.Context())
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(quizzes) {
		quizzes = quizzes[:limit]
	}
	c.JSON(http.StatusOK, a.views(quizzes))
}

func (a *API) getQuiz(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	quiz, found := a.data.QuizByID(c.Request.Context(), id)
	if !found {
		writeError(c, domain.ErrQuizNotFound)
		return
	}
	c.JSON(http.StatusOK, quizView{Quiz: quiz, Rating: a.data.Rating(quiz)})
}

func (a *API) createQuiz(c *gin.Context) {
	var quiz domain.Quiz
	if !bind(c, &quiz) {
		return
	}
	created, err := a.data.CreateQuiz(c.Request.Context(), quiz)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quizView{Quiz: created, Rating: a.data.Rating(created)})
}

func (a *API) updateQuiz(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var update domain.QuizUpdate
	if !bind(c, &update) {
		return
	}
	updated, err := a.data.UpdateQuiz(c.Request.Context(), id, update)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizView{Quiz: updated, Rating: a.data.Rating(updated)})
}

type voteRequest struct {
	Vote domain.VoteDirection `json:"vote"`
}

type voteResponse struct {
	Quiz quizView             `json:"quiz"`
	Vote domain.VoteDirection `json:"vote"`
}

func (a *API) getVote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, _ := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"vote": a.data.UserVote(c.Request.Context(), user.ID, id)})
}

func (a *API) vote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req voteRequest
	if !bind(c, &req) {
		return
	}
	user, _ := currentUser(c)
	quiz, state, err := a.data.Vote(c.Request.Context(), &user, id, req.Vote)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, voteResponse{Quiz: quizView{Quiz: quiz, Rating: a.data.Rating(quiz)}, Vote: state})
}

func (a *API) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, publicUsers(a.data.ListUsers(c.Request.Context())))
}

func (a *API) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, found := a.data.UserByID(c.Request.Context(), id)
	if !found {
		writeError(c, domain.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

type profileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (a *API) updateMe(c *gin.Context) {
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	update := domain.UserUpdate{Username: req.Username, Email: req.Email}
	if req.Password != nil {
		if *req.Password == "" {
			writeError(c, fmt.Errorf("%w: password is required", domain.ErrValidation))
			return
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		update.Password = &hashed
	}
	a.saveProfile(c, update)
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

func (a *API) updateAvatar(c *gin.Context) {
	var req avatarRequest
	if !bind(c, &req) {
		return
	}
	a.saveProfile(c, domain.UserUpdate{Avatar: &req.Avatar})
}

func (a *API) saveProfile(c *gin.Context, update domain.UserUpdate) {
	ctx := c.Request.Context()
	user, _ := currentUser(c)
	updated, err := a.data.UpdateUser(ctx, user.ID, update)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.auth.Remember(ctx, c.GetString(ctxToken), updated); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.Public())
}

func (a *API) userResults(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.data.UserResults(c.Request.Context(), id))
}

type resultRequest struct {
	QuizID         int64 `json:"quizId"`
	Score          int   `json:"score"`
	TotalQuestions int   `json:"totalQuestions"`
}

// recordResult stores a self-reported attempt for the signed-in user.
func (a *API) recordResult(c *gin.Context) {
	var req resultRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if req.Score > req.TotalQuestions {
		writeError(c, fmt.Errorf("%w: score exceeds total questions", domain.ErrValidation))
		return
	}
	if _, found := a.data.QuizByID(ctx, req.QuizID); !found {
		writeError(c, domain.ErrQuizNotFound)
		return
	}
	user, _ := currentUser(c)
	recorded, err := a.data.RecordQuizResult(ctx, domain.QuizResult{
		UserID:         user.ID,
		QuizID:         req.QuizID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recorded)
}

func (a *API) leaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, a.data.Leaderboard(c.Request.Context()))
}
