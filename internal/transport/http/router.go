package http

import (
	"net/http"
	"slices"
	"time"

	"game-quiz-service/internal/app"
	"game-quiz-service/internal/auth"
	"game-quiz-service/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	CORSOrigins []string
}

// API holds the REST handlers.
type API struct {
	data *app.DataService
	auth *auth.Service
}

func NewAPI(data *app.DataService, authService *auth.Service) *API {
	return &API{data: data, auth: authService}
}

// NewRouter wires the REST API, the WebSocket endpoints, health and metrics.
func NewRouter(data *app.DataService, authService *auth.Service, opts RouterOptions) *gin.Engine {
	api := NewAPI(data, authService)
	ws := NewWSHandler(data, authService)

	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware(), cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/quiz", gin.WrapF(ws.ServeQuiz))
	r.GET("/ws/leaderboard", gin.WrapF(ws.ServeLeaderboard))

	authed := api.requireUser()
	admin := api.requireAdmin()

	g := r.Group("/api")
	g.POST("/auth/register", api.register)
	g.POST("/auth/login", api.login)
	g.POST("/auth/logout", authed, api.logout)
	g.GET("/auth/me", authed, api.me)

	g.GET("/games", api.listGames)
	g.GET("/games/:id", api.getGame)

	g.GET("/quizzes", api.listQuizzes)
	g.GET("/quizzes/top", api.topQuizzes)
	g.GET("/quizzes/:id", api.getQuiz)
	g.POST("/quizzes", authed, api.createQuiz)
	g.PATCH("/quizzes/:id", authed, admin, api.updateQuiz)
	g.GET("/quizzes/:id/vote", authed, api.getVote)
	g.POST("/quizzes/:id/vote", authed, api.vote)

	g.GET("/users", authed, admin, api.listUsers)
	g.PATCH("/users/me", authed, api.updateMe)
	g.PUT("/users/me/avatar", authed, api.updateAvatar)
	g.GET("/users/:id", api.getUser)
	g.GET("/users/:id/results", api.userResults)

	g.POST("/results", authed, api.recordResult)
	g.GET("/leaderboard", api.leaderboard)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
