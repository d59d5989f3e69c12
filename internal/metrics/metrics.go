package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendFallbacks counts permanent switches from the remote to the local backend.
	BackendFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quiz_backend_fallbacks_total",
		Help: "Number of times the remote backend could not be acquired and the local backend was used instead.",
	})

	// VotesCast counts accepted votes by resulting state.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_votes_total",
		Help: "Votes applied to quizzes, labelled by the resulting vote state.",
	}, []string{"state"})

	// ResultsRecorded counts quiz result writes by outcome.
	ResultsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_results_recorded_total",
		Help: "Quiz result writes, labelled by outcome.",
	}, []string{"outcome"})

	// ReadFailures counts best-effort reads that were answered with a safe default.
	ReadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_read_failures_total",
		Help: "Backend reads that failed and were converted to an empty result.",
	}, []string{"op"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quiz_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware records request latency for every matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
