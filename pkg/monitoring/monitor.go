package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_search_total",
			Help: "Answer lookups by match tier and outcome",
		},
		[]string{"tier", "result"},
	)

	RecomputeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "answer_recompute_retries_total",
			Help: "Retries of best-answer recomputation after transient storage errors",
		},
	)

	AuditScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "question_audit_score",
			Help:    "Quality audit score distribution",
			Buckets: []float64{0, 30, 60, 75, 90, 100},
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SearchRequests)
	prometheus.MustRegister(RecomputeRetries)
	prometheus.MustRegister(AuditScores)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
