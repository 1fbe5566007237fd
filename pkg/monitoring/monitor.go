package monitoring

import (
	"strconv"
	"sync"
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

	// AnswerCounter counts answer upserts by ingress channel and outcome reason.
	AnswerCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_answers_total",
			Help: "Answer upserts by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	RecomputeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_score_recomputes_total",
			Help: "Session score recomputations triggered by answer key edits",
		},
		[]string{"outcome"},
	)

	ResultFoldFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_result_fold_failures_total",
			Help: "Submitted session scores that could not be written to the course result",
		},
	)

	RealtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exam_realtime_connections",
			Help: "Open realtime exam connections on this instance",
		},
	)

	RealtimeMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_realtime_messages_total",
			Help: "Realtime frames by type and direction",
		},
		[]string{"type", "direction"},
	)

	ExamsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exams_by_state",
			Help: "Exams tracked by the availability monitor, by state",
		},
		[]string{"state"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			AnswerCounter,
			RecomputeCounter,
			ResultFoldFailures,
			RealtimeConnections,
			RealtimeMessages,
			ExamsByState,
		)
	})
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
