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

	// 业务指标
	QuestionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spirit_questions_total",
			Help: "Total number of questions answered by the assistant",
		},
	)

	GeneratorErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spirit_generator_errors_total",
			Help: "Generator call failures by kind",
		},
		[]string{"kind"},
	)

	PointsCreditedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spirit_points_credited_total",
			Help: "Point deltas credited, by action kind",
		},
		[]string{"action"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(GeneratorErrorsTotal)
	prometheus.MustRegister(PointsCreditedTotal)
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
