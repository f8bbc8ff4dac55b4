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

	SyncPushCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pushes_total",
			Help: "Remote progress pushes by result",
		},
		[]string{"result"},
	)

	SyncRetryCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_retries_total",
			Help: "Retried push attempts",
		},
	)

	SyncDegradedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_degraded_total",
			Help: "Drain cycles that exhausted the retry budget",
		},
	)

	PendingQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_pending_mutations",
			Help: "Mutations currently waiting for a drain",
		},
	)

	CoinCreditCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_coins_credited_total",
			Help: "Coins credited by source",
		},
		[]string{"source"},
	)

	CoinSpendCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_coins_spent_total",
			Help: "Coins spent",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SyncPushCounter)
	prometheus.MustRegister(SyncRetryCounter)
	prometheus.MustRegister(SyncDegradedCounter)
	prometheus.MustRegister(PendingQueueDepth)
	prometheus.MustRegister(CoinCreditCounter)
	prometheus.MustRegister(CoinSpendCounter)
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
