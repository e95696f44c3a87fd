package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "route"},
	)

	documentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docshelf_document_operations_total",
			Help: "Document operations by kind",
		},
		[]string{"operation"},
	)

	shareRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docshelf_share_redemptions_total",
			Help: "Share link redemptions by result",
		},
		[]string{"result"},
	)

	storedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docshelf_stored_bytes_total",
			Help: "Bytes written to the file store",
		},
	)

	cleanupRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docshelf_cleanup_removed_total",
			Help: "Items removed by maintenance sweeps",
		},
		[]string{"kind"},
	)
)

// PrometheusMiddleware records request count and latency per matched route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, route, status).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncrementDocumentOperation(operation string) {
	documentOperations.WithLabelValues(operation).Inc()
}

func IncrementShareRedemption(result string) {
	shareRedemptions.WithLabelValues(result).Inc()
}

func AddStoredBytes(n int64) {
	if n > 0 {
		storedBytes.Add(float64(n))
	}
}

func AddCleanupRemoved(kind string, n int) {
	if n > 0 {
		cleanupRemoved.WithLabelValues(kind).Add(float64(n))
	}
}
