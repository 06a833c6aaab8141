package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Scraping backend metrics
	UpstreamLatency  *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec

	// Business metrics
	DownloadsTotal     *prometheus.CounterVec
	KeyValidations     *prometheus.CounterVec
	KeysCreated        prometheus.Counter
	MediaProxyRequests *prometheus.CounterVec
	MediaBytesStreamed prometheus.Counter

	// Bookkeeping failures (request log, usage counters, download log)
	LogFailures *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

var (
	metrics  *Metrics
	initOnce sync.Once
)

// Init initializes all Prometheus metrics
func Init() *Metrics {
	initOnce.Do(func() {
		metrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				},
				[]string{"method", "path"},
			),
			HTTPRequestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "http_requests_in_flight",
					Help: "Number of HTTP requests currently being processed",
				},
			),

			UpstreamLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "upstream_latency_seconds",
					Help:    "Scraping backend response latency in seconds",
					Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
				},
				[]string{"upstream"},
			),
			UpstreamRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upstream_requests_total",
					Help: "Total number of requests to the scraping backend",
				},
				[]string{"upstream", "status"},
			),
			UpstreamErrors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "upstream_errors_total",
					Help: "Total number of scraping backend failures by kind",
				},
				[]string{"upstream", "error_type"},
			),

			DownloadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "downloads_total",
					Help: "Total number of resolved downloads by media type",
				},
				[]string{"type"},
			),
			KeyValidations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "api_key_validations_total",
					Help: "API key validations by result",
				},
				[]string{"result"},
			),
			KeysCreated: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "api_keys_created_total",
					Help: "Total number of API keys created",
				},
			),
			MediaProxyRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "media_proxy_requests_total",
					Help: "Media proxy requests by outcome",
				},
				[]string{"outcome"},
			),
			MediaBytesStreamed: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "media_proxy_bytes_total",
					Help: "Bytes streamed by the media proxy",
				},
			),

			LogFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "log_write_failures_total",
					Help: "Failed request log, usage and download log writes",
				},
				[]string{"kind"},
			),

			CircuitBreakerState: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "circuit_breaker_state",
					Help: "Circuit breaker state (0=closed, 1=open, 0.5=half-open)",
				},
				[]string{"upstream"},
			),
		}
	})
	return metrics
}

// Get returns the global metrics instance
func Get() *Metrics {
	return Init()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinHandler returns a Gin-compatible handler for Prometheus metrics
func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware is a Gin middleware for collecting HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordUpstreamLatency records scraping backend latency
func RecordUpstreamLatency(upstream string, duration time.Duration) {
	Get().UpstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordUpstreamRequest records a scraping backend request
func RecordUpstreamRequest(upstream, status string) {
	Get().UpstreamRequests.WithLabelValues(upstream, status).Inc()
}

// RecordUpstreamError records a scraping backend failure
func RecordUpstreamError(upstream, errorType string) {
	Get().UpstreamErrors.WithLabelValues(upstream, errorType).Inc()
}

// RecordDownload records a resolved download
func RecordDownload(mediaType string) {
	Get().DownloadsTotal.WithLabelValues(mediaType).Inc()
}

// RecordKeyValidation records an API key validation result
func RecordKeyValidation(result string) {
	Get().KeyValidations.WithLabelValues(result).Inc()
}

// RecordKeyCreated records a new API key
func RecordKeyCreated() {
	Get().KeysCreated.Inc()
}

// RecordMediaProxy records a media proxy request outcome
func RecordMediaProxy(outcome string) {
	Get().MediaProxyRequests.WithLabelValues(outcome).Inc()
}

// AddMediaBytes adds streamed media bytes
func AddMediaBytes(n int64) {
	if n > 0 {
		Get().MediaBytesStreamed.Add(float64(n))
	}
}

// RecordLogFailure records a failed bookkeeping write
func RecordLogFailure(kind string) {
	Get().LogFailures.WithLabelValues(kind).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state
// state: 0=closed, 1=open, 0.5=half-open
func SetCircuitBreakerState(upstream string, state float64) {
	Get().CircuitBreakerState.WithLabelValues(upstream).Set(state)
}
