package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ltv_analytics",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ltv_analytics",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ltv_analytics",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "path"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ltv_analytics",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	computeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ltv_analytics",
			Subsystem: "compute",
			Name:      "duration_seconds",
			Help:      "Time spent fetching and aggregating a query on cache miss.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"endpoint"},
	)

	ordersFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ltv_analytics",
			Subsystem: "repository",
			Name:      "orders_fetched_total",
			Help:      "Order records read from the order repository.",
		},
		[]string{"endpoint"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		cacheLookups,
		computeDuration,
		ordersFetched,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request in flight and returns the function that
// records its completion.
func RequestStarted(method, path string) func(status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordCacheLookup counts a cache hit or miss for endpoint.
func RecordCacheLookup(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(endpoint, result).Inc()
}

// RecordCompute observes the time spent computing endpoint.
func RecordCompute(endpoint string, d time.Duration) {
	computeDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordOrdersFetched counts order records read for endpoint.
func RecordOrdersFetched(endpoint string, n int) {
	ordersFetched.WithLabelValues(endpoint).Add(float64(n))
}
