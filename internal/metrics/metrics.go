// Package metrics provides Prometheus metrics for the Cassandra backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cassandra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cassandra_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Result cache metrics
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cassandra_cache_lookups_total",
			Help: "Result cache lookups by kind and outcome",
		},
		[]string{"kind", "result"},
	)

	// Remote session metrics
	sessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cassandra_remote_session_events_total",
			Help: "Session pool events (reused, dialed, probe_failed, dial_failed)",
		},
		[]string{"event"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cassandra_remote_sessions_active",
			Help: "Number of pooled remote sessions",
		},
	)

	// Search metrics
	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cassandra_search_duration_seconds",
			Help:    "Time spent listing station files",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"strategy", "kind"},
	)

	listingCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cassandra_listing_commands_total",
			Help: "Remote listing commands by outcome",
		},
		[]string{"strategy", "status"},
	)

	unparsedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cassandra_unparsed_files_total",
			Help: "Listed files that matched no filename grammar",
		},
		[]string{"kind"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(kind string, hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	cacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordSessionEvent records a session pool event.
func RecordSessionEvent(event string) {
	sessionEventsTotal.WithLabelValues(event).Inc()
}

// SetSessionsActive sets the number of pooled sessions.
func SetSessionsActive(count int) {
	sessionsActive.Set(float64(count))
}

// RecordSearch records the duration of one search cycle.
func RecordSearch(strategy, kind string, duration time.Duration) {
	searchDuration.WithLabelValues(strategy, kind).Observe(duration.Seconds())
}

// RecordListingCommand records the outcome of one remote listing command.
func RecordListingCommand(strategy string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	listingCommandsTotal.WithLabelValues(strategy, status).Inc()
}

// RecordUnparsedFile records a listed file dropped by the normalizer.
func RecordUnparsedFile(kind string) {
	unparsedFilesTotal.WithLabelValues(kind).Inc()
}
