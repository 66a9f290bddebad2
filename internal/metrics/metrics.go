// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the analysis pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitguard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitguard_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	analysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitguard_analysis_runs_total",
			Help: "Total number of kernel analysis runs.",
		},
		[]string{"kernel"},
	)

	analysisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitguard_analysis_duration_seconds",
			Help:    "Kernel analysis run duration in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kernel"},
	)

	conjunctionsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitguard_conjunctions_found_total",
			Help: "Total conjunctions detected, by risk level.",
		},
		[]string{"risk_level"},
	)

	tleDatasetCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitguard_tle_dataset_satellites",
			Help: "Number of satellites in the current TLE dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitguard_tle_dataset_age_seconds",
			Help: "Age of the current TLE dataset in seconds.",
		},
	)

	snapshotWorkersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitguard_snapshot_workers",
			Help: "Configured snapshot builder worker count.",
		},
	)

	streamClientsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitguard_stream_clients_active",
			Help: "Currently connected alert stream clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		analysisRunsTotal,
		analysisDurationSeconds,
		conjunctionsFound,
		tleDatasetCount,
		tleDatasetAgeSeconds,
		snapshotWorkersActive,
		streamClientsActive,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysis records one kernel run.
func ObserveAnalysis(kernel string, d time.Duration) {
	analysisRunsTotal.WithLabelValues(kernel).Inc()
	analysisDurationSeconds.WithLabelValues(kernel).Observe(d.Seconds())
}

// AddConjunctions bumps the per-level conjunction counter.
func AddConjunctions(riskLevel string, n int) {
	conjunctionsFound.WithLabelValues(riskLevel).Add(float64(n))
}

// SetTLEDatasetCount records the satellite count of the current dataset.
func SetTLEDatasetCount(n int) {
	tleDatasetCount.Set(float64(n))
}

// SetTLEDatasetAge records the current dataset age in seconds.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAgeSeconds.Set(seconds)
}

// SetSnapshotWorkers records the configured worker count.
func SetSnapshotWorkers(n int) {
	snapshotWorkersActive.Set(float64(n))
}

// StreamClientConnected adjusts the active stream client gauge.
func StreamClientConnected(delta int) {
	streamClientsActive.Add(float64(delta))
}

// knownRoutes are the exact paths exported as metric labels.
var knownRoutes = map[string]bool{
	"/":                             true,
	"/healthz":                      true,
	"/readyz":                       true,
	"/metrics":                      true,
	"/api/v1/analysis/conjunctions": true,
	"/api/v1/analysis/closest":      true,
	"/api/v1/analysis/cache/stats":  true,
	"/api/v1/satellites/search":     true,
	"/api/v1/catalog/stats":         true,
	"/api/v1/conjunctions/recent":   true,
	"/api/v1/tle/fetch":             true,
	"/api/v1/tle/metadata":          true,
	"/api/v1/stream/alerts":         true,
}

// normalizeRoute collapses unknown paths into a single "other" label so
// scanner traffic cannot explode metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/satellites/") {
		return "/api/v1/satellites/{norad_id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE responses can stream.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
