package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimscore_runs_total",
			Help: "Scoring runs by outcome",
		},
		[]string{"status"},
	)

	claimsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claimscore_claims_scored_total",
			Help: "Claims scored across all runs",
		},
	)

	windowFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "claimscore_window_fallbacks_total",
			Help: "Patients whose rolling frequency fell back to a plain claim count",
		},
	)

	fraudScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claimscore_fraud_score",
			Help:    "Distribution of assigned fraud scores",
			Buckets: []float64{10, 25, 50, 75, 90, 100},
		},
	)

	phaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claimscore_phase_duration_seconds",
			Help:    "Pipeline phase duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"phase"},
	)

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routePattern keeps label cardinality bounded: unmatched paths collapse.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// --- Pipeline metric helpers ---

// RecordRun records the outcome of one scoring run.
func RecordRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// RecordScores records the scored batch.
func RecordScores(scores []int, fallbacks int) {
	claimsScored.Add(float64(len(scores)))
	windowFallbacks.Add(float64(fallbacks))
	for _, s := range scores {
		fraudScores.Observe(float64(s))
	}
}

// RecordPhase records the duration of a pipeline phase.
func RecordPhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}
