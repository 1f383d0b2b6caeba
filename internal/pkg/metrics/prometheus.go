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
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nicudash",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nicudash",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nicudash",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Alarm lifecycle metrics
	alarmActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nicudash",
			Subsystem: "alarm",
			Name:      "actions_total",
			Help:      "Total number of alarm batch actions committed",
		},
		[]string{"action"},
	)

	alarmProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nicudash",
			Subsystem: "alarm",
			Name:      "processed_total",
			Help:      "Total number of alarms transitioned by batch actions",
		},
		[]string{"action"},
	)

	alarmMissingIDsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nicudash",
			Subsystem: "alarm",
			Name:      "missing_ids_total",
			Help:      "Requested alarm ids that did not resolve to an updatable alarm",
		},
		[]string{"action"},
	)

	alarmBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nicudash",
			Subsystem: "alarm",
			Name:      "batch_duration_seconds",
			Help:      "Duration of alarm batch transactions in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"action"},
	)

	alarmFeedQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nicudash",
			Subsystem: "alarm",
			Name:      "feed_query_duration_seconds",
			Help:      "Duration of alarm feed queries in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	alarmSilencesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nicudash",
			Subsystem: "alarm",
			Name:      "silences_expired_total",
			Help:      "Total number of silenced alarms returned to active",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAlarmBatch records one committed batch action
func RecordAlarmBatch(action string, processed, missing int, duration time.Duration) {
	alarmActionsTotal.WithLabelValues(action).Inc()
	alarmProcessedTotal.WithLabelValues(action).Add(float64(processed))
	if missing > 0 {
		alarmMissingIDsTotal.WithLabelValues(action).Add(float64(missing))
	}
	alarmBatchDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordFeedQuery records the duration of a feed query
func RecordFeedQuery(duration time.Duration) {
	alarmFeedQueryDuration.Observe(duration.Seconds())
}

// RecordSilencesExpired records alarms returned to active by the sweep
func RecordSilencesExpired(n int) {
	alarmSilencesExpiredTotal.Add(float64(n))
}
