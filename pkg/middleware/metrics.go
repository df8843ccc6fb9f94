package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	doorsKnocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "canvass_doors_knocked_total",
			Help: "Total number of door knock attempts recorded",
		},
	)

	statusAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "canvass_status_advances_total",
			Help: "Total number of door status advance requests",
		},
		[]string{"to"},
	)

	leadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "canvass_leads_created_total",
			Help: "Total number of leads recorded",
		},
	)
)

// Metrics wraps a handler with HTTP request counting and latency observation.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// RecordKnock counts a successful knock.
func RecordKnock() {
	doorsKnocked.Inc()
}

// RecordStatusAdvance counts a successful status advance request.
func RecordStatusAdvance(to string) {
	statusAdvances.WithLabelValues(to).Inc()
}

// RecordLeadCreated counts a successfully recorded lead.
func RecordLeadCreated() {
	leadsCreated.Inc()
}
