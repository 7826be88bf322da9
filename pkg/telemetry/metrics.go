// Package telemetry exposes prometheus instrumentation for the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SubmissionsTotal counts successfully persisted submissions.
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simplist_submissions_total",
		Help: "Number of successfully persisted form submissions.",
	})

	// SubmissionErrors counts failed submissions by error kind.
	SubmissionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simplist_submission_errors_total",
		Help: "Number of failed form submissions by error kind.",
	}, []string{"kind"})

	// NotificationsTotal counts dispatched notifications.
	NotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simplist_notifications_total",
		Help: "Number of dispatched submission notifications.",
	})

	// NotificationFailures counts notifier failures.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simplist_notification_failures_total",
		Help: "Number of failed notification dispatches.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simplist_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Handler returns the prometheus scrape handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHTTP records request latency and status for every request.
func InstrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
