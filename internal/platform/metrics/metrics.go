package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsSubmitted  prometheus.Counter
	RequestsVerified   *prometheus.CounterVec
	RequestsRejected   prometheus.Counter
	RevisionsRequested prometheus.Counter
	RequestsCompleted  prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_requests_submitted_total",
			Help: "Total number of letter requests submitted",
		}),
		RequestsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "suratdesa_requests_verified_total",
			Help: "Total number of tier verifications, labelled by tier",
		}, []string{"level"}),
		RequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_requests_rejected_total",
			Help: "Total number of letter requests rejected",
		}),
		RevisionsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_revisions_requested_total",
			Help: "Total number of revision requests sent back to requesters",
		}),
		RequestsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "suratdesa_requests_completed_total",
			Help: "Total number of letter requests approved and numbered",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "suratdesa_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
