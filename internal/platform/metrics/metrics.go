package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PetitionsCreated     prometheus.Counter
	PetitionTransitions  *prometheus.CounterVec
	AppealsOpened        prometheus.Counter
	AppealTransitions    *prometheus.CounterVec
	AppealMessages       *prometheus.CounterVec
	RateLimitDenials     *prometheus.CounterVec
	AuditEntriesRecorded prometheus.Counter
	AuditEntriesDropped  prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a caller-supplied registry. Tests use
// this to avoid duplicate registration on the global registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PetitionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "arida_petitions_created_total",
			Help: "Total number of petitions submitted for moderation",
		}),
		PetitionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arida_petition_transitions_total",
			Help: "Petition lifecycle transitions by action",
		}, []string{"action"}),
		AppealsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "arida_appeals_opened_total",
			Help: "Total number of appeals opened by petition creators",
		}),
		AppealTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arida_appeal_transitions_total",
			Help: "Appeal status transitions by action",
		}, []string{"action"}),
		AppealMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arida_appeal_messages_total",
			Help: "Appeal messages appended, by sender role and visibility",
		}, []string{"role", "visibility"}),
		RateLimitDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arida_ratelimit_denials_total",
			Help: "Rate limited requests by action",
		}, []string{"action"}),
		AuditEntriesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "arida_audit_entries_recorded_total",
			Help: "Audit log entries persisted",
		}),
		AuditEntriesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "arida_audit_entries_dropped_total",
			Help: "Audit log entries dropped because the async buffer was full",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arida_http_request_duration_seconds",
			Help:    "HTTP request latency by path and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(path, status string, d time.Duration) {
	m.RequestDuration.WithLabelValues(path, status).Observe(d.Seconds())
}
