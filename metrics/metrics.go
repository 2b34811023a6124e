package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	UsersSignedUp *prometheus.CounterVec
	IssuesCreated *prometheus.CounterVec
	StatusUpdates *prometheus.CounterVec
	RateLimitHits prometheus.Counter
	EventFailures prometheus.Counter
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		UsersSignedUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civictrack_users_signed_up_total",
			Help: "Total number of accounts created, by role",
		}, []string{"role"}),
		IssuesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civictrack_issues_created_total",
			Help: "Total number of issues reported, by category",
		}, []string{"category"}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civictrack_issue_status_updates_total",
			Help: "Total number of issue status changes, by new status",
		}, []string{"status"}),
		RateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civictrack_issue_rate_limit_hits_total",
			Help: "Issue submissions rejected by the daily limit",
		}),
		EventFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "civictrack_event_publish_failures_total",
			Help: "Lifecycle events that could not be published",
		}),
	}
	reg.MustRegister(
		m.UsersSignedUp, m.IssuesCreated, m.StatusUpdates, m.RateLimitHits, m.EventFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) UserSignedUp(role string) {
	if m != nil {
		m.UsersSignedUp.WithLabelValues(role).Inc()
	}
}

func (m *Metrics) IssueCreated(category string) {
	if m != nil {
		m.IssuesCreated.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) StatusUpdated(status string) {
	if m != nil {
		m.StatusUpdates.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.RateLimitHits.Inc()
	}
}

func (m *Metrics) EventPublishFailed() {
	if m != nil {
		m.EventFailures.Inc()
	}
}
