// Package metrics exposes Prometheus instrumentation for the intake
// pipeline and the lead lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registry and collectors for one server process.
type Metrics struct {
	registry *prometheus.Registry

	WebhookEvents     *prometheus.CounterVec
	WebhookRejections *prometheus.CounterVec
	LeadTransitions   *prometheus.CounterVec
	AuthFailures      prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_webhook_events_total",
			Help: "Processed webhook events by channel and outcome.",
		}, []string{"channel", "outcome"}),
		WebhookRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_webhook_rejections_total",
			Help: "Rejected webhook events by channel and reason.",
		}, []string{"channel", "reason"}),
		LeadTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_lead_transitions_total",
			Help: "Accepted lead status transitions by target status.",
		}, []string{"to_status"}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crm_auth_failures_total",
			Help: "Failed login attempts.",
		}),
	}

	registry.MustRegister(
		m.WebhookEvents,
		m.WebhookRejections,
		m.LeadTransitions,
		m.AuthFailures,
	)
	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
