// Package metrics defines the Prometheus metrics exported by ttvinfo
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ttvinfo"

// Refresh outcomes, used as values of the "outcome" label on RefreshesTotal
const (
	RefreshOutcomeSuccess   = "success"
	RefreshOutcomeExhausted = "exhausted"
	RefreshOutcomeError     = "error"
)

// Metrics holds the counters exported by ttvinfo. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	SignatureChecksTotal   *prometheus.CounterVec
	RefreshesTotal         *prometheus.CounterVec
	ProviderFailuresTotal  *prometheus.CounterVec
	WebhookEventsPublished prometheus.Counter
}

// New creates and registers all metrics on the given registry
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignatureChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "signature_checks_total",
			Help:      "Total number of webhook signature checks, by result.",
		}, []string{"result"}),
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "refreshes_total",
			Help:      "Total number of Twitch token refresh attempts, by outcome.",
		}, []string{"outcome"}),
		ProviderFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "request_failures_total",
			Help:      "Total number of failed Twitch API requests, by operation.",
		}, []string{"op"}),
		WebhookEventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_published_total",
			Help:      "Total number of verified webhook events published to AMQP.",
		}),
	}

	reg.MustRegister(m.SignatureChecksTotal, m.RefreshesTotal, m.ProviderFailuresTotal, m.WebhookEventsPublished)
	return m
}

// ObserveSignatureCheck records the result of a webhook signature check
func (m *Metrics) ObserveSignatureCheck(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "mismatch"
	}
	m.SignatureChecksTotal.WithLabelValues(result).Inc()
}

// ObserveRefresh records the outcome of a token refresh
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
}

// ObserveProviderFailure records a failed request to the Twitch API
func (m *Metrics) ObserveProviderFailure(op string) {
	if m == nil {
		return
	}
	m.ProviderFailuresTotal.WithLabelValues(op).Inc()
}

// ObserveWebhookEventPublished records an event forwarded to AMQP
func (m *Metrics) ObserveWebhookEventPublished() {
	if m == nil {
		return
	}
	m.WebhookEventsPublished.Inc()
}
