package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records per-acquirer webhook processing outcomes.
type WebhookMetrics struct {
	duration  *prometheus.HistogramVec
	received  *prometheus.CounterVec
	settled   *prometheus.CounterVec
	unmatched *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook deliveries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"acquirer"})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_received_total",
		Help: "Webhook deliveries received.",
	}, []string{"acquirer"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_settled_total",
		Help: "Webhook deliveries that performed settlement.",
	}, []string{"acquirer"})
	unmatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_unmatched_total",
		Help: "Webhook deliveries with no matching transaction or invoice.",
	}, []string{"acquirer"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_failed_total",
		Help: "Webhook deliveries that errored.",
	}, []string{"acquirer"})
	reg.MustRegister(duration, received, settled, unmatched, failed)
	return &WebhookMetrics{
		duration:  duration,
		received:  received,
		settled:   settled,
		unmatched: unmatched,
		failed:    failed,
	}
}

// ObserveDuration records the processing duration for the named acquirer.
func (m *WebhookMetrics) ObserveDuration(acquirer string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(acquirer)).Observe(duration.Seconds())
}

// IncReceived increments the received counter.
func (m *WebhookMetrics) IncReceived(acquirer string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(acquirer)).Inc()
}

// IncSettled increments the settled counter.
func (m *WebhookMetrics) IncSettled(acquirer string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(acquirer)).Inc()
}

// IncUnmatched increments the unmatched counter.
func (m *WebhookMetrics) IncUnmatched(acquirer string) {
	if m == nil || m.unmatched == nil {
		return
	}
	m.unmatched.WithLabelValues(normalizeLabel(acquirer)).Inc()
}

// IncFailed increments the failure counter.
func (m *WebhookMetrics) IncFailed(acquirer string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(acquirer)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
