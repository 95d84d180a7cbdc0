package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics tracks the outbox publisher.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	parked    *prometheus.CounterVec
}

// NewOutboxMetrics registers the publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events published, by event type.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed, by event type.",
	}, []string{"event_type"})
	parked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_parked_total",
		Help: "Outbox events that exhausted their attempts, by event type.",
	}, []string{"event_type"})
	reg.MustRegister(published, failed, parked)
	return &OutboxMetrics{published: published, failed: failed, parked: parked}
}

func (m *OutboxMetrics) Published(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) Failed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *OutboxMetrics) Parked(eventType string) {
	if m == nil || m.parked == nil {
		return
	}
	m.parked.WithLabelValues(normalizeLabel(eventType)).Inc()
}
