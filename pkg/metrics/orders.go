package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks the order lifecycle.
type OrderMetrics struct {
	created     prometheus.Counter
	cancelled   prometheus.Counter
	transitions *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created by checkout.",
	})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders moved to cancelled.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions, by source and target status.",
	}, []string{"from", "to"})
	reg.MustRegister(created, cancelled, transitions)
	return &OrderMetrics{created: created, cancelled: cancelled, transitions: transitions}
}

// OrderCreated counts a freshly created order.
func (m *OrderMetrics) OrderCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// Transition counts a status change; moving to cancelled also bumps the cancel counter.
func (m *OrderMetrics) Transition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
	if to == "cancelled" {
		m.cancelled.Inc()
	}
}
