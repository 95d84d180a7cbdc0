package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as label values.
const (
	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
	OutcomeFailed   = "failed"
)

// CheckoutMetrics brackets every checkout attempt.
type CheckoutMetrics struct {
	started   prometheus.Counter
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	started := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_started_total",
		Help: "Checkout attempts that reached the service.",
	})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_completed_total",
		Help: "Checkouts that returned an order, split by created or replayed.",
	}, []string{"outcome"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Checkouts that failed, by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Checkout latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(started, completed, failed, duration)
	return &CheckoutMetrics{
		started:   started,
		completed: completed,
		failed:    failed,
		duration:  duration,
	}
}

// Started counts a new attempt.
func (m *CheckoutMetrics) Started() {
	if m == nil || m.started == nil {
		return
	}
	m.started.Inc()
}

// Completed records a successful checkout and its latency.
func (m *CheckoutMetrics) Completed(created bool, elapsed time.Duration) {
	if m == nil || m.completed == nil {
		return
	}
	outcome := OutcomeReplayed
	if created {
		outcome = OutcomeCreated
	}
	m.completed.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Failed records a failed checkout and its latency.
func (m *CheckoutMetrics) Failed(reason string, elapsed time.Duration) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reason)).Inc()
	m.duration.WithLabelValues(OutcomeFailed).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
