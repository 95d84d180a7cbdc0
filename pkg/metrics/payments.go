package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks payment creation.
type PaymentMetrics struct {
	created  *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_created_total",
		Help: "Payments recorded, by method.",
	}, []string{"method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Payment requests rejected, by reason.",
	}, []string{"reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_duration_seconds",
		Help:    "Payment request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(created, failed, duration)
	return &PaymentMetrics{created: created, failed: failed, duration: duration}
}

// Created records a payment that was returned to the caller.
func (m *PaymentMetrics) Created(method string, created bool, elapsed time.Duration) {
	if m == nil || m.created == nil {
		return
	}
	outcome := OutcomeReplayed
	if created {
		outcome = OutcomeCreated
		m.created.WithLabelValues(normalizeLabel(method)).Inc()
	}
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// Failed records a rejected payment request.
func (m *PaymentMetrics) Failed(reason string, elapsed time.Duration) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reason)).Inc()
	m.duration.WithLabelValues(OutcomeFailed).Observe(elapsed.Seconds())
}
