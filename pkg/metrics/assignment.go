package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AssignmentMetrics records outcomes of assignment attempts.
type AssignmentMetrics struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewAssignmentMetrics registers the assignment metrics on the provided registerer.
func NewAssignmentMetrics(reg prometheus.Registerer) *AssignmentMetrics {
	if reg == nil {
		return &AssignmentMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_attempts_total",
		Help: "Assignment attempts by mode and result.",
	}, []string{"mode", "result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_latency_seconds",
		Help:    "Latency of the assignment transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	reg.MustRegister(attempts, latency)
	return &AssignmentMetrics{
		attempts: attempts,
		latency:  latency,
	}
}

// IncAttempt counts one assignment attempt with the given outcome.
func (a *AssignmentMetrics) IncAttempt(mode, result string) {
	if a == nil || a.attempts == nil {
		return
	}
	a.attempts.WithLabelValues(normalizeLabel(mode), normalizeLabel(result)).Inc()
}

// ObserveLatency records how long the assignment transaction took.
func (a *AssignmentMetrics) ObserveLatency(mode string, duration time.Duration) {
	if a == nil || a.latency == nil {
		return
	}
	a.latency.WithLabelValues(normalizeLabel(mode)).Observe(duration.Seconds())
}
