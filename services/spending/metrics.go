package spending

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the spending checker.
type Metrics struct {
	// Check outcomes by verdict and reason
	CheckOutcome *prometheus.CounterVec

	// Overall check latency including storage lookups
	CheckLatency prometheus.Histogram
}

// NewMetrics creates a Metrics instance with all spending checker metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		CheckOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "roony_spending_check_outcomes_total",
			Help: "Total spending check outcomes by verdict and reason",
		}, []string{"verdict", "reason"}), // verdict: "allowed", "approval_required", "rejected"

		CheckLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "roony_spending_check_duration_seconds",
			Help:    "Duration of a full spending check including storage lookups",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records a check verdict.
func (m *Metrics) IncrementOutcome(verdict, reason string) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(verdict, reason).Inc()
	}
}

// ObserveCheckLatency records the total check duration.
func (m *Metrics) ObserveCheckLatency(d time.Duration) {
	if m != nil {
		m.CheckLatency.Observe(d.Seconds())
	}
}
