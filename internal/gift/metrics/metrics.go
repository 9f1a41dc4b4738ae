package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the hotchpot engine.
type Metrics struct {
	Calculations prometheus.Counter
	Transitions  *prometheus.CounterVec
}

// New creates a Metrics instance with all hotchpot metrics registered.
func New() *Metrics {
	return &Metrics{
		Calculations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_hotchpot_calculations_total",
			Help: "Total number of hotchpot inflation calculations",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "urithi_gift_hotchpot_transitions_total",
			Help: "Gift hotchpot status transitions by target status",
		}, []string{"to"}),
	}
}

// IncrementCalculations records a completed inflation calculation.
func (m *Metrics) IncrementCalculations() {
	m.Calculations.Inc()
}

// IncrementTransition records a hotchpot status transition.
func (m *Metrics) IncrementTransition(to string) {
	m.Transitions.WithLabelValues(to).Inc()
}
