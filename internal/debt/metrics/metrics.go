package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the debt classifier.
type Metrics struct {
	Payments          prometheus.Counter
	Reclassifications prometheus.Counter
	StatuteBarred     prometheus.Counter
}

// New creates a Metrics instance with all debt module metrics registered.
func New() *Metrics {
	return &Metrics{
		Payments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_debt_payments_total",
			Help: "Total number of payments recorded against estate debts",
		}),
		Reclassifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_debt_reclassifications_total",
			Help: "Total number of statutory tier reclassifications",
		}),
		StatuteBarred: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_debt_statute_barred_total",
			Help: "Total number of debts barred by limitation",
		}),
	}
}

// IncrementPayments records an applied payment.
func (m *Metrics) IncrementPayments() { m.Payments.Inc() }

// IncrementReclassifications records a tier change.
func (m *Metrics) IncrementReclassifications() { m.Reclassifications.Inc() }

// IncrementStatuteBarred records a limitation bar.
func (m *Metrics) IncrementStatuteBarred() { m.StatuteBarred.Inc() }
