package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tax compliance gate.
type Metrics struct {
	Clearances prometheus.Counter
	Exemptions prometheus.Counter
	Payments   prometheus.Counter
}

// New creates a Metrics instance with all tax module metrics registered.
func New() *Metrics {
	return &Metrics{
		Clearances: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_tax_clearances_total",
			Help: "Total number of tax clearance certificates recorded",
		}),
		Exemptions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_tax_exemptions_total",
			Help: "Total number of small-estate exemptions granted",
		}),
		Payments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_tax_payments_total",
			Help: "Total number of tax payments recorded",
		}),
	}
}

// IncrementClearances records a clearance.
func (m *Metrics) IncrementClearances() { m.Clearances.Inc() }

// IncrementExemptions records an exemption.
func (m *Metrics) IncrementExemptions() { m.Exemptions.Inc() }

// IncrementPayments records a payment.
func (m *Metrics) IncrementPayments() { m.Payments.Inc() }
