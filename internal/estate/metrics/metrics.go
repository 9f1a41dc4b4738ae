package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the estate orchestrator.
type Metrics struct {
	Freezes         prometheus.Counter
	Unfreezes       prometheus.Counter
	ConflictReports prometheus.Counter
	ReportCacheHits prometheus.Counter
	RiskScore       prometheus.Histogram
}

// New creates a Metrics instance with all estate module metrics registered.
func New() *Metrics {
	return &Metrics{
		Freezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_estate_freezes_total",
			Help: "Total number of estates frozen by a recorded death",
		}),
		Unfreezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_estate_unfreezes_total",
			Help: "Total number of reasoned unfreeze corrections",
		}),
		ConflictReports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_estate_conflict_reports_total",
			Help: "Total number of conflict detector runs",
		}),
		ReportCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "urithi_estate_conflict_report_cache_hits_total",
			Help: "Total number of conflict reports served from cache",
		}),
		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "urithi_estate_conflict_risk_score",
			Help:    "Distribution of aggregate risk scores across detector runs",
			Buckets: []float64{0, 5, 10, 25, 50, 75, 100},
		}),
	}
}
