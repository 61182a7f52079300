package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// generation pipeline.
type Metrics struct {
	FacilitiesGenerated prometheus.Counter
	WeeklyRecords       prometheus.Counter
	CycleRecords        prometheus.Counter
	GeneratorRunning    prometheus.Gauge

	// Inventory clamp corrections by kind={deficit,excess}.
	ClampCorrections *prometheus.CounterVec

	// Mass-balance residual fraction across active weeks.
	MassBalanceResidual prometheus.Histogram

	// Per-facility simulation duration.
	FacilitySimDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FacilitiesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uhs_mrv",
			Name:      "facilities_generated_total",
			Help:      "Total facilities simulated.",
		}),
		WeeklyRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uhs_mrv",
			Name:      "weekly_records_total",
			Help:      "Total weekly time-series records produced.",
		}),
		CycleRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uhs_mrv",
			Name:      "cycle_records_total",
			Help:      "Total cycle summary records produced.",
		}),
		GeneratorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "uhs_mrv",
			Name:      "generator_running",
			Help:      "1 while a generation run is active, 0 otherwise.",
		}),
		ClampCorrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uhs_mrv",
			Name:      "clamp_corrections_total",
			Help:      "Inventory clamp corrections by kind (deficit reduces withdrawal, excess reduces injection).",
		}, []string{"kind"}),
		MassBalanceResidual: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "uhs_mrv",
			Name:      "mass_balance_residual_fraction",
			Help:      "Relative mass-balance residual of active weeks.",
			Buckets:   []float64{1e-12, 1e-9, 1e-6, 1e-4, 1e-3, 0.01, 0.05, 0.1},
		}),
		FacilitySimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "uhs_mrv",
			Name:      "facility_sim_duration_seconds",
			Help:      "Duration of a single facility's weekly simulation loop.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}

	prometheus.MustRegister(
		m.FacilitiesGenerated,
		m.WeeklyRecords,
		m.CycleRecords,
		m.GeneratorRunning,
		m.ClampCorrections,
		m.MassBalanceResidual,
		m.FacilitySimDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FacilitiesGenerated: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "uhs_mrv", Name: "facilities_generated_total"}),
		WeeklyRecords:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "uhs_mrv", Name: "weekly_records_total"}),
		CycleRecords:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "uhs_mrv", Name: "cycle_records_total"}),
		GeneratorRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "uhs_mrv", Name: "generator_running"}),
		ClampCorrections:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "uhs_mrv", Name: "clamp_corrections_total"}, []string{"kind"}),
		MassBalanceResidual: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "uhs_mrv", Name: "mass_balance_residual_fraction"}),
		FacilitySimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "uhs_mrv", Name: "facility_sim_duration_seconds"}),
	}
}
