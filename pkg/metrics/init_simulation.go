package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.SimulationRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcascade_simulation_runs_total",
			Help: "Total number of Monte Carlo runs",
		},
		[]string{"scenario"},
	)

	r.SimulationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcascade_simulations_total",
			Help: "Total number of simulated (risk, scenario) pairs",
		},
		[]string{"scenario", "converged"},
	)

	r.SimulationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskcascade_simulation_duration_seconds",
			Help:    "Duration of simulating one (risk, scenario) pair",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 60.0},
		},
		[]string{"scenario"},
	)

	r.SimulationRuns = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskcascade_simulation_runs",
			Help:    "Number of runs until a (risk, scenario) pair stopped",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000},
		},
		[]string{"scenario"},
	)

	r.SimulationFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskcascade_simulation_failures_total",
			Help: "Total number of aborted simulations",
		},
		[]string{"scenario"},
	)

	r.BatchesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "riskcascade_batches_total",
			Help: "Total number of completed simulation batches",
		},
	)

	r.BatchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskcascade_batch_duration_seconds",
			Help:    "Simulation batch duration in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 3600},
		},
	)

	r.BatchRecords = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "riskcascade_batch_records",
			Help: "Number of statistics records produced by the last batch",
		},
	)
}
