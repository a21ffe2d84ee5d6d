package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
)

var _ interfaces.MetricsRecorder = &Registry{}

// RecordHTTPRequest records an HTTP request metric
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (r *Registry) RecordRun(scenario string) {
	r.SimulationRunsTotal.WithLabelValues(scenario).Inc()
}

func (r *Registry) RecordSimulation(key model.EventKey, convergence model.Convergence, duration time.Duration) {
	scenario := key.Scenario.String()
	r.SimulationsTotal.WithLabelValues(scenario, strconv.FormatBool(convergence.Converged)).Inc()
	r.SimulationDuration.WithLabelValues(scenario).Observe(duration.Seconds())
	r.SimulationRuns.WithLabelValues(scenario).Observe(float64(convergence.Runs))
}

func (r *Registry) RecordFailure(key model.EventKey) {
	r.SimulationFailuresTotal.WithLabelValues(key.Scenario.String()).Inc()
}

func (r *Registry) RecordBatch(records int, duration time.Duration) {
	r.BatchesTotal.Inc()
	r.BatchDuration.Observe(duration.Seconds())
	r.BatchRecords.Set(float64(records))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
