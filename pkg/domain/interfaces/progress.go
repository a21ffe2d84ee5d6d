package interfaces

import (
	"time"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
)

// NoRunIndex is passed to ProgressFunc when a message is not tied to a run
const NoRunIndex = -1

// ProgressFunc receives one-way progress notifications from the simulation
// loop. It is called synchronously and must not mutate simulator state.
type ProgressFunc func(message string, runIndex int)

// MetricsRecorder receives simulation measurements
type MetricsRecorder interface {
	// RecordRun is called after each completed Monte Carlo run
	RecordRun(scenario string)
	// RecordSimulation is called when a (risk, scenario) simulation stops
	RecordSimulation(key model.EventKey, convergence model.Convergence, duration time.Duration)
	// RecordFailure is called when a simulation aborts
	RecordFailure(key model.EventKey)
	// RecordBatch is called when a batch completes
	RecordBatch(records int, duration time.Duration)
}
