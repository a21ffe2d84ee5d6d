package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// SimulationOptions controls one simulation batch
type SimulationOptions struct {
	MinRuns int     `json:"min_runs"`
	MaxRuns int     `json:"max_runs"`
	RelStd  float64 `json:"rel_std"`

	// NoiseStdDev is the standard deviation of the elicitation noise added
	// on the 7-point impact scale; zero disables sampling
	NoiseStdDev float64 `json:"noise_std_dev"`
	MaxDepth    int     `json:"max_depth"`
	Seed        uint64  `json:"seed"`
	Workers     int     `json:"workers"`

	YearlySamples     int     `json:"yearly_samples"`
	HistogramBinWidth float64 `json:"histogram_bin_width"`
	TreeDepth         int     `json:"tree_depth"`

	RiskIDs       []types.RiskID   `json:"risk_ids,omitempty"`
	Scenarios     []types.Scenario `json:"scenarios,omitempty"`
	TerminalRisks []types.RiskID   `json:"terminal_risks,omitempty"`
}

// DefaultSimulationOptions returns the options used when none are configured
func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{
		MinRuns:           100,
		MaxRuns:           5000,
		RelStd:            0.01,
		NoiseStdDev:       0.255,
		MaxDepth:          50,
		Seed:              1,
		Workers:           1,
		YearlySamples:     10000,
		HistogramBinWidth: 0.5,
		TreeDepth:         2,
	}
}

// Validate checks option consistency
func (o *SimulationOptions) Validate() error {
	if o.MinRuns < 0 {
		return goerr.New("min runs must not be negative", goerr.V("min_runs", o.MinRuns))
	}
	if o.MaxRuns < 1 {
		return goerr.New("max runs must be positive", goerr.V("max_runs", o.MaxRuns))
	}
	if o.MinRuns > o.MaxRuns {
		return goerr.New("min runs exceeds max runs", goerr.V("min_runs", o.MinRuns), goerr.V("max_runs", o.MaxRuns))
	}
	if o.RelStd < 0 {
		return goerr.New("rel std must not be negative", goerr.V("rel_std", o.RelStd))
	}
	if o.NoiseStdDev < 0 {
		return goerr.New("noise std dev must not be negative", goerr.V("noise_std_dev", o.NoiseStdDev))
	}
	if o.MaxDepth < 1 {
		return goerr.New("max depth must be positive", goerr.V("max_depth", o.MaxDepth))
	}
	if o.Workers < 1 {
		return goerr.New("workers must be positive", goerr.V("workers", o.Workers))
	}
	if o.YearlySamples < 0 {
		return goerr.New("yearly samples must not be negative", goerr.V("yearly_samples", o.YearlySamples))
	}
	if o.HistogramBinWidth <= 0 {
		return goerr.New("histogram bin width must be positive", goerr.V("histogram_bin_width", o.HistogramBinWidth))
	}
	for _, s := range o.Scenarios {
		if !s.IsValid() {
			return goerr.New("invalid scenario filter", goerr.V("scenario", s))
		}
	}
	return nil
}

// Includes reports whether the (risk, scenario) pair passes the filters
func (o *SimulationOptions) Includes(riskID types.RiskID, s types.Scenario) bool {
	if len(o.RiskIDs) > 0 && !slices.Contains(o.RiskIDs, riskID) {
		return false
	}
	if len(o.Scenarios) > 0 && !slices.Contains(o.Scenarios, s) {
		return false
	}
	return true
}

// IsTerminal reports whether riskID never triggers further cascades
func (o *SimulationOptions) IsTerminal(riskID types.RiskID) bool {
	return slices.Contains(o.TerminalRisks, riskID)
}
