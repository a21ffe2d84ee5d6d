package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// BatchID identifies one simulation batch
type BatchID string

// NewBatchID returns a time ordered batch identifier
func NewBatchID() BatchID {
	return BatchID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of BatchID
func (id BatchID) String() string {
	return string(id)
}

// ImpactStatistics summarizes the total impact sample of one (risk, scenario)
type ImpactStatistics struct {
	SampleSize          int                  `json:"sample_size" firestore:"sample_size"`
	SampleMedian        Impacts              `json:"sample_median" firestore:"sample_median"`
	SampleMean          Impacts              `json:"sample_mean" firestore:"sample_mean"`
	SampleStdFromMedian Impacts              `json:"sample_std_from_median" firestore:"sample_std_from_median"`
	SampleStdFromMean   Impacts              `json:"sample_std_from_mean" firestore:"sample_std_from_mean"`
	Contributions       []ImpactContribution `json:"contributions" firestore:"contributions"`
	Histogram           []HistogramBin       `json:"histogram" firestore:"histogram"`
	Boxplot             []BoxplotData        `json:"boxplot" firestore:"boxplot"`
}

// ImpactContribution is the share of the mean total impact attributable to
// the direct impact or to one first-order triggered effect
type ImpactContribution struct {
	Key      string         `json:"key" firestore:"key"`
	RiskID   types.RiskID   `json:"risk_id,omitempty" firestore:"risk_id,omitempty"`
	Scenario types.Scenario `json:"scenario,omitempty" firestore:"scenario,omitempty"`
	// Count is the number of sampled trees in which the source appeared
	Count int     `json:"count" firestore:"count"`
	Mean  Impacts `json:"mean" firestore:"mean"`

	ContributionMean   float64 `json:"contribution_mean" firestore:"contribution_mean"`
	ContributionStd    float64 `json:"contribution_std" firestore:"contribution_std"`
	ConfidenceInterval float64 `json:"confidence_interval" firestore:"confidence_interval"`
	VarianceShare      float64 `json:"variance_share" firestore:"variance_share"`
}

// HistogramBin is one bin of the total impact distribution on the 7-point scale
type HistogramBin struct {
	ScaleFrom   float64 `json:"scale_from" firestore:"scale_from"`
	ScaleTo     float64 `json:"scale_to" firestore:"scale_to"`
	EurosFrom   float64 `json:"euros_from" firestore:"euros_from"`
	EurosTo     float64 `json:"euros_to" firestore:"euros_to"`
	Count       int     `json:"count" firestore:"count"`
	Probability float64 `json:"probability" firestore:"probability"`
	StdErr      float64 `json:"std_err" firestore:"std_err"`
}

// BoxplotData holds quartiles of one impact component on the 7-point scale,
// both as raw values and as stacked deltas
type BoxplotData struct {
	Key    string  `json:"key" firestore:"key"`
	Min    float64 `json:"min" firestore:"min"`
	Q1     float64 `json:"q1" firestore:"q1"`
	Median float64 `json:"median" firestore:"median"`
	Q3     float64 `json:"q3" firestore:"q3"`
	Max    float64 `json:"max" firestore:"max"`

	LowerWhisker float64 `json:"lower_whisker" firestore:"lower_whisker"`
	LowerBox     float64 `json:"lower_box" firestore:"lower_box"`
	UpperBox     float64 `json:"upper_box" firestore:"upper_box"`
	UpperWhisker float64 `json:"upper_whisker" firestore:"upper_whisker"`
}

// ProbabilityStatistics summarizes how often a (risk, scenario) appears in
// simulated years and what caused it
type ProbabilityStatistics struct {
	NumSamples         int                       `json:"num_samples" firestore:"num_samples"`
	Appearances        int                       `json:"appearances" firestore:"appearances"`
	SampleMean         float64                   `json:"sample_mean" firestore:"sample_mean"`
	SampleStd          float64                   `json:"sample_std" firestore:"sample_std"`
	ConfidenceInterval float64                   `json:"confidence_interval" firestore:"confidence_interval"`
	Causes             []ProbabilityContribution `json:"causes" firestore:"causes"`
	RootCauses         []ProbabilityContribution `json:"root_causes" firestore:"root_causes"`
}

// ProbabilityContribution is the share of yearly appearances of an effect
// in which a given cause (or root cause) was present
type ProbabilityContribution struct {
	Key      string         `json:"key" firestore:"key"`
	RiskID   types.RiskID   `json:"risk_id,omitempty" firestore:"risk_id,omitempty"`
	Scenario types.Scenario `json:"scenario,omitempty" firestore:"scenario,omitempty"`
	Count    int            `json:"count" firestore:"count"`

	Mean               float64 `json:"mean" firestore:"mean"`
	Std                float64 `json:"std" firestore:"std"`
	ConfidenceInterval float64 `json:"confidence_interval" firestore:"confidence_interval"`
}

// Convergence reports how the Monte Carlo driver stopped
type Convergence struct {
	Runs      int     `json:"runs" firestore:"runs"`
	Mean      float64 `json:"mean" firestore:"mean"`
	CV        float64 `json:"cv" firestore:"cv"`
	Converged bool    `json:"converged" firestore:"converged"`
}

// RiskStatistics is the output record of one (risk, scenario)
type RiskStatistics struct {
	BatchID     BatchID                `json:"batch_id" firestore:"batch_id"`
	RiskID      types.RiskID           `json:"risk_id" firestore:"risk_id"`
	Scenario    types.Scenario         `json:"scenario" firestore:"scenario"`
	Probability *ProbabilityStatistics `json:"probability,omitempty" firestore:"probability,omitempty"`
	Impact      *ImpactStatistics      `json:"impact,omitempty" firestore:"impact,omitempty"`
	Convergence Convergence            `json:"convergence" firestore:"convergence"`
	CascadeTree *AverageEventSummary   `json:"cascade_tree,omitempty" firestore:"cascade_tree,omitempty"`
	CreatedAt   time.Time              `json:"created_at" firestore:"created_at"`
}

// Key returns the (risk, scenario) pair of the record
func (s *RiskStatistics) Key() EventKey {
	return EventKey{RiskID: s.RiskID, Scenario: s.Scenario}
}

// Batch is the result of one simulation batch
type Batch struct {
	ID           BatchID           `json:"id"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Statistics   []*RiskStatistics `json:"statistics"`
	NotConverged []EventKey        `json:"not_converged,omitempty"`
}
