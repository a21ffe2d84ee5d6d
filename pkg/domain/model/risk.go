package model

import (
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// Risk is a catalogued hazard with per-scenario direct impact estimates.
// It is built once by the catalogue builder and never modified afterwards.
type Risk struct {
	ID       types.RiskID
	Name     string
	Category types.CategoryID
	Type     types.RiskType

	// DirectImpact is indexed by Scenario.Index()
	DirectImpact [types.NumScenarios]Impacts
	// Probability is the yearly probability of a spontaneous (uncaused)
	// occurrence, indexed by Scenario.Index()
	Probability [types.NumScenarios]float64
}

// IsActor reports whether the risk is a malicious actor
func (r *Risk) IsActor() bool {
	return r.Type == types.RiskTypeActor
}

// DirectImpactOf returns the direct impact estimate for scenario
func (r *Risk) DirectImpactOf(s types.Scenario) Impacts {
	if i := s.Index(); i >= 0 {
		return r.DirectImpact[i]
	}
	return Impacts{}
}

// ProbabilityOf returns the yearly probability of scenario
func (r *Risk) ProbabilityOf(s types.Scenario) float64 {
	if i := s.Index(); i >= 0 {
		return r.Probability[i]
	}
	return 0
}

// RiskCascade is a directed cause -> effect edge. Probabilities[c][e] is
// P(effect scenario e | cause scenario c); rows are not normalized.
type RiskCascade struct {
	ID            types.CascadeID
	CauseID       types.RiskID
	EffectID      types.RiskID
	Probabilities [types.NumScenarios][types.NumScenarios]float64
}

// Row returns the conditional probabilities of each effect scenario given cause
func (c *RiskCascade) Row(cause types.Scenario) [types.NumScenarios]float64 {
	if i := cause.Index(); i >= 0 {
		return c.Probabilities[i]
	}
	return [types.NumScenarios]float64{}
}

// Probability returns P(effect | cause)
func (c *RiskCascade) Probability(cause, effect types.Scenario) float64 {
	ci, ei := cause.Index(), effect.Index()
	if ci < 0 || ei < 0 {
		return 0
	}
	return c.Probabilities[ci][ei]
}
