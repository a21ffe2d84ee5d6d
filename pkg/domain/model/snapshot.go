package model

// RiskSnapshot is the catalogue input record of one risk file
type RiskSnapshot struct {
	ID        string                 `json:"id" yaml:"id" toml:"id" validate:"required"`
	Name      string                 `json:"name" yaml:"name" toml:"name"`
	Category  string                 `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Type      string                 `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" validate:"omitempty,oneof=standard actor"`
	Scenarios []RiskScenarioSnapshot `json:"scenarios" yaml:"scenarios" toml:"scenarios" validate:"omitempty,dive"`
}

// RiskScenarioSnapshot holds the estimates of one scenario of a risk file.
// Probability is given either as a yearly probability or as a return
// period in months; the yearly probability wins when both are set.
type RiskScenarioSnapshot struct {
	Scenario           string             `json:"scenario" yaml:"scenario" toml:"scenario" validate:"required,oneof=considerable major extreme"`
	YearlyProbability  float64            `json:"yearly_probability,omitempty" yaml:"yearly_probability,omitempty" toml:"yearly_probability,omitempty" validate:"gte=0,lte=1"`
	ReturnPeriodMonths float64            `json:"return_period_months,omitempty" yaml:"return_period_months,omitempty" toml:"return_period_months,omitempty" validate:"gte=0"`
	DirectImpact       map[string]float64 `json:"direct_impact,omitempty" yaml:"direct_impact,omitempty" toml:"direct_impact,omitempty" validate:"omitempty,dive,keys,oneof=ha hb hc sa sb sc sd ea fa fb,endkeys,gte=0"`
}

// CascadeSnapshot is the catalogue input record of one cause -> effect
// cascade. Probabilities maps cause scenario -> effect scenario -> absolute
// conditional probability.
type CascadeSnapshot struct {
	ID            string                        `json:"id" yaml:"id" toml:"id" validate:"required"`
	CauseID       string                        `json:"cause_id" yaml:"cause_id" toml:"cause_id" validate:"required"`
	EffectID      string                        `json:"effect_id" yaml:"effect_id" toml:"effect_id" validate:"required"`
	Probabilities map[string]map[string]float64 `json:"probabilities" yaml:"probabilities" toml:"probabilities" validate:"omitempty,dive,keys,oneof=considerable major extreme,endkeys,dive,keys,oneof=considerable major extreme,endkeys,gte=0,lte=1"`
}

// CatalogueSnapshot is the layout of a catalogue file
type CatalogueSnapshot struct {
	Risks    []RiskSnapshot    `json:"risks" yaml:"risks" toml:"risks" validate:"omitempty,dive"`
	Cascades []CascadeSnapshot `json:"cascades" yaml:"cascades" toml:"cascades" validate:"omitempty,dive"`
}
