package types

// DamageIndicator is one of the ten damage sub-categories of an impact
type DamageIndicator string

const (
	IndicatorHa DamageIndicator = "ha" // fatalities
	IndicatorHb DamageIndicator = "hb" // injured and sick
	IndicatorHc DamageIndicator = "hc" // people in need of assistance
	IndicatorSa DamageIndicator = "sa" // supply shortfalls
	IndicatorSb DamageIndicator = "sb" // diminished public order
	IndicatorSc DamageIndicator = "sc" // reputation damage
	IndicatorSd DamageIndicator = "sd" // loss of confidence in the state
	IndicatorEa DamageIndicator = "ea" // damaged ecosystems
	IndicatorFa DamageIndicator = "fa" // financial asset damages
	IndicatorFb DamageIndicator = "fb" // reduction of economic performance
)

// ImpactCategory is a rollup key over damage indicators
type ImpactCategory string

const (
	CategoryHuman         ImpactCategory = "h"
	CategorySocietal      ImpactCategory = "s"
	CategoryEnvironmental ImpactCategory = "e"
	CategoryFinancial     ImpactCategory = "f"
	CategoryAll           ImpactCategory = "all"
)

// AllDamageIndicators returns the ten indicators in canonical order
func AllDamageIndicators() []DamageIndicator {
	return []DamageIndicator{
		IndicatorHa, IndicatorHb, IndicatorHc,
		IndicatorSa, IndicatorSb, IndicatorSc, IndicatorSd,
		IndicatorEa,
		IndicatorFa, IndicatorFb,
	}
}

// AllImpactCategories returns the four category rollups and the overall total
func AllImpactCategories() []ImpactCategory {
	return []ImpactCategory{
		CategoryHuman,
		CategorySocietal,
		CategoryEnvironmental,
		CategoryFinancial,
		CategoryAll,
	}
}

// IsValid checks if the indicator is one of the ten known indicators
func (d DamageIndicator) IsValid() bool {
	switch d {
	case IndicatorHa, IndicatorHb, IndicatorHc,
		IndicatorSa, IndicatorSb, IndicatorSc, IndicatorSd,
		IndicatorEa,
		IndicatorFa, IndicatorFb:
		return true
	default:
		return false
	}
}

// Category returns the rollup the indicator belongs to
func (d DamageIndicator) Category() ImpactCategory {
	switch d {
	case IndicatorHa, IndicatorHb, IndicatorHc:
		return CategoryHuman
	case IndicatorSa, IndicatorSb, IndicatorSc, IndicatorSd:
		return CategorySocietal
	case IndicatorEa:
		return CategoryEnvironmental
	default:
		return CategoryFinancial
	}
}

// String returns the string representation of the indicator
func (d DamageIndicator) String() string {
	return string(d)
}
