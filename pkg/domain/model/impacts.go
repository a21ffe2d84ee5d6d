package model

import (
	"math"

	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// Impacts is an impact vector in euros: the ten damage indicators plus the
// four category rollups and the overall total. Every operation works on the
// ten indicators and recomputes the rollups, so All always equals
// H+S+E+F and the sum of the indicators.
type Impacts struct {
	Ha float64 `json:"ha" firestore:"ha"`
	Hb float64 `json:"hb" firestore:"hb"`
	Hc float64 `json:"hc" firestore:"hc"`
	Sa float64 `json:"sa" firestore:"sa"`
	Sb float64 `json:"sb" firestore:"sb"`
	Sc float64 `json:"sc" firestore:"sc"`
	Sd float64 `json:"sd" firestore:"sd"`
	Ea float64 `json:"ea" firestore:"ea"`
	Fa float64 `json:"fa" firestore:"fa"`
	Fb float64 `json:"fb" firestore:"fb"`

	H   float64 `json:"h" firestore:"h"`
	S   float64 `json:"s" firestore:"s"`
	E   float64 `json:"e" firestore:"e"`
	F   float64 `json:"f" firestore:"f"`
	All float64 `json:"all" firestore:"all"`
}

// NewImpacts builds an aggregated impact vector from per-indicator values.
// Unknown indicators are ignored.
func NewImpacts(values map[types.DamageIndicator]float64) Impacts {
	var i Impacts
	for d, v := range values {
		i.set(d, v)
	}
	return i.aggregated()
}

func (i *Impacts) ref(d types.DamageIndicator) *float64 {
	switch d {
	case types.IndicatorHa:
		return &i.Ha
	case types.IndicatorHb:
		return &i.Hb
	case types.IndicatorHc:
		return &i.Hc
	case types.IndicatorSa:
		return &i.Sa
	case types.IndicatorSb:
		return &i.Sb
	case types.IndicatorSc:
		return &i.Sc
	case types.IndicatorSd:
		return &i.Sd
	case types.IndicatorEa:
		return &i.Ea
	case types.IndicatorFa:
		return &i.Fa
	case types.IndicatorFb:
		return &i.Fb
	default:
		return nil
	}
}

func (i *Impacts) set(d types.DamageIndicator, v float64) {
	if p := i.ref(d); p != nil {
		*p = v
	}
}

// Indicator returns the value of one damage indicator
func (i Impacts) Indicator(d types.DamageIndicator) float64 {
	if p := i.ref(d); p != nil {
		return *p
	}
	return 0
}

// Category returns the value of a rollup
func (i Impacts) Category(c types.ImpactCategory) float64 {
	switch c {
	case types.CategoryHuman:
		return i.H
	case types.CategorySocietal:
		return i.S
	case types.CategoryEnvironmental:
		return i.E
	case types.CategoryFinancial:
		return i.F
	case types.CategoryAll:
		return i.All
	default:
		return 0
	}
}

// ImpactKeys returns every key of the vector: indicators first, then rollups
func ImpactKeys() []string {
	keys := make([]string, 0, 15)
	for _, d := range types.AllDamageIndicators() {
		keys = append(keys, d.String())
	}
	for _, c := range types.AllImpactCategories() {
		keys = append(keys, string(c))
	}
	return keys
}

// Value returns the component named by key (an indicator or a rollup)
func (i Impacts) Value(key string) float64 {
	if d := types.DamageIndicator(key); d.IsValid() {
		return i.Indicator(d)
	}
	return i.Category(types.ImpactCategory(key))
}

func (i Impacts) aggregated() Impacts {
	i.H = i.Ha + i.Hb + i.Hc
	i.S = i.Sa + i.Sb + i.Sc + i.Sd
	i.E = i.Ea
	i.F = i.Fa + i.Fb
	i.All = i.H + i.S + i.E + i.F
	return i
}

// Map applies fn to each indicator and recomputes the rollups
func (i Impacts) Map(fn func(d types.DamageIndicator, v float64) float64) Impacts {
	var out Impacts
	for _, d := range types.AllDamageIndicators() {
		out.set(d, fn(d, i.Indicator(d)))
	}
	return out.aggregated()
}

// Combine applies fn to each pair of indicators and recomputes the rollups
func (i Impacts) Combine(o Impacts, fn func(a, b float64) float64) Impacts {
	var out Impacts
	for _, d := range types.AllDamageIndicators() {
		out.set(d, fn(i.Indicator(d), o.Indicator(d)))
	}
	return out.aggregated()
}

// Add returns i + o
func (i Impacts) Add(o Impacts) Impacts {
	return i.Combine(o, func(a, b float64) float64 { return a + b })
}

// Sub returns i - o
func (i Impacts) Sub(o Impacts) Impacts {
	return i.Combine(o, func(a, b float64) float64 { return a - b })
}

// Multiply returns the component-wise product
func (i Impacts) Multiply(o Impacts) Impacts {
	return i.Combine(o, func(a, b float64) float64 { return a * b })
}

// Scale returns i * f
func (i Impacts) Scale(f float64) Impacts {
	return i.Map(func(_ types.DamageIndicator, v float64) float64 { return v * f })
}

// Pow raises every indicator to the power e
func (i Impacts) Pow(e float64) Impacts {
	return i.Map(func(_ types.DamageIndicator, v float64) float64 { return math.Pow(v, e) })
}

// Divide returns i / d, or the zero vector when d is zero
func (i Impacts) Divide(d float64) Impacts {
	if d == 0 {
		return Impacts{}
	}
	return i.Scale(1 / d)
}

// Round rounds every indicator to whole euros
func (i Impacts) Round() Impacts {
	return i.Map(func(_ types.DamageIndicator, v float64) float64 { return math.Round(v) })
}

// IsZero reports whether every indicator is zero
func (i Impacts) IsZero() bool {
	return i == Impacts{}
}
