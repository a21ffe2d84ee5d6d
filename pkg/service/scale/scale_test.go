package scale_test

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskcascade/pkg/service/scale"
)

type conversion struct {
	name       string
	forward    func(float64) float64
	inverse    func(float64) float64
	increasing bool
}

func conversions() []conversion {
	return []conversion{
		{
			name:       "iScale7",
			forward:    scale.EurosFromIScale7,
			inverse:    func(v float64) float64 { return scale.IScale7FromEuros(v, 0) },
			increasing: true,
		},
		{
			name:       "iScale7 aggregated",
			forward:    func(v float64) float64 { return scale.EurosFromIScale7Aggregated(v, 10) },
			inverse:    func(v float64) float64 { return scale.IScale7FromEurosAggregated(v, 0, 10) },
			increasing: true,
		},
		{
			name:       "tiScale5",
			forward:    scale.EurosFromTIScale5,
			inverse:    func(v float64) float64 { return scale.TIScale5FromEuros(v, 0) },
			increasing: true,
		},
		{
			name:       "diScale5",
			forward:    scale.EurosFromDIScale5,
			inverse:    func(v float64) float64 { return scale.DIScale5FromEuros(v, 0) },
			increasing: true,
		},
		{
			name:       "pScale5",
			forward:    scale.ReturnPeriodMonthsFromPScale5,
			inverse:    func(v float64) float64 { return scale.PScale5FromReturnPeriodMonths(v, 0) },
			increasing: false,
		},
		{
			name:       "pScale7",
			forward:    scale.ReturnPeriodMonthsFromPScale7,
			inverse:    func(v float64) float64 { return scale.PScale7FromReturnPeriodMonths(v, 0) },
			increasing: false,
		},
	}
}

func significantlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-3*math.Max(1, math.Abs(b))
}

func TestConversionRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	for _, c := range conversions() {
		properties.Property(c.name+" inverse restores the scale value", prop.ForAll(
			func(x float64) bool {
				return significantlyEqual(c.inverse(c.forward(x)), x)
			},
			gen.Float64Range(0, 8),
		))
	}

	properties.TestingRun(t)
}

func TestConversionMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	for _, c := range conversions() {
		properties.Property(c.name+" is strictly monotonic", prop.ForAll(
			func(a, b float64) bool {
				if a == b {
					return true
				}
				lo, hi := math.Min(a, b), math.Max(a, b)
				if c.increasing {
					return c.forward(lo) < c.forward(hi)
				}
				return c.forward(lo) > c.forward(hi)
			},
			gen.Float64Range(0, 8),
			gen.Float64Range(0, 8),
		))
	}

	properties.TestingRun(t)
}

func TestEurosFromIScale7(t *testing.T) {
	tests := []struct {
		name  string
		scale float64
		want  float64
	}{
		{name: "zero", scale: 0, want: 0},
		{name: "negative clamps to zero", scale: -1, want: 0},
		{name: "linear midpoint", scale: 0.25, want: 250_000},
		{name: "linear boundary", scale: 0.5, want: 500_000},
		{name: "exponential branch", scale: 1.5, want: math.Exp(1.92 + 13.2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.B(t, significantlyEqual(scale.EurosFromIScale7(tt.scale), tt.want)).True()
		})
	}

	gt.B(t, significantlyEqual(scale.EurosFromIScale7Aggregated(0.5, 3), 1_500_000)).True()
}

func TestIScale7FromEuros(t *testing.T) {
	gt.Value(t, scale.IScale7FromEuros(0, 100)).Equal(0.0)
	gt.Value(t, scale.IScale7FromEuros(-10, 100)).Equal(0.0)
	gt.Value(t, scale.IScale7FromEuros(500_000, 100)).Equal(0.5)
	gt.Value(t, scale.IScale7FromEuros(123_456, 100)).Equal(0.12)

	// just above the linear maximum the logarithmic branch applies
	gt.Value(t, scale.IScale7FromEuros(520_000, 100)).Equal(0.48)
	gt.Value(t, scale.IScale7FromEuros(530_000, 100)).Equal(0.49)
	gt.Value(t, scale.IScale7FromEurosAggregated(1_560_000, 100, 3)).Equal(0.48)

	gt.Value(t, scale.IScale7FromEuros(scale.EurosFromIScale7(3.7), 100)).Equal(3.7)
}

func TestReturnPeriods(t *testing.T) {
	gt.B(t, significantlyEqual(scale.ReturnPeriodMonthsFromPScale5(4.5), 36)).True()
	gt.B(t, significantlyEqual(scale.ReturnPeriodMonthsFromPScale5(3.5), 360)).True()
	gt.B(t, significantlyEqual(scale.ReturnPeriodMonthsFromPScale7(12/2.3), 12)).True()

	gt.B(t, math.IsInf(scale.PScale5FromReturnPeriodMonths(0, 0), 1)).True()
	gt.B(t, math.IsInf(scale.PScale7FromReturnPeriodMonths(-3, 0), 1)).True()
}

func TestYearlyProbability(t *testing.T) {
	gt.Value(t, scale.YearlyProbabilityFromReturnPeriodMonths(0)).Equal(1.0)
	gt.Value(t, scale.YearlyProbabilityFromReturnPeriodMonths(math.Inf(1))).Equal(0.0)
	gt.B(t, significantlyEqual(scale.YearlyProbabilityFromReturnPeriodMonths(12), 1-math.Exp(-1))).True()

	for _, p := range []float64{0.001, 0.1, 0.5, 0.9} {
		rp := scale.ReturnPeriodMonthsFromYearlyProbability(p)
		gt.B(t, significantlyEqual(scale.YearlyProbabilityFromReturnPeriodMonths(rp), p)).True()
	}
	gt.B(t, math.IsInf(scale.ReturnPeriodMonthsFromYearlyProbability(0), 1)).True()
	gt.Value(t, scale.ReturnPeriodMonthsFromYearlyProbability(1)).Equal(0.0)
}

func TestRound(t *testing.T) {
	gt.Value(t, scale.Round(1.23456, 100)).Equal(1.23)
	gt.Value(t, scale.Round(1.23456, 0)).Equal(1.23456)
}
