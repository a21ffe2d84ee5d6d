// Package scale converts between ordinal severity scales and physical units.
//
// Impact scales map to euros and are strictly increasing; probability scales
// map to return periods in months and are strictly decreasing. Every
// conversion has an exact inverse over the image of the forward function.
package scale

import "math"

const (
	// iScale7 is linear up to this scale value and exponential above it
	iScale7LinearMax = 0.5
	// iScale7LinearSlope is the euros per scale point on the linear branch
	iScale7LinearSlope = 1_000_000
	iScale7ExpRate     = 1.92
	iScale7ExpOffset   = 13.2

	tiScale5Anchor    = 8e8
	tiScale5AnchorAt  = 5
	tiScale5LinearMax = 0.5

	diScale5Anchor     = 5e6
	diScale5Multiplier = 1.6e6
	diScale5MultAt     = 1

	pScale5Months = 36
	pScale5Offset = 4.5

	pScale7Months = 12
	pScale7Offset = 12
	pScale7Rate   = 2.3
)

// diScale5LinearMax is the DI scale value whose euro equivalent is the anchor
var diScale5LinearMax = diScale5MultAt + math.Log10(diScale5Anchor/diScale5Multiplier)

// Round rounds v to the nearest multiple of 1/granularity. A non-positive
// granularity leaves v unchanged.
func Round(v, granularity float64) float64 {
	if granularity <= 0 {
		return v
	}
	return math.Round(v*granularity) / granularity
}

// EurosFromIScale7 converts a 7-point impact scale value to euros.
func EurosFromIScale7(scale float64) float64 {
	return EurosFromIScale7Aggregated(scale, 1)
}

// EurosFromIScale7Aggregated converts a 7-point impact scale value to euros,
// multiplied by aggregation (number of aggregated damage indicators).
func EurosFromIScale7Aggregated(scale, aggregation float64) float64 {
	if scale <= 0 {
		return 0
	}
	if scale <= iScale7LinearMax {
		return aggregation * iScale7LinearSlope * scale
	}
	return aggregation * math.Exp(iScale7ExpRate*(scale-iScale7LinearMax)+iScale7ExpOffset)
}

// IScale7FromEuros is the inverse of EurosFromIScale7, rounded with granularity.
func IScale7FromEuros(euros, granularity float64) float64 {
	return IScale7FromEurosAggregated(euros, granularity, 1)
}

// IScale7FromEurosAggregated is the inverse of EurosFromIScale7Aggregated.
// Amounts above the linear maximum take the logarithmic branch, so those
// just above it map slightly below the boundary value.
func IScale7FromEurosAggregated(euros, granularity, aggregation float64) float64 {
	if euros <= 0 || aggregation <= 0 {
		return 0
	}
	if euros <= aggregation*iScale7LinearSlope*iScale7LinearMax {
		return Round(euros/(aggregation*iScale7LinearSlope), granularity)
	}
	return Round((math.Log(euros/aggregation)-iScale7ExpOffset)/iScale7ExpRate+iScale7LinearMax, granularity)
}

func tiScale5LogEuros(scale float64) float64 {
	return tiScale5Anchor * math.Pow(10, scale-tiScale5AnchorAt)
}

// EurosFromTIScale5 converts a 5-point total impact scale value to euros.
func EurosFromTIScale5(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	if scale <= tiScale5LinearMax {
		return scale / tiScale5LinearMax * tiScale5LogEuros(tiScale5LinearMax)
	}
	return tiScale5LogEuros(scale)
}

// TIScale5FromEuros is the inverse of EurosFromTIScale5, rounded with granularity.
func TIScale5FromEuros(euros, granularity float64) float64 {
	if euros <= 0 {
		return 0
	}
	boundary := tiScale5LogEuros(tiScale5LinearMax)
	if euros <= boundary {
		return Round(euros/boundary*tiScale5LinearMax, granularity)
	}
	return Round(math.Log10(euros/tiScale5Anchor)+tiScale5AnchorAt, granularity)
}

// EurosFromDIScale5 converts a 5-point direct impact scale value to euros.
func EurosFromDIScale5(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	if scale <= diScale5LinearMax {
		return scale / diScale5LinearMax * diScale5Anchor
	}
	return diScale5Multiplier * math.Pow(10, scale-diScale5MultAt)
}

// DIScale5FromEuros is the inverse of EurosFromDIScale5, rounded with granularity.
func DIScale5FromEuros(euros, granularity float64) float64 {
	if euros <= 0 {
		return 0
	}
	if euros <= diScale5Anchor {
		return Round(euros/diScale5Anchor*diScale5LinearMax, granularity)
	}
	return Round(math.Log10(euros/diScale5Multiplier)+diScale5MultAt, granularity)
}

// ReturnPeriodMonthsFromPScale5 converts a 5-point probability scale value to
// the expected number of months between two occurrences.
func ReturnPeriodMonthsFromPScale5(p float64) float64 {
	return pScale5Months * math.Pow(10, pScale5Offset-p)
}

// PScale5FromReturnPeriodMonths is the inverse of ReturnPeriodMonthsFromPScale5.
// A non-positive return period maps to +Inf.
func PScale5FromReturnPeriodMonths(months, granularity float64) float64 {
	if months <= 0 {
		return math.Inf(1)
	}
	return Round(pScale5Offset-math.Log10(months/pScale5Months), granularity)
}

// ReturnPeriodMonthsFromPScale7 converts a 7-point probability scale value to
// the expected number of months between two occurrences.
func ReturnPeriodMonthsFromPScale7(p float64) float64 {
	return pScale7Months * math.Exp(pScale7Offset-pScale7Rate*p)
}

// PScale7FromReturnPeriodMonths is the inverse of ReturnPeriodMonthsFromPScale7.
// A non-positive return period maps to +Inf.
func PScale7FromReturnPeriodMonths(months, granularity float64) float64 {
	if months <= 0 {
		return math.Inf(1)
	}
	return Round((pScale7Offset-math.Log(months/pScale7Months))/pScale7Rate, granularity)
}

// YearlyProbabilityFromReturnPeriodMonths returns the probability that at
// least one occurrence happens within a year, assuming Poisson arrivals.
func YearlyProbabilityFromReturnPeriodMonths(months float64) float64 {
	if months <= 0 {
		return 1
	}
	if math.IsInf(months, 1) {
		return 0
	}
	return 1 - math.Exp(-12/months)
}

// ReturnPeriodMonthsFromYearlyProbability is the inverse of
// YearlyProbabilityFromReturnPeriodMonths.
func ReturnPeriodMonthsFromYearlyProbability(p float64) float64 {
	if p <= 0 {
		return math.Inf(1)
	}
	if p >= 1 {
		return 0
	}
	return -12 / math.Log1p(-p)
}
