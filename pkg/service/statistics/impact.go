// Package statistics turns simulation samples into impact and probability
// statistics records.
package statistics

import (
	"math"
	"sort"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/scale"
)

const (
	// z95 is the two-sided 95% normal quantile
	z95 = 1.96

	histogramScaleMax  = 8.0
	boxplotGranularity = 100
)

// Impact computes the impact statistics of a sample of event trees rooted
// at the same (risk, scenario). binWidth is the histogram bin width on the
// 7-point scale.
func Impact(events []*model.RiskEvent, binWidth float64) *model.ImpactStatistics {
	n := len(events)
	stats := &model.ImpactStatistics{SampleSize: n}
	if n == 0 {
		return stats
	}

	totals := make([]model.Impacts, n)
	for i, ev := range events {
		totals[i] = ev.TotalImpact
	}

	mean := sampleMean(totals)
	median := sampleMedian(totals)

	stats.SampleMean = mean.Round()
	stats.SampleMedian = median.Round()
	stats.SampleStdFromMean = sampleStd(totals, stats.SampleMean)
	stats.SampleStdFromMedian = sampleStd(totals, stats.SampleMedian)
	stats.Contributions = contributions(events, mean)
	stats.Histogram = histogram(totals, binWidth)
	stats.Boxplot = boxplot(totals)

	return stats
}

func sampleMean(values []model.Impacts) model.Impacts {
	var sum model.Impacts
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Divide(float64(len(values)))
}

func sampleMedian(values []model.Impacts) model.Impacts {
	return model.Impacts{}.Map(func(d types.DamageIndicator, _ float64) float64 {
		xs := make([]float64, len(values))
		for i, v := range values {
			xs[i] = v.Indicator(d)
		}
		sort.Float64s(xs)
		return median(xs)
	})
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleStd is the Bessel-corrected deviation of every indicator from center
func sampleStd(values []model.Impacts, center model.Impacts) model.Impacts {
	n := len(values)
	if n <= 1 {
		return model.Impacts{}
	}

	var sq model.Impacts
	for _, v := range values {
		sq = sq.Add(v.Sub(center).Pow(2))
	}
	return sq.Divide(float64(n - 1)).Pow(0.5)
}

func variance(xs []float64) float64 {
	n := len(xs)
	if n <= 1 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	m := sum / float64(n)

	var sq float64
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return sq / float64(n-1)
}

type contributionSample struct {
	count int
	sum   model.Impacts
	// all holds the total contribution of each tree, zero when absent
	all []float64
}

// contributions decomposes the mean total impact into the direct impact
// and the first-order triggered effects of each tree
func contributions(events []*model.RiskEvent, mean model.Impacts) []model.ImpactContribution {
	n := len(events)
	samples := make(map[string]*contributionSample)
	sampleOf := func(key string) *contributionSample {
		s, ok := samples[key]
		if !ok {
			s = &contributionSample{all: make([]float64, n)}
			samples[key] = s
		}
		return s
	}

	totals := make([]float64, n)
	for i, ev := range events {
		totals[i] = ev.TotalImpact.All

		if ev.TotalImpact.All > 0 {
			direct := ev.DirectImpact
			s := sampleOf(model.DirectContributionKey)
			s.count++
			s.sum = s.sum.Add(direct)
			s.all[i] = direct.All
		}

		seen := make(map[string]bool, len(ev.TriggeredEvents))
		for _, child := range ev.TriggeredEvents {
			key := child.Key().String()
			s := sampleOf(key)
			if !seen[key] {
				seen[key] = true
				s.count++
			}
			s.sum = s.sum.Add(child.TotalImpact)
			s.all[i] += child.TotalImpact.All
		}
	}

	totalVar := variance(totals)
	sqrtN := math.Sqrt(float64(n))

	result := make([]model.ImpactContribution, 0, len(samples))
	for key, s := range samples {
		if s.count == 0 {
			continue
		}
		c := model.ImpactContribution{
			Key:   key,
			Count: s.count,
			Mean:  s.sum.Divide(float64(n)),
		}
		if ek, ok := model.ParseEventKey(key); ok {
			c.RiskID = ek.RiskID
			c.Scenario = ek.Scenario
		}

		v := variance(s.all)
		if mean.All > 0 {
			c.ContributionMean = c.Mean.All / mean.All
			c.ContributionStd = math.Sqrt(v) / mean.All
			c.ConfidenceInterval = z95 * c.ContributionStd / sqrtN
		}
		if totalVar > 0 {
			c.VarianceShare = v / totalVar
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ContributionMean != result[j].ContributionMean {
			return result[i].ContributionMean > result[j].ContributionMean
		}
		return result[i].Key < result[j].Key
	})
	return result
}

// histogram bins total impacts on the 7-point scale using euro thresholds.
// Impacts beyond the scale range fall into the last bin.
func histogram(values []model.Impacts, binWidth float64) []model.HistogramBin {
	if binWidth <= 0 {
		return nil
	}
	n := float64(len(values))
	numBins := int(math.Ceil(histogramScaleMax/binWidth - 1e-9))

	bins := make([]model.HistogramBin, numBins)
	for i := range bins {
		from := float64(i) * binWidth
		to := math.Min(float64(i+1)*binWidth, histogramScaleMax)
		bins[i] = model.HistogramBin{
			ScaleFrom: from,
			ScaleTo:   to,
			EurosFrom: scale.EurosFromIScale7(from),
			EurosTo:   scale.EurosFromIScale7(to),
		}
	}

	for _, v := range values {
		idx := sort.Search(numBins, func(i int) bool {
			return v.All < bins[i].EurosTo
		})
		if idx >= numBins {
			idx = numBins - 1
		}
		bins[idx].Count++
	}

	for i := range bins {
		bins[i].Probability = float64(bins[i].Count) / n
		bins[i].StdErr = math.Sqrt(float64(bins[i].Count)) / (n * binWidth)
	}
	return bins
}

// aggregation is the number of indicators summed into key
func aggregation(key string) float64 {
	if types.DamageIndicator(key).IsValid() {
		return 1
	}
	if types.ImpactCategory(key) == types.CategoryAll {
		return float64(len(types.AllDamageIndicators()))
	}
	var count float64
	for _, d := range types.AllDamageIndicators() {
		if string(d.Category()) == key {
			count++
		}
	}
	return count
}

// quartile picks the order statistic at round(q*n) without interpolation
func quartile(sorted []float64, q float64) float64 {
	n := len(sorted)
	idx := int(math.Round(q * float64(n)))
	idx = max(0, min(idx, n-1))
	return sorted[idx]
}

func boxplot(values []model.Impacts) []model.BoxplotData {
	keys := model.ImpactKeys()
	result := make([]model.BoxplotData, 0, len(keys))

	for _, key := range keys {
		agg := aggregation(key)
		xs := make([]float64, len(values))
		for i, v := range values {
			xs[i] = scale.IScale7FromEurosAggregated(v.Value(key), boxplotGranularity, agg)
		}
		sort.Float64s(xs)

		b := model.BoxplotData{
			Key:    key,
			Min:    xs[0],
			Q1:     quartile(xs, 0.25),
			Median: quartile(xs, 0.5),
			Q3:     quartile(xs, 0.75),
			Max:    xs[len(xs)-1],
		}
		b.LowerWhisker = b.Q1 - b.Min
		b.LowerBox = b.Median - b.Q1
		b.UpperBox = b.Q3 - b.Median
		b.UpperWhisker = b.Max - b.Q3
		result = append(result, b)
	}
	return result
}
