package statistics

import (
	"math"
	"sort"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
)

// ProbabilityAccumulator counts, over simulated years, in how many years
// each (risk, scenario) appeared, together with the direct cause and the
// root cause of each appearance. Presence is recorded once per year no
// matter how often the event fired.
type ProbabilityAccumulator struct {
	numSamples  int
	appearances map[model.EventKey]int
	causes      map[model.EventKey]map[string]int
	rootCauses  map[model.EventKey]map[string]int
}

// NewProbabilityAccumulator returns an empty accumulator
func NewProbabilityAccumulator() *ProbabilityAccumulator {
	return &ProbabilityAccumulator{
		appearances: make(map[model.EventKey]int),
		causes:      make(map[model.EventKey]map[string]int),
		rootCauses:  make(map[model.EventKey]map[string]int),
	}
}

// AddYear folds the forest of event trees realized in one year
func (a *ProbabilityAccumulator) AddYear(forest []*model.RiskEvent) {
	a.numSamples++

	appeared := make(map[model.EventKey]bool)
	causes := make(map[model.EventKey]map[string]bool)
	roots := make(map[model.EventKey]map[string]bool)
	mark := func(m map[model.EventKey]map[string]bool, k model.EventKey, source string) {
		if m[k] == nil {
			m[k] = make(map[string]bool)
		}
		m[k][source] = true
	}

	for _, tree := range forest {
		tree.Walk(func(ev *model.RiskEvent) {
			key := ev.Key()
			appeared[key] = true
			if ev.CausedBy == nil {
				mark(causes, key, model.DirectContributionKey)
				mark(roots, key, model.DirectContributionKey)
				return
			}
			mark(causes, key, ev.CausedBy.Key().String())
			mark(roots, key, ev.Root().Key().String())
		})
	}

	for key := range appeared {
		a.appearances[key]++
	}
	addCounts(a.causes, causes)
	addCounts(a.rootCauses, roots)
}

func addCounts(dst map[model.EventKey]map[string]int, src map[model.EventKey]map[string]bool) {
	for key, sources := range src {
		if dst[key] == nil {
			dst[key] = make(map[string]int)
		}
		for source := range sources {
			dst[key][source]++
		}
	}
}

// Merge adds the counts of o
func (a *ProbabilityAccumulator) Merge(o *ProbabilityAccumulator) {
	a.numSamples += o.numSamples
	for key, c := range o.appearances {
		a.appearances[key] += c
	}
	for key, m := range o.causes {
		if a.causes[key] == nil {
			a.causes[key] = make(map[string]int)
		}
		for source, c := range m {
			a.causes[key][source] += c
		}
	}
	for key, m := range o.rootCauses {
		if a.rootCauses[key] == nil {
			a.rootCauses[key] = make(map[string]int)
		}
		for source, c := range m {
			a.rootCauses[key][source] += c
		}
	}
}

// NumSamples returns the number of folded years
func (a *ProbabilityAccumulator) NumSamples() int {
	return a.numSamples
}

// Appearances returns the number of years in which key appeared
func (a *ProbabilityAccumulator) Appearances(key model.EventKey) int {
	return a.appearances[key]
}

// presenceVariance is the Bessel-corrected variance of a 0/1 series with
// count ones out of n
func presenceVariance(count, n int) float64 {
	if n <= 1 {
		return 0
	}
	c, fn := float64(count), float64(n)
	return math.Max(0, (c-c*c/fn)/(fn-1))
}

// Statistics computes the probability statistics of key
func (a *ProbabilityAccumulator) Statistics(key model.EventKey) *model.ProbabilityStatistics {
	n := a.numSamples
	count := a.appearances[key]
	stats := &model.ProbabilityStatistics{
		NumSamples:  n,
		Appearances: count,
	}
	if n == 0 {
		return stats
	}

	stats.SampleMean = float64(count) / float64(n)
	stats.SampleStd = math.Sqrt(presenceVariance(count, n))
	stats.ConfidenceInterval = z95 * stats.SampleStd / math.Sqrt(float64(n))
	stats.Causes = probabilityContributions(a.causes[key], n, stats.SampleMean)
	stats.RootCauses = probabilityContributions(a.rootCauses[key], n, stats.SampleMean)
	return stats
}

func probabilityContributions(counts map[string]int, n int, mean float64) []model.ProbabilityContribution {
	if mean == 0 || len(counts) == 0 {
		return nil
	}

	sqrtN := math.Sqrt(float64(n))
	result := make([]model.ProbabilityContribution, 0, len(counts))
	for source, count := range counts {
		c := model.ProbabilityContribution{
			Key:   source,
			Count: count,
			Mean:  float64(count) / float64(n) / mean,
			Std:   math.Sqrt(presenceVariance(count, n)) / mean,
		}
		c.ConfidenceInterval = z95 * c.Std / sqrtN
		if ek, ok := model.ParseEventKey(source); ok {
			c.RiskID = ek.RiskID
			c.Scenario = ek.Scenario
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Mean != result[j].Mean {
			return result[i].Mean > result[j].Mean
		}
		return result[i].Key < result[j].Key
	})
	return result
}
