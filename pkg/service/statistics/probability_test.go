package statistics_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/statistics"
)

func key(id string) model.EventKey {
	return model.EventKey{RiskID: types.RiskID(id), Scenario: types.ScenarioMajor}
}

func sampleYears() [][]*model.RiskEvent {
	return [][]*model.RiskEvent{
		{newEvent("a", 1, newEvent("b", 1))},
		{newEvent("b", 1)},
		nil,
		{newEvent("a", 1), newEvent("a", 1)},
		{newEvent("a", 1, newEvent("b", 1, newEvent("c", 1)))},
	}
}

func TestProbabilityAccumulator(t *testing.T) {
	acc := statistics.NewProbabilityAccumulator()
	for _, year := range sampleYears() {
		acc.AddYear(year)
	}
	gt.Value(t, acc.NumSamples()).Equal(5)

	t.Run("presence is counted once per year", func(t *testing.T) {
		stats := acc.Statistics(key("a"))
		gt.Value(t, stats.Appearances).Equal(3)
		gt.B(t, near(stats.SampleMean, 0.6, 1e-12)).True()
		// (3 - 9/5) / 4
		gt.B(t, near(stats.SampleStd*stats.SampleStd, 0.3, 1e-12)).True()
		gt.A(t, stats.Causes).Length(1)
		gt.Value(t, stats.Causes[0].Key).Equal(model.DirectContributionKey)
		gt.B(t, near(stats.Causes[0].Mean, 1, 1e-12)).True()
	})

	t.Run("causes are ranked", func(t *testing.T) {
		stats := acc.Statistics(key("b"))
		gt.Value(t, stats.Appearances).Equal(3)
		gt.A(t, stats.Causes).Length(2)
		gt.Value(t, stats.Causes[0].Key).Equal("a__major")
		gt.Value(t, stats.Causes[0].RiskID).Equal(types.RiskID("a"))
		gt.Value(t, stats.Causes[0].Count).Equal(2)
		gt.B(t, near(stats.Causes[0].Mean, 2.0/3, 1e-12)).True()
		gt.Value(t, stats.Causes[1].Key).Equal(model.DirectContributionKey)
		gt.B(t, near(stats.Causes[1].Mean, 1.0/3, 1e-12)).True()
	})

	t.Run("root cause differs from direct cause", func(t *testing.T) {
		stats := acc.Statistics(key("c"))
		gt.Value(t, stats.Appearances).Equal(1)
		gt.A(t, stats.Causes).Length(1)
		gt.Value(t, stats.Causes[0].Key).Equal("b__major")
		gt.A(t, stats.RootCauses).Length(1)
		gt.Value(t, stats.RootCauses[0].Key).Equal("a__major")
		gt.B(t, near(stats.RootCauses[0].Mean, 1, 1e-12)).True()
	})

	t.Run("unseen key has no contributions", func(t *testing.T) {
		stats := acc.Statistics(key("z"))
		gt.Value(t, stats.Appearances).Equal(0)
		gt.Value(t, stats.SampleMean).Equal(0.0)
		gt.A(t, stats.Causes).Length(0)
	})
}

func TestProbabilityAccumulator_Merge(t *testing.T) {
	years := sampleYears()

	whole := statistics.NewProbabilityAccumulator()
	for _, year := range years {
		whole.AddYear(year)
	}

	left := statistics.NewProbabilityAccumulator()
	right := statistics.NewProbabilityAccumulator()
	for i, year := range years {
		if i%2 == 0 {
			left.AddYear(year)
		} else {
			right.AddYear(year)
		}
	}
	left.Merge(right)

	for _, id := range []string{"a", "b", "c"} {
		gt.Value(t, left.Statistics(key(id))).Equal(whole.Statistics(key(id)))
	}
}

func TestProbabilityAccumulator_Empty(t *testing.T) {
	stats := statistics.NewProbabilityAccumulator().Statistics(key("a"))
	gt.Value(t, stats.NumSamples).Equal(0)
	gt.Value(t, stats.SampleStd).Equal(0.0)
	gt.Value(t, stats.ConfidenceInterval).Equal(0.0)
}
