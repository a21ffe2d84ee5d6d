package simulator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/scale"
	"github.com/secmon-lab/riskcascade/pkg/service/simulator"
)

func driverOptions() model.SimulationOptions {
	opts := model.DefaultSimulationOptions()
	opts.NoiseStdDev = 0
	return opts
}

func TestDriver_ConvergenceTermination(t *testing.T) {
	c := buildCatalogue(t, []model.RiskSnapshot{riskSnapshot("a", 1_000_000)}, nil)
	opts := driverOptions()
	opts.MinRuns = 10
	opts.MaxRuns = 1000
	opts.RelStd = 0.5

	var calls []int
	driver := simulator.NewDriver(c, opts, simulator.WithProgress(func(_ string, run int) {
		calls = append(calls, run)
	}))

	result, err := driver.Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Convergence.Runs).Equal(11)
	gt.B(t, result.Convergence.Converged).True()
	gt.Value(t, result.Convergence.CV).Equal(0.0)
	gt.A(t, result.Events).Length(11)
	gt.A(t, calls).Length(11)
	gt.Value(t, calls[10]).Equal(11)
}

func TestDriver_ConvergenceUsesSampleDeviation(t *testing.T) {
	c := buildCatalogue(t, []model.RiskSnapshot{riskSnapshot("a", 1_000_000)}, nil)
	opts := model.DefaultSimulationOptions()
	opts.MinRuns = 10
	opts.MaxRuns = 1000
	opts.RelStd = 0.1

	result, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.NoError(t, err).Required()

	// the noise spreads log impacts by about NoiseStdDev, well above RelStd
	gt.Value(t, result.Convergence.Runs).Equal(1000)
	gt.B(t, result.Convergence.Converged).False()
	gt.B(t, result.Convergence.CV > opts.RelStd).True()

	var w simulator.Welford
	for _, ev := range result.Events {
		w.Add(scale.IScale7FromEuros(ev.TotalImpact.All, 0))
	}
	gt.B(t, near(result.Convergence.CV, w.Std(), 1e-9)).True()
	gt.B(t, near(result.Convergence.CV, opts.NoiseStdDev, 0.05)).True()
}

func TestDriver_MaxRunsIsNotAnError(t *testing.T) {
	c := buildCatalogue(t, []model.RiskSnapshot{riskSnapshot("a", 1_000_000)}, nil)
	opts := model.DefaultSimulationOptions()
	opts.MinRuns = 5
	opts.MaxRuns = 50
	opts.RelStd = 0

	result, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Convergence.Runs).Equal(50)
	gt.B(t, result.Convergence.Converged).False()
	gt.B(t, result.Convergence.CV > 0).True()
}

func TestDriver_EndToEnd(t *testing.T) {
	c := buildCatalogue(t,
		[]model.RiskSnapshot{riskSnapshot("a", 1_000_000), riskSnapshot("b", 500_000)},
		[]model.CascadeSnapshot{certainCascade("a", "b")},
	)
	opts := driverOptions()
	opts.MinRuns = 0
	opts.MaxRuns = 1000
	opts.RelStd = 0

	result, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Convergence.Runs).Equal(1000)
	gt.A(t, result.Events).Length(1000)

	mean := result.Average.MeanTotal()
	gt.B(t, near(mean.Fa, 1_500_000, 1e-3)).True()
	gt.Value(t, result.Average.OccurrenceRate("b__major")).Equal(1.0)
	gt.Value(t, result.Average.Children["b__major"].Count).Equal(1000)
}

func TestDriver_ContributionConservation(t *testing.T) {
	c := buildCatalogue(t,
		[]model.RiskSnapshot{riskSnapshot("a", 1_000_000), riskSnapshot("b", 500_000)},
		[]model.CascadeSnapshot{certainCascade("a", "b")},
	)
	opts := model.DefaultSimulationOptions()
	opts.MinRuns = 0
	opts.MaxRuns = 2000
	opts.RelStd = 0

	result, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.NoError(t, err).Required()

	var total, direct, effect float64
	for _, ev := range result.Events {
		total += ev.TotalImpact.All
		direct += ev.Contributions[model.DirectContributionKey].All
		effect += ev.Contributions["b__major"].All
	}
	n := float64(len(result.Events))
	gt.B(t, near(direct/n+effect/n, total/n, 1e-6*total/n)).True()
}

func TestDriver_Reproducible(t *testing.T) {
	c := buildCatalogue(t,
		[]model.RiskSnapshot{riskSnapshot("a", 1_000_000), riskSnapshot("b", 500_000)},
		[]model.CascadeSnapshot{{
			ID:       "a-b",
			CauseID:  "a",
			EffectID: "b",
			Probabilities: map[string]map[string]float64{
				"major": {"considerable": 0.3, "major": 0.2, "extreme": 0.1},
			},
		}},
	)

	for _, workers := range []int{1, 4} {
		opts := model.DefaultSimulationOptions()
		opts.MinRuns = 10
		opts.MaxRuns = 200
		opts.Workers = workers

		first, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
		gt.NoError(t, err).Required()
		second, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
		gt.NoError(t, err).Required()

		gt.Value(t, first.Convergence).Equal(second.Convergence)
		gt.Value(t, first.Average.TotalSum).Equal(second.Average.TotalSum)
	}
}

func TestDriver_ParallelRespectsMaxRuns(t *testing.T) {
	c := buildCatalogue(t, []model.RiskSnapshot{riskSnapshot("a", 1_000_000)}, nil)
	opts := model.DefaultSimulationOptions()
	opts.MinRuns = 0
	opts.MaxRuns = 10
	opts.RelStd = 0
	opts.Workers = 4

	var mu sync.Mutex
	var runs []types.Scenario
	driver := simulator.NewDriver(c, opts, simulator.WithRunHook(func(s types.Scenario) {
		mu.Lock()
		defer mu.Unlock()
		runs = append(runs, s)
	}))

	result, err := driver.Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioExtreme)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Convergence.Runs).Equal(10)
	gt.A(t, result.Events).Length(10)
	gt.A(t, runs).Length(10)
	gt.Value(t, result.Average.Count).Equal(10)
}

func TestDriver_DepthErrorAborts(t *testing.T) {
	c := buildCatalogue(t,
		[]model.RiskSnapshot{riskSnapshot("a", 1), riskSnapshot("b", 1), riskSnapshot("c", 1)},
		[]model.CascadeSnapshot{certainCascade("a", "b"), certainCascade("b", "c")},
	)
	opts := driverOptions()
	opts.MaxDepth = 1

	_, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.Error(t, err).Is(simulator.ErrCascadeDepthExceeded)
}

type countingFolder struct {
	years  int
	events int
}

func (f *countingFolder) AddYear(forest []*model.RiskEvent) {
	f.years++
	for _, root := range forest {
		root.Walk(func(*model.RiskEvent) { f.events++ })
	}
}

func TestSampleYears(t *testing.T) {
	certain := riskSnapshot("certain", 100)
	certain.Scenarios[1].YearlyProbability = 1
	never := riskSnapshot("never", 100)

	c := buildCatalogue(t, []model.RiskSnapshot{certain, never}, nil)

	for _, workers := range []int{1, 3} {
		opts := driverOptions()
		opts.YearlySamples = 100
		opts.Workers = workers

		folders, err := simulator.SampleYears(context.Background(), simulator.NewDriver(c, opts), func() *countingFolder {
			return &countingFolder{}
		})
		gt.NoError(t, err).Required()
		gt.A(t, folders).Length(workers)

		var years, events int
		for _, f := range folders {
			years += f.years
			events += f.events
		}
		gt.Value(t, years).Equal(100)
		gt.Value(t, events).Equal(100)
	}
}

func TestWelford_Merge(t *testing.T) {
	values := []float64{1, 4, 2, 8, 5, 7, 3, 6}

	var all simulator.Welford
	for _, v := range values {
		all.Add(v)
	}

	var left, right simulator.Welford
	for _, v := range values[:3] {
		left.Add(v)
	}
	for _, v := range values[3:] {
		right.Add(v)
	}
	left.Merge(right)

	gt.Value(t, left.N).Equal(all.N)
	gt.B(t, near(left.Mean, all.Mean, 1e-12)).True()
	gt.B(t, near(left.Variance(), all.Variance(), 1e-12)).True()
	gt.B(t, near(all.Mean, 4.5, 1e-12)).True()
	gt.B(t, near(all.Variance(), 6, 1e-12)).True()

	var single simulator.Welford
	single.Add(3)
	gt.Value(t, single.Variance()).Equal(0.0)
	gt.Value(t, single.Std()).Equal(0.0)
}

func TestDriver_TerminalRisks(t *testing.T) {
	c := buildCatalogue(t,
		[]model.RiskSnapshot{riskSnapshot("a", 1_000_000), riskSnapshot("b", 500_000)},
		[]model.CascadeSnapshot{certainCascade("a", "b")},
	)
	opts := driverOptions()
	opts.MaxRuns = 20
	opts.RelStd = 0
	opts.TerminalRisks = []types.RiskID{"a"}

	result, err := simulator.NewDriver(c, opts).Run(context.Background(), mustRisk(t, c, "a"), types.ScenarioMajor)
	gt.NoError(t, err).Required()
	gt.A(t, result.Events).Length(20)
	for _, ev := range result.Events {
		gt.A(t, ev.TriggeredEvents).Length(0)
		gt.Value(t, ev.TotalImpact.All).Equal(1_000_000.0)
	}
	gt.Value(t, len(result.Average.Children)).Equal(0)
}

func TestDriver_Cancelled(t *testing.T) {
	c := buildCatalogue(t, []model.RiskSnapshot{riskSnapshot("a", 1_000_000)}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		opts := driverOptions()
		opts.Workers = workers
		_, err := simulator.NewDriver(c, opts).Run(ctx, mustRisk(t, c, "a"), types.ScenarioMajor)
		gt.Error(t, err).Is(context.Canceled)
	}
}
