package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/repository/memory"
	"github.com/secmon-lab/riskcascade/pkg/service/simulator"
	"github.com/secmon-lab/riskcascade/pkg/usecase"
)

func riskSnapshot(id string, fa, majorProbability float64) model.RiskSnapshot {
	rs := model.RiskSnapshot{ID: id, Name: id}
	for _, s := range types.AllScenarios() {
		sc := model.RiskScenarioSnapshot{
			Scenario:     s.String(),
			DirectImpact: map[string]float64{"fa": fa},
		}
		if s == types.ScenarioMajor {
			sc.YearlyProbability = majorProbability
		}
		rs.Scenarios = append(rs.Scenarios, sc)
	}
	return rs
}

func certainCascade(cause, effect string) model.CascadeSnapshot {
	return model.CascadeSnapshot{
		ID:       cause + "-" + effect,
		CauseID:  cause,
		EffectID: effect,
		Probabilities: map[string]map[string]float64{
			"major": {"major": 1},
		},
	}
}

func sampleCatalogue() *model.CatalogueSnapshot {
	return &model.CatalogueSnapshot{
		Risks: []model.RiskSnapshot{
			riskSnapshot("a", 1_000_000, 0.5),
			riskSnapshot("b", 500_000, 0),
		},
		Cascades: []model.CascadeSnapshot{certainCascade("a", "b")},
	}
}

func testOptions() model.SimulationOptions {
	opts := model.DefaultSimulationOptions()
	opts.NoiseStdDev = 0
	opts.MinRuns = 0
	opts.MaxRuns = 1000
	opts.RelStd = 0
	opts.YearlySamples = 200
	return opts
}

type recordingMetrics struct {
	mu          sync.Mutex
	runs        int
	simulations int
	failures    int
	batches     int
}

func (m *recordingMetrics) RecordRun(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
}

func (m *recordingMetrics) RecordSimulation(model.EventKey, model.Convergence, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simulations++
}

func (m *recordingMetrics) RecordFailure(model.EventKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *recordingMetrics) RecordBatch(int, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
}

type recordingExporter struct {
	batches []*model.Batch
}

func (e *recordingExporter) Export(ctx context.Context, batch *model.Batch) (string, error) {
	e.batches = append(e.batches, batch)
	return "memory://" + batch.ID.String(), nil
}

func TestRunBatch_EndToEnd(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	opts := testOptions()
	opts.RiskIDs = []types.RiskID{"a"}
	opts.Scenarios = []types.Scenario{types.ScenarioMajor}

	metrics := &recordingMetrics{}
	exporter := &recordingExporter{}
	var progressCalls int
	uc := usecase.New(repo,
		usecase.WithSimulationOptions(opts),
		usecase.WithMetrics(metrics),
		usecase.WithExporter(exporter),
		usecase.WithProgress(func(string, int) { progressCalls++ }),
	)

	batch, err := uc.Simulation.RunBatch(ctx, sampleCatalogue())
	gt.NoError(t, err).Required()
	gt.A(t, batch.Statistics).Length(1)
	gt.B(t, batch.FinishedAt.Before(batch.StartedAt)).False()

	rec := batch.Statistics[0]
	gt.Value(t, rec.BatchID).Equal(batch.ID)
	gt.Value(t, rec.Key()).Equal(model.EventKey{RiskID: "a", Scenario: types.ScenarioMajor})
	gt.Value(t, rec.Impact.SampleSize).Equal(1000)
	gt.Value(t, rec.Impact.SampleMean.Fa).Equal(1_500_000.0)
	gt.Value(t, rec.Convergence.Runs).Equal(1000)

	gt.Value(t, rec.CascadeTree.Key.RiskID).Equal(types.RiskID("a"))
	gt.A(t, rec.CascadeTree.Children).Length(1)
	gt.Value(t, rec.CascadeTree.Children[0].OccurrenceRate).Equal(1.0)

	gt.Value(t, rec.Probability.NumSamples).Equal(200)
	gt.B(t, rec.Probability.Appearances > 0).True()
	gt.B(t, rec.Probability.Appearances < 200).True()

	// relStd 0 never converges
	gt.A(t, batch.NotConverged).Length(1)

	stored, err := repo.Statistics().Get(ctx, "a", types.ScenarioMajor)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.BatchID).Equal(batch.ID)

	gt.Value(t, metrics.runs).Equal(1000)
	gt.Value(t, metrics.simulations).Equal(1)
	gt.Value(t, metrics.batches).Equal(1)
	gt.A(t, exporter.batches).Length(1)
	gt.B(t, progressCalls > 1000).True()
}

func TestRunBatch_AllPairs(t *testing.T) {
	opts := testOptions()
	opts.MaxRuns = 20
	opts.Workers = 3

	uc := usecase.New(memory.New(), usecase.WithSimulationOptions(opts))
	batch, err := uc.Simulation.RunBatch(context.Background(), sampleCatalogue())
	gt.NoError(t, err).Required()
	gt.A(t, batch.Statistics).Length(6)

	// records keep catalogue order: risks by input order, scenarios by severity
	gt.Value(t, batch.Statistics[0].Key()).Equal(model.EventKey{RiskID: "a", Scenario: types.ScenarioConsiderable})
	gt.Value(t, batch.Statistics[5].Key()).Equal(model.EventKey{RiskID: "b", Scenario: types.ScenarioExtreme})

	stored, err := uc.Statistics.List(context.Background())
	gt.NoError(t, err).Required()
	gt.A(t, stored).Length(6)
}

func TestRunBatch_SkipsInertPairs(t *testing.T) {
	snapshot := &model.CatalogueSnapshot{
		Risks: []model.RiskSnapshot{
			riskSnapshot("a", 100, 0),
			{ID: "inert", Name: "No estimates"},
		},
	}
	opts := testOptions()
	opts.MaxRuns = 5

	batch, err := usecase.New(memory.New(), usecase.WithSimulationOptions(opts)).Simulation.RunBatch(context.Background(), snapshot)
	gt.NoError(t, err).Required()
	gt.A(t, batch.Statistics).Length(3)
	for _, rec := range batch.Statistics {
		gt.Value(t, rec.RiskID).Equal(types.RiskID("a"))
	}
}

func TestRunBatch_ActorIsSimulatedAsRoot(t *testing.T) {
	actor := riskSnapshot("hackers", 0, 0)
	actor.Type = string(types.RiskTypeActor)
	snapshot := &model.CatalogueSnapshot{
		Risks:    []model.RiskSnapshot{actor, riskSnapshot("a", 100, 0)},
		Cascades: []model.CascadeSnapshot{certainCascade("hackers", "a")},
	}
	opts := testOptions()
	opts.MaxRuns = 5
	opts.RiskIDs = []types.RiskID{"hackers"}

	batch, err := usecase.New(memory.New(), usecase.WithSimulationOptions(opts)).Simulation.RunBatch(context.Background(), snapshot)
	gt.NoError(t, err).Required()

	// only the scenario with a firing cascade is a root
	gt.A(t, batch.Statistics).Length(1)
	rec := batch.Statistics[0]
	gt.Value(t, rec.Key()).Equal(model.EventKey{RiskID: "hackers", Scenario: types.ScenarioMajor})
	gt.Value(t, rec.Impact.SampleMean.Fa).Equal(100.0)
	gt.A(t, rec.CascadeTree.Children).Length(1)
	gt.Value(t, rec.CascadeTree.Children[0].Key).Equal(model.EventKey{RiskID: "a", Scenario: types.ScenarioMajor})
	gt.Value(t, rec.CascadeTree.Children[0].OccurrenceRate).Equal(1.0)
}

func TestRunBatch_LoadsStoredCatalogue(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	opts := testOptions()
	opts.MaxRuns = 10

	uc := usecase.New(repo, usecase.WithSimulationOptions(opts))
	_, err := uc.Catalogue.Import(ctx, sampleCatalogue())
	gt.NoError(t, err).Required()

	batch, err := uc.Simulation.RunBatch(ctx, nil)
	gt.NoError(t, err).Required()
	gt.A(t, batch.Statistics).Length(6)
}

func TestRunBatch_DepthGuardAbortsBatch(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	snapshot := &model.CatalogueSnapshot{
		Risks: []model.RiskSnapshot{
			riskSnapshot("a", 1, 0),
			riskSnapshot("b", 1, 0),
			riskSnapshot("c", 1, 0),
		},
		Cascades: []model.CascadeSnapshot{certainCascade("a", "b"), certainCascade("b", "c")},
	}
	opts := testOptions()
	opts.MaxDepth = 1
	opts.MaxRuns = 10

	metrics := &recordingMetrics{}
	uc := usecase.New(repo, usecase.WithSimulationOptions(opts), usecase.WithMetrics(metrics))
	_, err := uc.Simulation.RunBatch(ctx, snapshot)
	gt.Error(t, err).Is(simulator.ErrCascadeDepthExceeded)
	gt.B(t, metrics.failures > 0).True()

	stored, err := repo.Statistics().List(ctx)
	gt.NoError(t, err).Required()
	gt.A(t, stored).Length(0)
}

func TestRunBatch_Errors(t *testing.T) {
	t.Run("empty catalogue", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithSimulationOptions(testOptions()))
		_, err := uc.Simulation.RunBatch(context.Background(), &model.CatalogueSnapshot{})
		gt.Error(t, err).Is(usecase.ErrEmptyCatalogue)
	})

	t.Run("invalid options", func(t *testing.T) {
		opts := testOptions()
		opts.MaxRuns = 0
		uc := usecase.New(memory.New(), usecase.WithSimulationOptions(opts))
		_, err := uc.Simulation.RunBatch(context.Background(), sampleCatalogue())
		gt.Error(t, err).Is(usecase.ErrInvalidOptions)
	})
}
