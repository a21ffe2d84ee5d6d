package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/repository/firestore"
	"github.com/secmon-lab/riskcascade/pkg/repository/memory"
)

func newStatistics(riskID types.RiskID, scenario types.Scenario, mean float64) *model.RiskStatistics {
	return &model.RiskStatistics{
		BatchID:  model.NewBatchID(),
		RiskID:   riskID,
		Scenario: scenario,
		Probability: &model.ProbabilityStatistics{
			NumSamples:  100,
			Appearances: 12,
			SampleMean:  0.12,
		},
		Impact: &model.ImpactStatistics{
			SampleSize: 10,
			SampleMean: model.NewImpacts(map[types.DamageIndicator]float64{types.IndicatorFa: mean}),
			Contributions: []model.ImpactContribution{
				{Key: model.DirectContributionKey, Count: 10, ContributionMean: 1},
			},
		},
		Convergence: model.Convergence{Runs: 10, Converged: true},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func runRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("PutRisks and ListRisks round trip ordered by ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		risks := []model.RiskSnapshot{
			{
				ID:   "power-outage",
				Name: "Power outage",
				Scenarios: []model.RiskScenarioSnapshot{
					{Scenario: "major", YearlyProbability: 0.2, DirectImpact: map[string]float64{"fb": 750_000}},
				},
			},
			{ID: "flood", Name: "River flood", Category: "natural", Type: "standard"},
		}
		gt.NoError(t, repo.Catalogue().PutRisks(ctx, risks)).Required()

		got, err := repo.Catalogue().ListRisks(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(2)
		gt.Value(t, got[0].ID).Equal("flood")
		gt.Value(t, got[0].Category).Equal("natural")
		gt.Value(t, got[1].ID).Equal("power-outage")
		gt.A(t, got[1].Scenarios).Length(1)
		gt.Value(t, got[1].Scenarios[0].YearlyProbability).Equal(0.2)
		gt.Value(t, got[1].Scenarios[0].DirectImpact["fb"]).Equal(750_000.0)
	})

	t.Run("PutRisks overwrites by ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Catalogue().PutRisks(ctx, []model.RiskSnapshot{{ID: "flood", Name: "old"}})).Required()
		gt.NoError(t, repo.Catalogue().PutRisks(ctx, []model.RiskSnapshot{{ID: "flood", Name: "new"}})).Required()

		got, err := repo.Catalogue().ListRisks(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(1)
		gt.Value(t, got[0].Name).Equal("new")
	})

	t.Run("PutCascades and ListCascades round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		cascades := []model.CascadeSnapshot{
			{
				ID:       "flood-power-outage",
				CauseID:  "flood",
				EffectID: "power-outage",
				Probabilities: map[string]map[string]float64{
					"major": {"considerable": 0.2, "major": 0.1},
				},
			},
		}
		gt.NoError(t, repo.Catalogue().PutCascades(ctx, cascades)).Required()

		got, err := repo.Catalogue().ListCascades(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, got).Length(1)
		gt.Value(t, got[0].CauseID).Equal("flood")
		gt.Value(t, got[0].Probabilities["major"]["considerable"]).Equal(0.2)
	})

	t.Run("Put and Get statistics", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		stats := newStatistics("flood", types.ScenarioMajor, 1000)
		gt.NoError(t, repo.Statistics().Put(ctx, stats)).Required()

		got, err := repo.Statistics().Get(ctx, "flood", types.ScenarioMajor)
		gt.NoError(t, err).Required()
		gt.Value(t, got.BatchID).Equal(stats.BatchID)
		gt.Value(t, got.Impact.SampleMean.Fa).Equal(1000.0)
		gt.Value(t, got.Impact.SampleMean.All).Equal(1000.0)
		gt.Value(t, got.Probability.Appearances).Equal(12)
		gt.B(t, got.Convergence.Converged).True()
		gt.B(t, got.CreatedAt.Equal(stats.CreatedAt)).True()
	})

	t.Run("Put replaces the record of the same pair", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.Statistics().Put(ctx, newStatistics("flood", types.ScenarioMajor, 1000))).Required()
		gt.NoError(t, repo.Statistics().Put(ctx, newStatistics("flood", types.ScenarioMajor, 2000))).Required()

		got, err := repo.Statistics().Get(ctx, "flood", types.ScenarioMajor)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Impact.SampleMean.Fa).Equal(2000.0)
	})

	t.Run("Get returns error for missing record", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Statistics().Get(context.Background(), "missing", types.ScenarioMajor)
		gt.Value(t, err).NotNil()
	})

	t.Run("List and ListByRisk are ordered", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, s := range []*model.RiskStatistics{
			newStatistics("flood", types.ScenarioExtreme, 3),
			newStatistics("power-outage", types.ScenarioMajor, 4),
			newStatistics("flood", types.ScenarioConsiderable, 1),
			newStatistics("flood", types.ScenarioMajor, 2),
		} {
			gt.NoError(t, repo.Statistics().Put(ctx, s)).Required()
		}

		all, err := repo.Statistics().List(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(4)
		gt.Value(t, all[0].Key()).Equal(model.EventKey{RiskID: "flood", Scenario: types.ScenarioConsiderable})
		gt.Value(t, all[2].Key()).Equal(model.EventKey{RiskID: "flood", Scenario: types.ScenarioExtreme})
		gt.Value(t, all[3].RiskID).Equal(types.RiskID("power-outage"))

		flood, err := repo.Statistics().ListByRisk(ctx, "flood")
		gt.NoError(t, err).Required()
		gt.A(t, flood).Length(3)
		gt.Value(t, flood[1].Scenario).Equal(types.ScenarioMajor)

		none, err := repo.Statistics().ListByRisk(ctx, "missing")
		gt.NoError(t, err).Required()
		gt.A(t, none).Length(0)
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreRepository(t *testing.T) {
	runRepositoryTest(t, newFirestoreRepository)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	repo := memory.New()
	_, err := repo.Statistics().Get(context.Background(), "missing", types.ScenarioMajor)
	gt.Error(t, err).Is(memory.ErrNotFound)
}
