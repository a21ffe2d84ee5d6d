package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

type statisticsRepository struct {
	mu    sync.RWMutex
	stats map[model.EventKey]*model.RiskStatistics
}

func newStatisticsRepository() *statisticsRepository {
	return &statisticsRepository{
		stats: make(map[model.EventKey]*model.RiskStatistics),
	}
}

func (r *statisticsRepository) Put(ctx context.Context, stats *model.RiskStatistics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *stats
	r.stats[stats.Key()] = &copied
	return nil
}

func (r *statisticsRepository) Get(ctx context.Context, riskID types.RiskID, scenario types.Scenario) (*model.RiskStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := model.EventKey{RiskID: riskID, Scenario: scenario}
	stats, ok := r.stats[key]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "statistics not found",
			goerr.V("risk_id", riskID),
			goerr.V("scenario", scenario))
	}

	// Return a copy to prevent external modification
	copied := *stats
	return &copied, nil
}

func (r *statisticsRepository) List(ctx context.Context) ([]*model.RiskStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.RiskStatistics, 0, len(r.stats))
	for _, stats := range r.stats {
		copied := *stats
		result = append(result, &copied)
	}
	sortStatistics(result)
	return result, nil
}

func (r *statisticsRepository) ListByRisk(ctx context.Context, riskID types.RiskID) ([]*model.RiskStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.RiskStatistics
	for _, s := range types.AllScenarios() {
		if stats, ok := r.stats[model.EventKey{RiskID: riskID, Scenario: s}]; ok {
			copied := *stats
			result = append(result, &copied)
		}
	}
	return result, nil
}

func sortStatistics(stats []*model.RiskStatistics) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RiskID != stats[j].RiskID {
			return stats[i].RiskID < stats[j].RiskID
		}
		return stats[i].Scenario.Index() < stats[j].Scenario.Index()
	})
}
