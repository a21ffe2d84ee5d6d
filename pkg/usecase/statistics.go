package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

type StatisticsUseCase struct {
	repo interfaces.Repository
}

func NewStatisticsUseCase(repo interfaces.Repository) *StatisticsUseCase {
	return &StatisticsUseCase{repo: repo}
}

func (uc *StatisticsUseCase) List(ctx context.Context) ([]*model.RiskStatistics, error) {
	stats, err := uc.repo.Statistics().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list statistics")
	}
	return stats, nil
}

func (uc *StatisticsUseCase) ListByRisk(ctx context.Context, riskID types.RiskID) ([]*model.RiskStatistics, error) {
	stats, err := uc.repo.Statistics().ListByRisk(ctx, riskID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list statistics", goerr.V("risk_id", riskID))
	}
	return stats, nil
}

// Get returns the record of (riskID, scenario). A missing record is
// reported as interfaces.ErrNotFound.
func (uc *StatisticsUseCase) Get(ctx context.Context, riskID types.RiskID, scenario types.Scenario) (*model.RiskStatistics, error) {
	stats, err := uc.repo.Statistics().Get(ctx, riskID, scenario)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get statistics",
			goerr.V("risk_id", riskID),
			goerr.V("scenario", scenario))
	}
	return stats, nil
}
