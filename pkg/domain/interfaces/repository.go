package interfaces

import (
	"context"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Catalogue() CatalogueRepository
	Statistics() StatisticsRepository
	Close() error
}

// CatalogueRepository stores the input snapshots of the risk catalogue
type CatalogueRepository interface {
	// PutRisks upserts risk snapshots by ID
	PutRisks(ctx context.Context, risks []model.RiskSnapshot) error
	// PutCascades upserts cascade snapshots by ID
	PutCascades(ctx context.Context, cascades []model.CascadeSnapshot) error
	// ListRisks returns all risk snapshots ordered by ID
	ListRisks(ctx context.Context) ([]model.RiskSnapshot, error)
	// ListCascades returns all cascade snapshots ordered by ID
	ListCascades(ctx context.Context) ([]model.CascadeSnapshot, error)
}

// StatisticsRepository stores the latest statistics record of every
// (risk, scenario)
type StatisticsRepository interface {
	// Put replaces the record of stats.Key()
	Put(ctx context.Context, stats *model.RiskStatistics) error
	// Get returns the record of (riskID, scenario)
	Get(ctx context.Context, riskID types.RiskID, scenario types.Scenario) (*model.RiskStatistics, error)
	// List returns all records ordered by key
	List(ctx context.Context) ([]*model.RiskStatistics, error)
	// ListByRisk returns the records of one risk ordered by scenario severity
	ListByRisk(ctx context.Context, riskID types.RiskID) ([]*model.RiskStatistics, error)
}
