package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/catalogue"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
)

type CatalogueUseCase struct {
	repo interfaces.Repository
}

func NewCatalogueUseCase(repo interfaces.Repository) *CatalogueUseCase {
	return &CatalogueUseCase{repo: repo}
}

// CatalogueReport summarizes a built catalogue
type CatalogueReport struct {
	Risks    int
	Cascades int
	Actors   []types.RiskID
	Dropped  []types.CascadeID
}

func report(c *catalogue.Catalogue) *CatalogueReport {
	return &CatalogueReport{
		Risks:    len(c.Risks()),
		Cascades: len(c.Cascades()),
		Actors:   c.Actors(),
		Dropped:  c.Dropped(),
	}
}

// Validate builds the catalogue without storing it
func (uc *CatalogueUseCase) Validate(ctx context.Context, snapshot *model.CatalogueSnapshot) (*CatalogueReport, error) {
	c, err := catalogue.Build(ctx, snapshot.Risks, snapshot.Cascades)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build catalogue")
	}
	return report(c), nil
}

// Import validates the snapshot and stores it in the repository
func (uc *CatalogueUseCase) Import(ctx context.Context, snapshot *model.CatalogueSnapshot) (*CatalogueReport, error) {
	c, err := catalogue.Build(ctx, snapshot.Risks, snapshot.Cascades)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build catalogue")
	}

	if err := uc.repo.Catalogue().PutRisks(ctx, snapshot.Risks); err != nil {
		return nil, goerr.Wrap(err, "failed to store risks")
	}
	if err := uc.repo.Catalogue().PutCascades(ctx, snapshot.Cascades); err != nil {
		return nil, goerr.Wrap(err, "failed to store cascades")
	}

	logging.From(ctx).Info("catalogue imported",
		"risks", len(snapshot.Risks),
		"cascades", len(snapshot.Cascades),
		"dropped", len(c.Dropped()),
	)
	return report(c), nil
}

// Load reads the stored catalogue snapshots
func (uc *CatalogueUseCase) Load(ctx context.Context) (*model.CatalogueSnapshot, error) {
	risks, err := uc.repo.Catalogue().ListRisks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	cascades, err := uc.repo.Catalogue().ListCascades(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cascades")
	}
	return &model.CatalogueSnapshot{Risks: risks, Cascades: cascades}, nil
}
