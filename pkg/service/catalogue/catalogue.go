// Package catalogue builds the immutable risk/cascade graph consumed by the
// simulator. Causes and effects are referenced by identifier only.
package catalogue

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/scale"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
)

// Catalogue is a read-only index of risks and cascades. It is safe for
// concurrent use once built.
type Catalogue struct {
	risks     map[types.RiskID]*model.Risk
	riskOrder []types.RiskID
	actors    []types.RiskID

	cascades     map[types.CascadeID]*model.RiskCascade
	cascadeOrder []types.CascadeID
	byCause      map[types.RiskID][]types.CascadeID
	dropped      []types.CascadeID
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Build converts snapshots into a catalogue. Cascades whose cause or effect
// cannot be resolved are dropped and reported by Dropped.
func Build(ctx context.Context, risks []model.RiskSnapshot, cascades []model.CascadeSnapshot) (*Catalogue, error) {
	c := &Catalogue{
		risks:    make(map[types.RiskID]*model.Risk, len(risks)),
		cascades: make(map[types.CascadeID]*model.RiskCascade, len(cascades)),
		byCause:  make(map[types.RiskID][]types.CascadeID),
	}

	for i := range risks {
		risk, err := buildRisk(&risks[i])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build risk", goerr.V("index", i), goerr.V("id", risks[i].ID))
		}
		if _, exists := c.risks[risk.ID]; exists {
			return nil, goerr.Wrap(ErrDuplicateRisk, "risk defined twice", goerr.V("id", risk.ID))
		}
		c.risks[risk.ID] = risk
		c.riskOrder = append(c.riskOrder, risk.ID)
		if risk.IsActor() {
			c.actors = append(c.actors, risk.ID)
		}
	}

	logger := logging.From(ctx)
	for i := range cascades {
		cascade, err := buildCascade(&cascades[i])
		if err != nil {
			return nil, goerr.Wrap(err, "failed to build cascade", goerr.V("index", i), goerr.V("id", cascades[i].ID))
		}
		if _, exists := c.cascades[cascade.ID]; exists {
			return nil, goerr.Wrap(ErrDuplicateCascade, "cascade defined twice", goerr.V("id", cascade.ID))
		}

		_, causeFound := c.risks[cascade.CauseID]
		_, effectFound := c.risks[cascade.EffectID]
		if !causeFound || !effectFound {
			logger.Debug("dropping cascade with unresolved risk",
				slog.String("cascade_id", cascade.ID.String()),
				slog.String("cause_id", cascade.CauseID.String()),
				slog.String("effect_id", cascade.EffectID.String()),
				slog.Bool("cause_found", causeFound),
				slog.Bool("effect_found", effectFound),
			)
			c.dropped = append(c.dropped, cascade.ID)
			continue
		}

		c.cascades[cascade.ID] = cascade
		c.cascadeOrder = append(c.cascadeOrder, cascade.ID)
		c.byCause[cascade.CauseID] = append(c.byCause[cascade.CauseID], cascade.ID)
	}

	return c, nil
}

func buildRisk(s *model.RiskSnapshot) (*model.Risk, error) {
	if err := validate.Struct(s); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshot, "snapshot validation failed", goerr.V("reason", err.Error()))
	}
	id := types.RiskID(s.ID)
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshot, "snapshot validation failed", goerr.V("reason", err.Error()))
	}
	riskType, err := types.ParseRiskType(s.Type)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshot, "snapshot validation failed", goerr.V("reason", err.Error()))
	}

	risk := &model.Risk{
		ID:       id,
		Name:     s.Name,
		Category: types.CategoryID(s.Category),
		Type:     riskType,
	}

	seen := make(map[types.Scenario]bool)
	for _, ss := range s.Scenarios {
		scenario := types.Scenario(ss.Scenario)
		if seen[scenario] {
			return nil, goerr.Wrap(ErrInvalidSnapshot, "scenario defined twice", goerr.V("scenario", scenario))
		}
		seen[scenario] = true

		values := make(map[types.DamageIndicator]float64, len(ss.DirectImpact))
		for k, v := range ss.DirectImpact {
			values[types.DamageIndicator(k)] = v
		}
		risk.DirectImpact[scenario.Index()] = model.NewImpacts(values)

		switch {
		case ss.YearlyProbability > 0:
			risk.Probability[scenario.Index()] = ss.YearlyProbability
		case ss.ReturnPeriodMonths > 0:
			risk.Probability[scenario.Index()] = scale.YearlyProbabilityFromReturnPeriodMonths(ss.ReturnPeriodMonths)
		}
	}

	return risk, nil
}

func buildCascade(s *model.CascadeSnapshot) (*model.RiskCascade, error) {
	if err := validate.Struct(s); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshot, "snapshot validation failed", goerr.V("reason", err.Error()))
	}
	id := types.CascadeID(s.ID)
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshot, "snapshot validation failed", goerr.V("reason", err.Error()))
	}

	cascade := &model.RiskCascade{
		ID:       id,
		CauseID:  types.RiskID(s.CauseID),
		EffectID: types.RiskID(s.EffectID),
	}
	for cause, row := range s.Probabilities {
		ci := types.Scenario(cause).Index()
		for effect, p := range row {
			cascade.Probabilities[ci][types.Scenario(effect).Index()] = p
		}
	}
	return cascade, nil
}

// Risk returns the risk with id
func (c *Catalogue) Risk(id types.RiskID) (*model.Risk, bool) {
	r, ok := c.risks[id]
	return r, ok
}

// Risks returns all risks in input order
func (c *Catalogue) Risks() []*model.Risk {
	out := make([]*model.Risk, len(c.riskOrder))
	for i, id := range c.riskOrder {
		out[i] = c.risks[id]
	}
	return out
}

// Actors returns the identifiers of actor risks. The list is informational:
// every risk, actor or not, is already simulated as a root, so batches do
// not consult it.
func (c *Catalogue) Actors() []types.RiskID {
	return append([]types.RiskID(nil), c.actors...)
}

// Cascade returns the cascade with id
func (c *Catalogue) Cascade(id types.CascadeID) (*model.RiskCascade, bool) {
	cs, ok := c.cascades[id]
	return cs, ok
}

// Cascades returns all resolved cascades in input order
func (c *Catalogue) Cascades() []*model.RiskCascade {
	out := make([]*model.RiskCascade, len(c.cascadeOrder))
	for i, id := range c.cascadeOrder {
		out[i] = c.cascades[id]
	}
	return out
}

// CascadesFrom returns the cascades whose cause is riskID, in input order
func (c *Catalogue) CascadesFrom(riskID types.RiskID) []*model.RiskCascade {
	ids := c.byCause[riskID]
	out := make([]*model.RiskCascade, len(ids))
	for i, id := range ids {
		out[i] = c.cascades[id]
	}
	return out
}

// Dropped returns the cascades skipped because of unresolved risks
func (c *Catalogue) Dropped() []types.CascadeID {
	return append([]types.CascadeID(nil), c.dropped...)
}
