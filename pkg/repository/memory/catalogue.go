package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
)

type catalogueRepository struct {
	mu       sync.RWMutex
	risks    map[string]model.RiskSnapshot
	cascades map[string]model.CascadeSnapshot
}

func newCatalogueRepository() *catalogueRepository {
	return &catalogueRepository{
		risks:    make(map[string]model.RiskSnapshot),
		cascades: make(map[string]model.CascadeSnapshot),
	}
}

func (r *catalogueRepository) PutRisks(ctx context.Context, risks []model.RiskSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, risk := range risks {
		r.risks[risk.ID] = copyRisk(risk)
	}
	return nil
}

func (r *catalogueRepository) PutCascades(ctx context.Context, cascades []model.CascadeSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cascade := range cascades {
		r.cascades[cascade.ID] = copyCascade(cascade)
	}
	return nil
}

func (r *catalogueRepository) ListRisks(ctx context.Context) ([]model.RiskSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Collect(maps.Keys(r.risks))
	sort.Strings(ids)

	risks := make([]model.RiskSnapshot, 0, len(ids))
	for _, id := range ids {
		risks = append(risks, copyRisk(r.risks[id]))
	}
	return risks, nil
}

func (r *catalogueRepository) ListCascades(ctx context.Context) ([]model.CascadeSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Collect(maps.Keys(r.cascades))
	sort.Strings(ids)

	cascades := make([]model.CascadeSnapshot, 0, len(ids))
	for _, id := range ids {
		cascades = append(cascades, copyCascade(r.cascades[id]))
	}
	return cascades, nil
}

// copyRisk returns a copy that shares no maps or slices with s
func copyRisk(s model.RiskSnapshot) model.RiskSnapshot {
	out := s
	if s.Scenarios != nil {
		out.Scenarios = make([]model.RiskScenarioSnapshot, len(s.Scenarios))
		for i, sc := range s.Scenarios {
			out.Scenarios[i] = sc
			out.Scenarios[i].DirectImpact = maps.Clone(sc.DirectImpact)
		}
	}
	return out
}

func copyCascade(s model.CascadeSnapshot) model.CascadeSnapshot {
	out := s
	if s.Probabilities != nil {
		out.Probabilities = make(map[string]map[string]float64, len(s.Probabilities))
		for k, row := range s.Probabilities {
			out.Probabilities[k] = maps.Clone(row)
		}
	}
	return out
}
