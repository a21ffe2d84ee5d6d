package simulator

import (
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

// CheckEffectTriggered is exported for testing
func (s *Simulator) CheckEffectTriggered(cascade *model.RiskCascade, causingEvent *model.RiskEvent) (types.Scenario, bool) {
	return s.checkEffectTriggered(cascade, causingEvent)
}

// CalculateDirectImpact is exported for testing
var CalculateDirectImpact = (*Simulator).calculateDirectImpact
