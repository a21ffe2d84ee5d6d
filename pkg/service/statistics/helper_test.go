package statistics_test

import (
	"math"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
)

func newEvent(id string, fa float64, children ...*model.RiskEvent) *model.RiskEvent {
	direct := model.NewImpacts(map[types.DamageIndicator]float64{types.IndicatorFa: fa})
	ev := &model.RiskEvent{
		Risk:          &model.Risk{ID: types.RiskID(id)},
		Scenario:      types.ScenarioMajor,
		DirectImpact:  direct,
		TotalImpact:   direct,
		Contributions: map[string]model.Impacts{model.DirectContributionKey: direct},
	}
	for _, child := range children {
		child.CausedBy = ev
		ev.TriggeredEvents = append(ev.TriggeredEvents, child)
		ev.TotalImpact = ev.TotalImpact.Add(child.TotalImpact)
		ev.Contributions[child.Key().String()] = child.TotalImpact
	}
	return ev
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
