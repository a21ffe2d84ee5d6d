package simulator

import (
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/catalogue"
	"github.com/secmon-lab/riskcascade/pkg/service/scale"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
)

const (
	// DefaultMaxDepth bounds the length of a causal chain
	DefaultMaxDepth = 50
	// DefaultNoiseStdDev is the elicitation noise on the 7-point scale
	DefaultNoiseStdDev = 0.255
)

// Simulator realizes random event trees from a catalogue. A Simulator is
// not safe for concurrent use because it owns its RNG; create one per
// worker and share the catalogue.
type Simulator struct {
	catalogue   *catalogue.Catalogue
	rng         RNG
	noiseStdDev float64
	maxDepth    int
	isTerminal  func(types.RiskID) bool
}

// Option configures a Simulator
type Option func(*Simulator)

// WithNoiseStdDev sets the standard deviation of the scale-space noise.
// Zero makes direct impacts deterministic.
func WithNoiseStdDev(sd float64) Option {
	return func(s *Simulator) {
		s.noiseStdDev = sd
	}
}

// WithMaxDepth sets the depth at which a run is aborted
func WithMaxDepth(depth int) Option {
	return func(s *Simulator) {
		s.maxDepth = depth
	}
}

// WithSimulationOptions applies the noise, depth and terminal risks of opts
func WithSimulationOptions(opts model.SimulationOptions) Option {
	return func(s *Simulator) {
		WithNoiseStdDev(opts.NoiseStdDev)(s)
		WithMaxDepth(opts.MaxDepth)(s)
		s.isTerminal = opts.IsTerminal
	}
}

// New creates a Simulator drawing from rng
func New(c *catalogue.Catalogue, rng RNG, opts ...Option) *Simulator {
	s := &Simulator{
		catalogue:   c,
		rng:         rng,
		noiseStdDev: DefaultNoiseStdDev,
		maxDepth:    DefaultMaxDepth,
		isTerminal:  func(types.RiskID) bool { return false },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trigger realizes one event tree rooted at (risk, scenario)
func (s *Simulator) Trigger(ctx context.Context, risk *model.Risk, scenario types.Scenario) (*model.RiskEvent, error) {
	return s.triggerRiskEvent(ctx, risk, scenario, nil, 0)
}

func (s *Simulator) triggerRiskEvent(ctx context.Context, risk *model.Risk, scenario types.Scenario, causingEvent *model.RiskEvent, depth int) (*model.RiskEvent, error) {
	direct := s.calculateDirectImpact(risk.DirectImpactOf(scenario))
	ev := &model.RiskEvent{
		Risk:         risk,
		Scenario:     scenario,
		CausedBy:     causingEvent,
		DirectImpact: direct,
		TotalImpact:  direct,
		Contributions: map[string]model.Impacts{
			model.DirectContributionKey: direct,
		},
	}

	if depth > s.maxDepth {
		chain := ev.ChainString()
		logging.From(ctx).Error("cascade depth exceeded", "depth", depth, "chain", chain)
		return nil, goerr.Wrap(ErrCascadeDepthExceeded, "aborting simulation run",
			goerr.V("depth", depth),
			goerr.V("max_depth", s.maxDepth),
			goerr.V("chain", chain))
	}

	if s.isTerminal(risk.ID) {
		return ev, nil
	}

	for _, cascade := range s.catalogue.CascadesFrom(risk.ID) {
		effectScenario, fired := s.checkEffectTriggered(cascade, ev)
		if !fired {
			continue
		}
		effect, ok := s.catalogue.Risk(cascade.EffectID)
		if !ok {
			continue
		}

		child, err := s.triggerRiskEvent(ctx, effect, effectScenario, ev, depth+1)
		if err != nil {
			return nil, err
		}

		ev.TriggeredEvents = append(ev.TriggeredEvents, child)
		ev.TotalImpact = ev.TotalImpact.Add(child.TotalImpact)

		key := child.Key().String()
		ev.Contributions[key] = ev.Contributions[key].Add(child.TotalImpact)
	}

	return ev, nil
}

// checkEffectTriggered decides whether cascade fires from causingEvent and
// into which effect scenario. The first draw decides whether anything
// happens at all; the second picks the severity with the row normalized
// by its sum, testing extreme first, then major, then considerable.
func (s *Simulator) checkEffectTriggered(cascade *model.RiskCascade, causingEvent *model.RiskEvent) (types.Scenario, bool) {
	if causingEvent.HasInChain(cascade.EffectID) {
		return "", false
	}

	row := cascade.Row(causingEvent.Scenario)
	noneProb, sum := 1.0, 0.0
	for _, p := range row {
		noneProb *= 1 - p
		sum += p
	}
	if sum <= 0 {
		return "", false
	}

	pAny := 1 - noneProb
	if s.rng.Float64() > pAny {
		return "", false
	}

	u := s.rng.Float64()
	cumulative := 0.0
	for i := types.NumScenarios - 1; i >= 0; i-- {
		p := row[i]
		if p <= 0 {
			continue
		}
		cumulative += p / sum
		if u < cumulative {
			return types.ScenarioAt(i), true
		}
	}

	// u is within rounding of 1; fall back to the least severe candidate
	for i := 0; i < types.NumScenarios; i++ {
		if row[i] > 0 {
			return types.ScenarioAt(i), true
		}
	}
	return "", false
}

// calculateDirectImpact perturbs every positive indicator with Gaussian
// noise on the 7-point scale, which is log-normal noise in euros
func (s *Simulator) calculateDirectImpact(estimate model.Impacts) model.Impacts {
	if s.noiseStdDev == 0 {
		return estimate.Map(func(_ types.DamageIndicator, v float64) float64 {
			return math.Max(0, v)
		})
	}

	return estimate.Map(func(_ types.DamageIndicator, v float64) float64 {
		if v <= 0 {
			return 0
		}
		sampled := scale.IScale7FromEuros(v, 0) + s.rng.NormFloat64()*s.noiseStdDev
		return scale.EurosFromIScale7(math.Max(0, sampled))
	})
}
