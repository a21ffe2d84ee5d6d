package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/catalogue"
	"github.com/secmon-lab/riskcascade/pkg/service/scale"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Driver runs the simulator repeatedly for one root (risk, scenario) until
// the running log-impact estimate converges or the run budget is spent.
type Driver struct {
	catalogue *catalogue.Catalogue
	opts      model.SimulationOptions
	progress  interfaces.ProgressFunc
	onRun     func(scenario types.Scenario)
}

// DriverOption configures a Driver
type DriverOption func(*Driver)

// WithProgress sets the progress callback. It is invoked once per run
// with the 1-based run count.
func WithProgress(fn interfaces.ProgressFunc) DriverOption {
	return func(d *Driver) {
		d.progress = fn
	}
}

// WithRunHook sets a function called after every completed run
func WithRunHook(fn func(scenario types.Scenario)) DriverOption {
	return func(d *Driver) {
		d.onRun = fn
	}
}

// NewDriver creates a Driver over an immutable catalogue
func NewDriver(c *catalogue.Catalogue, opts model.SimulationOptions, options ...DriverOption) *Driver {
	d := &Driver{
		catalogue: c,
		opts:      opts,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Result is the outcome of driving one (risk, scenario) pair
type Result struct {
	Key         model.EventKey
	Events      []*model.RiskEvent
	Average     *model.AverageRiskEvent
	Convergence model.Convergence
}

// accumulator holds the running statistics of one driver or worker
type accumulator struct {
	welford Welford
	average *model.AverageRiskEvent
	events  []*model.RiskEvent
}

func newAccumulator(key model.EventKey) *accumulator {
	return &accumulator{average: model.NewAverageRiskEvent(key)}
}

func (a *accumulator) add(ev *model.RiskEvent) {
	a.welford.Add(scale.IScale7FromEuros(ev.TotalImpact.All, 0))
	a.average.Fold(ev)
	a.events = append(a.events, ev)
}

func (a *accumulator) merge(o *accumulator) {
	a.welford.Merge(o.welford)
	a.average.Merge(o.average)
	a.events = append(a.events, o.events...)
}

// convergence uses the sample deviation of the per-run log impact as cv
func (a *accumulator) convergence(opts model.SimulationOptions) model.Convergence {
	cv := a.welford.Std()
	return model.Convergence{
		Runs:      a.welford.N,
		Mean:      a.welford.Mean,
		CV:        cv,
		Converged: a.welford.N > opts.MinRuns && cv < opts.RelStd,
	}
}

func (a *accumulator) done(opts model.SimulationOptions) bool {
	return a.convergence(opts).Converged || a.welford.N >= opts.MaxRuns
}

// Run simulates (risk, scenario) until convergence or MaxRuns. Hitting
// MaxRuns is reported through Result.Convergence; a depth overflow aborts
// the whole pair.
func (d *Driver) Run(ctx context.Context, risk *model.Risk, scenario types.Scenario) (*Result, error) {
	key := model.EventKey{RiskID: risk.ID, Scenario: scenario}

	var acc *accumulator
	var err error
	if d.opts.Workers > 1 {
		acc, err = d.runParallel(ctx, risk, scenario, key)
	} else {
		acc, err = d.runSequential(ctx, risk, scenario, key)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to simulate risk scenario",
			goerr.V("risk_id", risk.ID),
			goerr.V("scenario", scenario))
	}

	conv := acc.convergence(d.opts)
	logging.From(ctx).Debug("simulation finished",
		"risk_id", risk.ID,
		"scenario", scenario,
		"runs", conv.Runs,
		"cv", conv.CV,
		"converged", conv.Converged,
	)

	return &Result{
		Key:         key,
		Events:      acc.events,
		Average:     acc.average,
		Convergence: conv,
	}, nil
}

func (d *Driver) runSequential(ctx context.Context, risk *model.Risk, scenario types.Scenario, key model.EventKey) (*accumulator, error) {
	sim := New(d.catalogue, NewRNG(d.opts.Seed, streamOf(key.String(), 0)), WithSimulationOptions(d.opts))
	acc := newAccumulator(key)

	for !acc.done(d.opts) {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "simulation cancelled", goerr.V("runs", acc.welford.N))
		}
		ev, err := sim.Trigger(ctx, risk, scenario)
		if err != nil {
			return nil, goerr.Wrap(err, "simulation run failed", goerr.V("run", acc.welford.N+1))
		}
		acc.add(ev)
		d.notify(key, scenario, acc.welford.N)
	}
	return acc, nil
}

// runParallel runs rounds of one run per worker. Partial accumulators are
// merged in worker order so the result depends only on seed and worker count.
func (d *Driver) runParallel(ctx context.Context, risk *model.Risk, scenario types.Scenario, key model.EventKey) (*accumulator, error) {
	workers := d.opts.Workers
	sims := make([]*Simulator, workers)
	for w := range sims {
		sims[w] = New(d.catalogue, NewRNG(d.opts.Seed, streamOf(key.String(), w)), WithSimulationOptions(d.opts))
	}

	acc := newAccumulator(key)
	for !acc.done(d.opts) {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "simulation cancelled", goerr.V("runs", acc.welford.N))
		}
		n := min(workers, d.opts.MaxRuns-acc.welford.N)
		partials := make([]*accumulator, n)

		eg, egCtx := errgroup.WithContext(ctx)
		for w := 0; w < n; w++ {
			eg.Go(func() error {
				ev, err := sims[w].Trigger(egCtx, risk, scenario)
				if err != nil {
					return goerr.Wrap(err, "simulation run failed", goerr.V("worker", w))
				}
				partials[w] = newAccumulator(key)
				partials[w].add(ev)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		for _, p := range partials {
			acc.merge(p)
			d.notify(key, scenario, acc.welford.N)
		}
	}
	return acc, nil
}

func (d *Driver) notify(key model.EventKey, scenario types.Scenario, run int) {
	if d.onRun != nil {
		d.onRun(scenario)
	}
	if d.progress != nil {
		d.progress(fmt.Sprintf("simulated %s run %d", key, run), run)
	}
}

// YearFolder consumes the events realized in one sampled year
type YearFolder interface {
	AddYear(forest []*model.RiskEvent)
}

// SampleYears simulates opts.YearlySamples independent years. In each year
// every (risk, scenario) with a positive yearly probability occurs
// spontaneously with that probability and, if it does, realizes a full
// event tree. Years are split across workers, each folding into its own
// folder; the folders are returned in worker order for the caller to merge.
func SampleYears[F YearFolder](ctx context.Context, d *Driver, newFolder func() F) ([]F, error) {
	workers := max(1, min(d.opts.Workers, d.opts.YearlySamples))
	folders := make([]F, workers)
	for w := range folders {
		folders[w] = newFolder()
	}
	if d.opts.YearlySamples == 0 {
		return folders, nil
	}

	progress := d.progress
	if progress != nil && workers > 1 {
		var mu sync.Mutex
		inner := progress
		progress = func(msg string, run int) {
			mu.Lock()
			defer mu.Unlock()
			inner(msg, run)
		}
	}

	risks := d.catalogue.Risks()
	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			rng := NewRNG(d.opts.Seed, streamOf("yearly", w))
			sim := New(d.catalogue, rng, WithSimulationOptions(d.opts))

			for year := w; year < d.opts.YearlySamples; year += workers {
				if err := egCtx.Err(); err != nil {
					return goerr.Wrap(err, "yearly sampling cancelled", goerr.V("year", year))
				}
				var forest []*model.RiskEvent
				for _, risk := range risks {
					for _, s := range types.AllScenarios() {
						p := risk.ProbabilityOf(s)
						if p <= 0 || rng.Float64() >= p {
							continue
						}
						ev, err := sim.Trigger(egCtx, risk, s)
						if err != nil {
							return goerr.Wrap(err, "yearly sample failed", goerr.V("year", year))
						}
						forest = append(forest, ev)
					}
				}
				folders[w].AddYear(forest)
				if progress != nil {
					progress(fmt.Sprintf("sampled year %d", year+1), year+1)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return folders, nil
}
