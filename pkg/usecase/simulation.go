package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/secmon-lab/riskcascade/pkg/service/catalogue"
	"github.com/secmon-lab/riskcascade/pkg/service/simulator"
	"github.com/secmon-lab/riskcascade/pkg/service/statistics"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

type SimulationUseCase struct {
	repo     interfaces.Repository
	opts     model.SimulationOptions
	metrics  interfaces.MetricsRecorder
	progress interfaces.ProgressFunc
	exporter BatchExporter
}

func NewSimulationUseCase(repo interfaces.Repository, opts model.SimulationOptions, metrics interfaces.MetricsRecorder, progress interfaces.ProgressFunc, exporter BatchExporter) *SimulationUseCase {
	return &SimulationUseCase{
		repo:     repo,
		opts:     opts,
		metrics:  metrics,
		progress: progress,
		exporter: exporter,
	}
}

// Options returns the simulation options used by RunBatch
func (uc *SimulationUseCase) Options() model.SimulationOptions {
	return uc.opts
}

// RunBatch simulates every selected (risk, scenario) of the catalogue and
// stores one statistics record per pair. When snapshot is nil the
// catalogue stored in the repository is used.
func (uc *SimulationUseCase) RunBatch(ctx context.Context, snapshot *model.CatalogueSnapshot) (*model.Batch, error) {
	return uc.run(ctx, model.NewBatchID(), snapshot)
}

// RunBatchWithID is RunBatch with a caller-assigned batch ID
func (uc *SimulationUseCase) RunBatchWithID(ctx context.Context, id model.BatchID, snapshot *model.CatalogueSnapshot) (*model.Batch, error) {
	return uc.run(ctx, id, snapshot)
}

type pair struct {
	risk     *model.Risk
	scenario types.Scenario
}

func (p pair) key() model.EventKey {
	return model.EventKey{RiskID: p.risk.ID, Scenario: p.scenario}
}

func (uc *SimulationUseCase) run(ctx context.Context, id model.BatchID, snapshot *model.CatalogueSnapshot) (*model.Batch, error) {
	if err := uc.opts.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidOptions, err.Error())
	}

	batch := &model.Batch{
		ID:        id,
		StartedAt: time.Now().UTC(),
	}
	logger := logging.From(ctx).With("batch_id", batch.ID)
	ctx = logging.With(ctx, logger)

	if snapshot == nil {
		loaded, err := NewCatalogueUseCase(uc.repo).Load(ctx)
		if err != nil {
			return nil, err
		}
		snapshot = loaded
	}

	cat, err := catalogue.Build(ctx, snapshot.Risks, snapshot.Cascades)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build catalogue", goerr.V("batch_id", batch.ID))
	}
	if len(cat.Risks()) == 0 {
		return nil, goerr.Wrap(ErrEmptyCatalogue, "nothing to simulate", goerr.V("batch_id", batch.ID))
	}

	progress := uc.syncProgress()
	pairs := uc.selectPairs(cat)
	logger.Info("simulation batch started",
		"risks", len(cat.Risks()),
		"cascades", len(cat.Cascades()),
		"pairs", len(pairs),
		"options", uc.opts,
	)

	probabilities, err := uc.sampleYears(ctx, cat, progress)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sample years", goerr.V("batch_id", batch.ID))
	}

	records, err := uc.simulatePairs(ctx, cat, pairs, probabilities, batch.ID, progress)
	if err != nil {
		return nil, goerr.Wrap(err, "simulation batch aborted", goerr.V("batch_id", batch.ID))
	}

	for _, rec := range records {
		if err := uc.repo.Statistics().Put(ctx, rec); err != nil {
			return nil, goerr.Wrap(err, "failed to store statistics",
				goerr.V("batch_id", batch.ID),
				goerr.V("key", rec.Key().String()))
		}
		if !rec.Convergence.Converged {
			batch.NotConverged = append(batch.NotConverged, rec.Key())
		}
	}

	batch.Statistics = records
	batch.FinishedAt = time.Now().UTC()
	uc.metrics.RecordBatch(len(records), batch.FinishedAt.Sub(batch.StartedAt))

	if len(batch.NotConverged) > 0 {
		logger.Warn("some simulations did not converge", "count", len(batch.NotConverged))
	}
	logger.Info("simulation batch finished",
		"records", len(records),
		"duration", batch.FinishedAt.Sub(batch.StartedAt),
	)

	if uc.exporter != nil {
		location, err := uc.exporter.Export(ctx, batch)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to export batch", goerr.V("batch_id", batch.ID))
		}
		logger.Info("batch exported", "location", location)
	}

	return batch, nil
}

// syncProgress serializes progress notifications of concurrent simulations
func (uc *SimulationUseCase) syncProgress() interfaces.ProgressFunc {
	if uc.progress == nil {
		return nil
	}
	var mu sync.Mutex
	return func(msg string, run int) {
		mu.Lock()
		defer mu.Unlock()
		uc.progress(msg, run)
	}
}

// selectPairs returns the (risk, scenario) pairs passing the filters that
// can produce any impact: a positive probability, a direct impact or an
// outgoing cascade able to fire from that scenario
func (uc *SimulationUseCase) selectPairs(cat *catalogue.Catalogue) []pair {
	var pairs []pair
	for _, risk := range cat.Risks() {
		cascades := cat.CascadesFrom(risk.ID)
		for _, s := range types.AllScenarios() {
			if !uc.opts.Includes(risk.ID, s) {
				continue
			}
			if risk.ProbabilityOf(s) == 0 && risk.DirectImpactOf(s).IsZero() && !canTrigger(cascades, s) {
				continue
			}
			pairs = append(pairs, pair{risk: risk, scenario: s})
		}
	}
	return pairs
}

func canTrigger(cascades []*model.RiskCascade, s types.Scenario) bool {
	for _, c := range cascades {
		for _, p := range c.Row(s) {
			if p > 0 {
				return true
			}
		}
	}
	return false
}

func (uc *SimulationUseCase) sampleYears(ctx context.Context, cat *catalogue.Catalogue, progress interfaces.ProgressFunc) (*statistics.ProbabilityAccumulator, error) {
	var opts []simulator.DriverOption
	if progress != nil {
		opts = append(opts, simulator.WithProgress(progress))
	}
	driver := simulator.NewDriver(cat, uc.opts, opts...)

	folders, err := simulator.SampleYears(ctx, driver, statistics.NewProbabilityAccumulator)
	if err != nil {
		return nil, err
	}

	merged := statistics.NewProbabilityAccumulator()
	for _, f := range folders {
		merged.Merge(f)
	}
	return merged, nil
}

func (uc *SimulationUseCase) simulatePairs(ctx context.Context, cat *catalogue.Catalogue, pairs []pair, probabilities *statistics.ProbabilityAccumulator, batchID model.BatchID, progress interfaces.ProgressFunc) ([]*model.RiskStatistics, error) {
	// Pairs fan out over workers; a lone pair uses the workers for its runs
	driverOpts := uc.opts
	if len(pairs) > 1 {
		driverOpts.Workers = 1
	}

	options := []simulator.DriverOption{
		simulator.WithRunHook(func(s types.Scenario) {
			uc.metrics.RecordRun(s.String())
		}),
	}
	if progress != nil {
		options = append(options, simulator.WithProgress(progress))
	}
	driver := simulator.NewDriver(cat, driverOpts, options...)

	records := make([]*model.RiskStatistics, len(pairs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.opts.Workers)

	for i, p := range pairs {
		eg.Go(func() error {
			key := p.key()
			start := time.Now()

			result, err := driver.Run(egCtx, p.risk, p.scenario)
			if err != nil {
				uc.metrics.RecordFailure(key)
				return err
			}

			tree := result.Average.Summary(uc.opts.TreeDepth)
			records[i] = &model.RiskStatistics{
				BatchID:     batchID,
				RiskID:      p.risk.ID,
				Scenario:    p.scenario,
				Probability: probabilities.Statistics(key),
				Impact:      statistics.Impact(result.Events, uc.opts.HistogramBinWidth),
				Convergence: result.Convergence,
				CascadeTree: &tree,
				CreatedAt:   time.Now().UTC(),
			}

			uc.metrics.RecordSimulation(key, result.Convergence, time.Since(start))
			if progress != nil {
				progress(fmt.Sprintf("finished %s after %d runs", key, result.Convergence.Runs), interfaces.NoRunIndex)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
