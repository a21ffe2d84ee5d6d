package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/utils/errutil"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
)

// BatchRunner runs one simulation batch on the stored catalogue
type BatchRunner interface {
	RunBatch(ctx context.Context, snapshot *model.CatalogueSnapshot) (*model.Batch, error)
}

// BatchWorker re-runs the simulation batch periodically so stored
// statistics follow catalogue updates.
//
// Assumes a single server instance; there is no distributed locking.
type BatchWorker struct {
	runner   BatchRunner
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewBatchWorker creates a worker running a batch every interval
func NewBatchWorker(runner BatchRunner, interval time.Duration) *BatchWorker {
	return &BatchWorker{
		runner:   runner,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background loop. The first batch runs immediately in
// the background and does not block the caller.
func (w *BatchWorker) Start(ctx context.Context) {
	logging.Default().Info("Batch worker starting", "interval", w.interval.String())
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for the running batch to finish
func (w *BatchWorker) Stop() {
	logging.Default().Info("Batch worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Batch worker stopped")
}

func (w *BatchWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Batch worker context cancelled")
			return
		}
	}
}

// runOnce runs a single batch; failures are reported and retried next interval
func (w *BatchWorker) runOnce(ctx context.Context) {
	start := time.Now()
	batch, err := w.runner.RunBatch(ctx, nil)
	if err != nil {
		_ = errutil.Handle(ctx, err, "scheduled batch failed (will retry next interval)")
		return
	}

	logging.Default().Info("Scheduled batch completed",
		"batch_id", batch.ID,
		"records", len(batch.Statistics),
		"not_converged", len(batch.NotConverged),
		"duration", time.Since(start).String())
}
