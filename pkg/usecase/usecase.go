package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
)

// BatchExporter writes a finished batch somewhere outside the repository
type BatchExporter interface {
	Export(ctx context.Context, batch *model.Batch) (string, error)
}

type UseCases struct {
	repo     interfaces.Repository
	opts     model.SimulationOptions
	metrics  interfaces.MetricsRecorder
	progress interfaces.ProgressFunc
	exporter BatchExporter

	Catalogue  *CatalogueUseCase
	Simulation *SimulationUseCase
	Statistics *StatisticsUseCase
}

type Option func(*UseCases)

func WithSimulationOptions(opts model.SimulationOptions) Option {
	return func(uc *UseCases) {
		uc.opts = opts
	}
}

func WithMetrics(m interfaces.MetricsRecorder) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

func WithProgress(fn interfaces.ProgressFunc) Option {
	return func(uc *UseCases) {
		uc.progress = fn
	}
}

func WithExporter(e BatchExporter) Option {
	return func(uc *UseCases) {
		uc.exporter = e
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:    repo,
		opts:    model.DefaultSimulationOptions(),
		metrics: noopMetrics{},
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Catalogue = NewCatalogueUseCase(repo)
	uc.Simulation = NewSimulationUseCase(repo, uc.opts, uc.metrics, uc.progress, uc.exporter)
	uc.Statistics = NewStatisticsUseCase(repo)

	return uc
}

type noopMetrics struct{}

func (noopMetrics) RecordRun(string) {}
func (noopMetrics) RecordSimulation(model.EventKey, model.Convergence, time.Duration) {}
func (noopMetrics) RecordFailure(model.EventKey) {}
func (noopMetrics) RecordBatch(int, time.Duration) {}
