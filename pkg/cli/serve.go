package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/cli/config"
	httpctrl "github.com/secmon-lab/riskcascade/pkg/controller/http"
	"github.com/secmon-lab/riskcascade/pkg/metrics"
	"github.com/secmon-lab/riskcascade/pkg/service/worker"
	"github.com/secmon-lab/riskcascade/pkg/usecase"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"github.com/secmon-lab/riskcascade/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var enableBatches bool
	var batchInterval time.Duration
	var simCfg config.Simulation
	var repoCfg config.Repository
	var exportCfg config.Export

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RISKCASCADE_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "enable-batches",
			Usage:       "Accept POST /api/batches to run simulations on the stored catalogue",
			Sources:     cli.EnvVars("RISKCASCADE_ENABLE_BATCHES"),
			Destination: &enableBatches,
		},
		&cli.DurationFlag{
			Name:        "batch-interval",
			Usage:       "Run a batch on the stored catalogue at this interval (0 disables)",
			Sources:     cli.EnvVars("RISKCASCADE_BATCH_INTERVAL"),
			Destination: &batchInterval,
		},
	}
	flags = append(flags, simCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server for simulation statistics",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			opts, err := simCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load simulation config")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			registry := metrics.DefaultRegistry()
			ucOpts := []usecase.Option{
				usecase.WithSimulationOptions(opts),
				usecase.WithMetrics(registry),
			}

			exporter, err := exportCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if exporter != nil {
				defer safe.Close(ctx, exporter)
				ucOpts = append(ucOpts, usecase.WithExporter(exporter))
			}

			uc := usecase.New(repo, ucOpts...)

			httpOpts := []httpctrl.Options{
				httpctrl.WithMetrics(registry),
			}
			if enableBatches {
				httpOpts = append(httpOpts, httpctrl.WithSimulation(uc.Simulation))
				logging.Default().Info("Batch endpoint enabled")
			}

			var batchWorker *worker.BatchWorker
			if batchInterval > 0 {
				batchWorker = worker.NewBatchWorker(uc.Simulation, batchInterval)
				batchWorker.Start(ctx)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc.Statistics, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop batch worker first
				if batchWorker != nil {
					batchWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
