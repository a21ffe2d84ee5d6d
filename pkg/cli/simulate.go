package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/cli/config"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/metrics"
	"github.com/secmon-lab/riskcascade/pkg/usecase"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"github.com/secmon-lab/riskcascade/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSimulate() *cli.Command {
	var simCfg config.Simulation
	var catCfg config.Catalogue
	var repoCfg config.Repository
	var exportCfg config.Export
	var quiet bool

	var flags []cli.Flag
	flags = append(flags, simCfg.Flags()...)
	flags = append(flags, catCfg.Flags(false)...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "quiet",
		Aliases:     []string{"q"},
		Usage:       "Do not print the summary table",
		Sources:     cli.EnvVars("RISKCASCADE_QUIET"),
		Destination: &quiet,
	})

	return &cli.Command{
		Name:    "simulate",
		Aliases: []string{"sim"},
		Usage:   "Run a simulation batch and store the statistics",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			opts, err := simCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load simulation config")
			}
			snapshot, err := catCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load catalogue")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			ucOpts := []usecase.Option{
				usecase.WithSimulationOptions(opts),
				usecase.WithMetrics(metrics.DefaultRegistry()),
				usecase.WithProgress(logProgress),
			}

			exporter, err := exportCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if exporter != nil {
				defer safe.Close(ctx, exporter)
				ucOpts = append(ucOpts, usecase.WithExporter(exporter))
			}

			if snapshot == nil {
				logger.Info("No catalogue file given, using the stored catalogue", "backend", repoCfg.Backend())
			}

			uc := usecase.New(repo, ucOpts...)
			batch, err := uc.Simulation.RunBatch(ctx, snapshot)
			if err != nil {
				return goerr.Wrap(err, "simulation failed")
			}

			if !quiet {
				printSummary(os.Stdout, batch)
			}
			return nil
		},
	}
}

// logProgress reports finished simulations at info level and single runs
// at debug level
func logProgress(message string, runIndex int) {
	if runIndex == interfaces.NoRunIndex {
		logging.Default().Info(message)
		return
	}
	logging.Default().Debug(message, "run", runIndex)
}

func printSummary(w io.Writer, batch *model.Batch) {
	header := color.New(color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	_, _ = header.Fprintf(w, "Batch %s (%d records, %s)\n",
		batch.ID, len(batch.Statistics), batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
	_, _ = header.Fprintf(w, "%-32s %-12s %8s %10s %16s %10s\n",
		"RISK", "SCENARIO", "RUNS", "CV", "MEAN TOTAL EUR", "P(YEAR)")

	for _, rec := range batch.Statistics {
		var mean, probability float64
		if rec.Impact != nil {
			mean = rec.Impact.SampleMean.All
		}
		if rec.Probability != nil {
			probability = rec.Probability.SampleMean
		}

		line := fmt.Sprintf("%-32s %-12s %8d %10.4f %16.0f %10.4f",
			rec.RiskID, rec.Scenario, rec.Convergence.Runs, rec.Convergence.CV, mean, probability)
		if rec.Convergence.Converged {
			_, _ = ok.Fprintln(w, line)
		} else {
			_, _ = warn.Fprintln(w, line+"  (not converged)")
		}
	}
}
