package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/cli/config"
	"github.com/secmon-lab/riskcascade/pkg/repository/memory"
	"github.com/secmon-lab/riskcascade/pkg/usecase"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var catCfg config.Catalogue
	var simCfg config.Simulation

	var flags []cli.Flag
	flags = append(flags, catCfg.Flags(true)...)
	flags = append(flags, simCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a catalogue file and, optionally, a simulation settings file",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if _, err := simCfg.Configure(); err != nil {
				return goerr.Wrap(err, "simulation config validation failed")
			}

			snapshot, err := catCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "catalogue validation failed")
			}

			report, err := usecase.New(memory.New()).Catalogue.Validate(ctx, snapshot)
			if err != nil {
				return goerr.Wrap(err, "catalogue validation failed", goerr.V("path", catCfg.Path()))
			}

			for _, id := range report.Dropped {
				logger.Warn("Cascade dropped: cause or effect risk is not in the catalogue", "cascade_id", id)
			}
			logger.Info("Catalogue validation passed",
				"path", catCfg.Path(),
				"risks", report.Risks,
				"cascades", report.Cascades,
				"actors", report.Actors,
				"dropped", len(report.Dropped),
			)
			return nil
		},
	}
}
