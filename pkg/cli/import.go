package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/cli/config"
	"github.com/secmon-lab/riskcascade/pkg/usecase"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"github.com/secmon-lab/riskcascade/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var catCfg config.Catalogue
	var repoCfg config.Repository

	var flags []cli.Flag
	flags = append(flags, catCfg.Flags(true)...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "import",
		Usage: "Validate a catalogue file and store it in the repository",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			snapshot, err := catCfg.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load catalogue")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			report, err := usecase.New(repo).Catalogue.Import(ctx, snapshot)
			if err != nil {
				return goerr.Wrap(err, "failed to import catalogue", goerr.V("path", catCfg.Path()))
			}

			logging.Default().Info("Catalogue imported",
				"path", catCfg.Path(),
				"risks", report.Risks,
				"cascades", report.Cascades,
				"dropped", len(report.Dropped),
			)
			return nil
		},
	}
}
