package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/service/export"
	"github.com/urfave/cli/v3"
)

// Export holds the CLI flag of the batch export destination
type Export struct {
	output string
}

// Flags returns CLI flags for batch export
func (e *Export) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Category:    "Export",
			Usage:       "Export destination: a .json/.yaml file, a directory, or gs://bucket/prefix",
			Sources:     cli.EnvVars("RISKCASCADE_OUTPUT"),
			Destination: &e.output,
		},
	}
}

// Output returns the configured destination
func (e *Export) Output() string {
	return e.output
}

// Configure returns an exporter, or nil when no destination is set. The
// caller closes a non-nil exporter.
func (e *Export) Configure(ctx context.Context) (*export.Exporter, error) {
	if e.output == "" {
		return nil, nil
	}
	exporter, err := export.New(ctx, e.output)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure exporter", goerr.V("output", e.output))
	}
	return exporter, nil
}
