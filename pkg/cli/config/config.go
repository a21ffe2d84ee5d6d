package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// SimulationFile is the layout of a simulation settings TOML file
type SimulationFile struct {
	Simulation SimulationSection `toml:"simulation"`
	Histogram  HistogramSection  `toml:"histogram"`
	Summary    SummarySection    `toml:"summary"`
}

// SimulationSection holds the [simulation] table. Pointers distinguish
// unset values from explicit zeros.
type SimulationSection struct {
	MinRuns       *int     `toml:"min_runs"`
	MaxRuns       *int     `toml:"max_runs"`
	RelStd        *float64 `toml:"rel_std"`
	NoiseStdDev   *float64 `toml:"noise_std_dev"`
	MaxDepth      *int     `toml:"max_depth"`
	Seed          *uint64  `toml:"seed"`
	Workers       *int     `toml:"workers"`
	YearlySamples *int     `toml:"yearly_samples"`
	RiskIDs       []string `toml:"risk_ids"`
	Scenarios     []string `toml:"scenarios"`
	TerminalRisks []string `toml:"terminal_risks"`
}

type HistogramSection struct {
	BinWidth *float64 `toml:"bin_width"`
}

type SummarySection struct {
	TreeDepth *int `toml:"tree_depth"`
}

// Apply overwrites opts with every value set in the file
func (f *SimulationFile) Apply(opts *model.SimulationOptions) error {
	s := f.Simulation
	setIf(&opts.MinRuns, s.MinRuns)
	setIf(&opts.MaxRuns, s.MaxRuns)
	setIf(&opts.RelStd, s.RelStd)
	setIf(&opts.NoiseStdDev, s.NoiseStdDev)
	setIf(&opts.MaxDepth, s.MaxDepth)
	setIf(&opts.Seed, s.Seed)
	setIf(&opts.Workers, s.Workers)
	setIf(&opts.YearlySamples, s.YearlySamples)
	setIf(&opts.HistogramBinWidth, f.Histogram.BinWidth)
	setIf(&opts.TreeDepth, f.Summary.TreeDepth)

	if s.RiskIDs != nil {
		opts.RiskIDs = toRiskIDs(s.RiskIDs)
	}
	if s.TerminalRisks != nil {
		opts.TerminalRisks = toRiskIDs(s.TerminalRisks)
	}
	if s.Scenarios != nil {
		opts.Scenarios = make([]types.Scenario, 0, len(s.Scenarios))
		for _, v := range s.Scenarios {
			scenario, err := types.ParseScenario(v)
			if err != nil {
				return goerr.Wrap(ErrInvalidConfig, "invalid scenario filter", goerr.V("scenario", v))
			}
			opts.Scenarios = append(opts.Scenarios, scenario)
		}
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func toRiskIDs(values []string) []types.RiskID {
	ids := make([]types.RiskID, len(values))
	for i, v := range values {
		ids[i] = types.RiskID(v)
	}
	return ids
}

// LoadSimulationOptions reads a simulation settings file on top of the
// default options and validates the result
func LoadSimulationOptions(path string) (model.SimulationOptions, error) {
	opts := model.DefaultSimulationOptions()

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return opts, goerr.Wrap(ErrConfigNotFound, "simulation config not found", goerr.V(ConfigPathKey, path))
	}
	if err != nil {
		return opts, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file SimulationFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return opts, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("reason", err.Error()))
	}
	if err := file.Apply(&opts); err != nil {
		return opts, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}
	if err := opts.Validate(); err != nil {
		return opts, goerr.Wrap(ErrInvalidConfig, "config validation failed",
			goerr.V(ConfigPathKey, path), goerr.V("reason", err.Error()))
	}

	return opts, nil
}

// Simulation holds CLI flags for simulation settings
type Simulation struct {
	path    string
	seed    uint64
	workers int
}

// Flags returns CLI flags for simulation configuration
func (s *Simulation) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Category:    "Simulation",
			Usage:       "Simulation settings file (TOML)",
			Sources:     cli.EnvVars("RISKCASCADE_CONFIG"),
			Destination: &s.path,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Category:    "Simulation",
			Usage:       "Random seed, overrides the settings file",
			Sources:     cli.EnvVars("RISKCASCADE_SEED"),
			Destination: &s.seed,
		},
		&cli.IntFlag{
			Name:        "workers",
			Category:    "Simulation",
			Usage:       "Number of concurrent workers, overrides the settings file",
			Sources:     cli.EnvVars("RISKCASCADE_WORKERS"),
			Destination: &s.workers,
		},
	}
}

// LogValue implements slog.LogValuer
func (s Simulation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", s.path),
		slog.Uint64("seed", s.seed),
		slog.Int("workers", s.workers),
	)
}

// Configure returns the simulation options. Without a settings file the
// defaults are used; non-zero flags override either.
func (s *Simulation) Configure() (model.SimulationOptions, error) {
	opts := model.DefaultSimulationOptions()
	if s.path != "" {
		loaded, err := LoadSimulationOptions(s.path)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	if s.seed != 0 {
		opts.Seed = s.seed
	}
	if s.workers != 0 {
		opts.Workers = s.workers
	}
	if err := opts.Validate(); err != nil {
		return opts, goerr.Wrap(ErrInvalidConfig, "invalid simulation flags", goerr.V("reason", err.Error()))
	}
	return opts, nil
}
