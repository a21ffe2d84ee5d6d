package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadCatalogue reads a catalogue file. The format is chosen by extension:
// .toml, .yaml/.yml or .json.
func LoadCatalogue(path string) (*model.CatalogueSnapshot, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(ErrConfigNotFound, "catalogue not found", goerr.V(ConfigPathKey, path))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read catalogue", goerr.V(ConfigPathKey, path))
	}

	var snapshot model.CatalogueSnapshot
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		err = toml.Unmarshal(data, &snapshot)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &snapshot)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&snapshot)
	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "unknown catalogue extension",
			goerr.V(ConfigPathKey, path), goerr.V(FormatKey, ext))
	}
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse catalogue",
			goerr.V(ConfigPathKey, path), goerr.V(FormatKey, ext), goerr.V("reason", err.Error()))
	}

	if err := validate.Struct(&snapshot); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "catalogue validation failed",
			goerr.V(ConfigPathKey, path), goerr.V("reason", err.Error()))
	}

	return &snapshot, nil
}

// Catalogue holds the CLI flag pointing to a catalogue file
type Catalogue struct {
	path string
}

// Flags returns CLI flags for the catalogue file. When required is false
// the stored catalogue is used if the flag is omitted.
func (c *Catalogue) Flags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "catalogue",
			Aliases:     []string{"f"},
			Usage:       "Catalogue file of risks and cascades (toml, yaml or json)",
			Required:    required,
			Sources:     cli.EnvVars("RISKCASCADE_CATALOGUE"),
			Destination: &c.path,
		},
	}
}

// Path returns the configured catalogue path
func (c *Catalogue) Path() string {
	return c.path
}

// Load reads the catalogue file, or returns nil when no path is set
func (c *Catalogue) Load() (*model.CatalogueSnapshot, error) {
	if c.path == "" {
		return nil, nil
	}
	return LoadCatalogue(c.path)
}
