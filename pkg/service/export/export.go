// Package export writes finished simulation batches to a local file or to
// Google Cloud Storage.
package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/utils/logging"
	"github.com/secmon-lab/riskcascade/pkg/utils/safe"
	"gopkg.in/yaml.v3"
)

const gcsScheme = "gs://"

var (
	ErrInvalidDestination = goerr.New("invalid export destination")
)

// Format is the serialization of an exported batch
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Destination is a parsed export target
type Destination struct {
	// Bucket is set for Cloud Storage destinations
	Bucket string
	// Path is the local path or the object name (prefix)
	Path string
	// Dir is true when Path names a directory (or object prefix) that
	// receives one file per batch
	Dir    bool
	Format Format
}

// IsGCS reports whether the destination is a Cloud Storage location
func (d Destination) IsGCS() bool {
	return d.Bucket != ""
}

// Name returns the file or object name for batch
func (d Destination) Name(id model.BatchID) string {
	if !d.Dir {
		return d.Path
	}
	file := id.String() + "." + string(d.Format)
	if d.IsGCS() {
		return path.Join(d.Path, file)
	}
	return filepath.Join(d.Path, file)
}

// ParseDestination parses "gs://bucket/prefix", "gs://bucket/object.json"
// or a local path. Paths with a .json, .yaml or .yml extension name a
// single file; anything else is a directory receiving {batchID}.json.
func ParseDestination(dest string) (Destination, error) {
	if dest == "" {
		return Destination{}, goerr.Wrap(ErrInvalidDestination, "destination is empty")
	}

	var d Destination
	p := dest
	if strings.HasPrefix(dest, gcsScheme) {
		rest := strings.TrimPrefix(dest, gcsScheme)
		bucket, object, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Destination{}, goerr.Wrap(ErrInvalidDestination, "bucket is empty", goerr.V("destination", dest))
		}
		d.Bucket = bucket
		p = object
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		d.Format = FormatJSON
	case ".yaml", ".yml":
		d.Format = FormatYAML
	default:
		d.Format = FormatJSON
		d.Dir = true
	}
	d.Path = p
	return d, nil
}

// Exporter writes batches to a destination
type Exporter struct {
	dest   Destination
	client *storage.Client
}

// New creates an Exporter for dest. A Cloud Storage client is created only
// for gs:// destinations; call Close to release it.
func New(ctx context.Context, dest string) (*Exporter, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}

	e := &Exporter{dest: d}
	if d.IsGCS() {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", d.Bucket))
		}
		e.client = client
	}
	return e, nil
}

// Close releases the storage client
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Export writes batch and returns the written location
func (e *Exporter) Export(ctx context.Context, batch *model.Batch) (string, error) {
	name := e.dest.Name(batch.ID)

	if e.dest.IsGCS() {
		w := e.client.Bucket(e.dest.Bucket).Object(name).NewWriter(ctx)
		w.ContentType = contentType(e.dest.Format)
		if err := encode(w, e.dest.Format, batch); err != nil {
			_ = w.Close()
			return "", goerr.Wrap(err, "failed to write batch object", goerr.V("object", name))
		}
		if err := w.Close(); err != nil {
			return "", goerr.Wrap(err, "failed to close batch object", goerr.V("object", name))
		}

		location := gcsScheme + e.dest.Bucket + "/" + name
		logging.From(ctx).Info("batch exported", "location", location)
		return location, nil
	}

	if e.dest.Dir {
		if err := os.MkdirAll(e.dest.Path, 0o755); err != nil {
			return "", goerr.Wrap(err, "failed to create export directory", goerr.V("dir", e.dest.Path))
		}
	}

	f, err := os.Create(filepath.Clean(name))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create export file", goerr.V("path", name))
	}
	defer safe.Close(ctx, f)

	if err := encode(f, e.dest.Format, batch); err != nil {
		return "", goerr.Wrap(err, "failed to write export file", goerr.V("path", name))
	}

	logging.From(ctx).Info("batch exported", "location", name)
	return name, nil
}

func contentType(f Format) string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

func encode(w io.Writer, f Format, batch *model.Batch) error {
	if f == FormatYAML {
		// YAML output keeps the JSON field names
		raw, err := json.Marshal(batch)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal batch")
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return goerr.Wrap(err, "failed to convert batch to yaml")
		}
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(doc); err != nil {
			return goerr.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return goerr.Wrap(err, "failed to encode json")
	}
	return nil
}
