package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
)

type Firestore struct {
	client     *firestore.Client
	catalogue  *catalogueRepository
	statistics *statisticsRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix and "_" to every collection name
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.catalogue.collectionPrefix = prefix
		f.statistics.collectionPrefix = prefix
	}
}

// New connects to the Firestore database databaseID of projectID. An empty
// databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		catalogue:  newCatalogueRepository(client),
		statistics: newStatisticsRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Catalogue() interfaces.CatalogueRepository {
	return f.catalogue
}

func (f *Firestore) Statistics() interfaces.StatisticsRepository {
	return f.statistics
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// bulkSet writes every document through a BulkWriter and waits for all
// results
func bulkSet[T any](ctx context.Context, client *firestore.Client, refs []*firestore.DocumentRef, docs []T) error {
	if len(refs) == 0 {
		return nil
	}

	bulkWriter := client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for i, ref := range refs {
		job, err := bulkWriter.Set(ref, docs[i])
		if err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("doc_id", ref.ID))
		}
		jobs = append(jobs, job)
	}

	bulkWriter.Flush()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write document", goerr.V("doc_id", refs[i].ID))
		}
	}
	return nil
}
