package firestore

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"github.com/secmon-lab/riskcascade/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const statisticsCollection = "statistics"

type statisticsRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.StatisticsRepository = &statisticsRepository{}

func newStatisticsRepository(client *firestore.Client) *statisticsRepository {
	return &statisticsRepository{
		client: client,
	}
}

func (r *statisticsRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, statisticsCollection))
}

func (r *statisticsRepository) Put(ctx context.Context, stats *model.RiskStatistics) error {
	key := stats.Key().String()
	if _, err := r.collection().Doc(key).Set(ctx, stats); err != nil {
		return goerr.Wrap(err, "failed to put statistics", goerr.V("key", key))
	}
	return nil
}

func (r *statisticsRepository) Get(ctx context.Context, riskID types.RiskID, scenario types.Scenario) (*model.RiskStatistics, error) {
	key := model.EventKey{RiskID: riskID, Scenario: scenario}.String()
	doc, err := r.collection().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "statistics not found", goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to get statistics", goerr.V("key", key))
	}

	var stats model.RiskStatistics
	if err := doc.DataTo(&stats); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal statistics", goerr.V("key", key))
	}
	return &stats, nil
}

func (r *statisticsRepository) List(ctx context.Context) ([]*model.RiskStatistics, error) {
	return r.query(ctx, r.collection().Query)
}

func (r *statisticsRepository) ListByRisk(ctx context.Context, riskID types.RiskID) ([]*model.RiskStatistics, error) {
	return r.query(ctx, r.collection().Where("risk_id", "==", string(riskID)))
}

func (r *statisticsRepository) query(ctx context.Context, q firestore.Query) ([]*model.RiskStatistics, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.RiskStatistics
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate statistics")
		}

		var stats model.RiskStatistics
		if err := doc.DataTo(&stats); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal statistics", goerr.V("id", doc.Ref.ID))
		}
		result = append(result, &stats)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RiskID != result[j].RiskID {
			return result[i].RiskID < result[j].RiskID
		}
		return result[i].Scenario.Index() < result[j].Scenario.Index()
	})
	return result, nil
}
