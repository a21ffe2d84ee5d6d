package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskcascade/pkg/domain/interfaces"
	"github.com/secmon-lab/riskcascade/pkg/domain/model"
	"google.golang.org/api/iterator"
)

const (
	risksCollection    = "risks"
	cascadesCollection = "cascades"
)

// riskDoc is the Firestore persistence model of model.RiskSnapshot
type riskDoc struct {
	ID        string            `firestore:"id"`
	Name      string            `firestore:"name"`
	Category  string            `firestore:"category"`
	Type      string            `firestore:"type"`
	Scenarios []riskScenarioDoc `firestore:"scenarios"`
}

type riskScenarioDoc struct {
	Scenario           string             `firestore:"scenario"`
	YearlyProbability  float64            `firestore:"yearly_probability"`
	ReturnPeriodMonths float64            `firestore:"return_period_months"`
	DirectImpact       map[string]float64 `firestore:"direct_impact"`
}

// cascadeDoc is the Firestore persistence model of model.CascadeSnapshot
type cascadeDoc struct {
	ID            string                        `firestore:"id"`
	CauseID       string                        `firestore:"cause_id"`
	EffectID      string                        `firestore:"effect_id"`
	Probabilities map[string]map[string]float64 `firestore:"probabilities"`
}

func toRiskDoc(s model.RiskSnapshot) *riskDoc {
	doc := &riskDoc{
		ID:       s.ID,
		Name:     s.Name,
		Category: s.Category,
		Type:     s.Type,
	}
	for _, sc := range s.Scenarios {
		doc.Scenarios = append(doc.Scenarios, riskScenarioDoc{
			Scenario:           sc.Scenario,
			YearlyProbability:  sc.YearlyProbability,
			ReturnPeriodMonths: sc.ReturnPeriodMonths,
			DirectImpact:       sc.DirectImpact,
		})
	}
	return doc
}

func (d *riskDoc) toModel() model.RiskSnapshot {
	s := model.RiskSnapshot{
		ID:       d.ID,
		Name:     d.Name,
		Category: d.Category,
		Type:     d.Type,
	}
	for _, sc := range d.Scenarios {
		s.Scenarios = append(s.Scenarios, model.RiskScenarioSnapshot{
			Scenario:           sc.Scenario,
			YearlyProbability:  sc.YearlyProbability,
			ReturnPeriodMonths: sc.ReturnPeriodMonths,
			DirectImpact:       sc.DirectImpact,
		})
	}
	return s
}

type catalogueRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.CatalogueRepository = &catalogueRepository{}

func newCatalogueRepository(client *firestore.Client) *catalogueRepository {
	return &catalogueRepository{
		client: client,
	}
}

func (r *catalogueRepository) risks() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, risksCollection))
}

func (r *catalogueRepository) cascades() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, cascadesCollection))
}

func (r *catalogueRepository) PutRisks(ctx context.Context, risks []model.RiskSnapshot) error {
	refs := make([]*firestore.DocumentRef, len(risks))
	docs := make([]*riskDoc, len(risks))
	for i, risk := range risks {
		refs[i] = r.risks().Doc(risk.ID)
		docs[i] = toRiskDoc(risk)
	}

	if err := bulkSet(ctx, r.client, refs, docs); err != nil {
		return goerr.Wrap(err, "failed to put risks", goerr.V("count", len(risks)))
	}
	return nil
}

func (r *catalogueRepository) PutCascades(ctx context.Context, cascades []model.CascadeSnapshot) error {
	refs := make([]*firestore.DocumentRef, len(cascades))
	docs := make([]*cascadeDoc, len(cascades))
	for i, cascade := range cascades {
		refs[i] = r.cascades().Doc(cascade.ID)
		docs[i] = &cascadeDoc{
			ID:            cascade.ID,
			CauseID:       cascade.CauseID,
			EffectID:      cascade.EffectID,
			Probabilities: cascade.Probabilities,
		}
	}

	if err := bulkSet(ctx, r.client, refs, docs); err != nil {
		return goerr.Wrap(err, "failed to put cascades", goerr.V("count", len(cascades)))
	}
	return nil
}

func (r *catalogueRepository) ListRisks(ctx context.Context) ([]model.RiskSnapshot, error) {
	iter := r.risks().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var risks []model.RiskSnapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risks")
		}

		var d riskDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk", goerr.V("id", doc.Ref.ID))
		}
		risks = append(risks, d.toModel())
	}

	return risks, nil
}

func (r *catalogueRepository) ListCascades(ctx context.Context) ([]model.CascadeSnapshot, error) {
	iter := r.cascades().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var cascades []model.CascadeSnapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cascades")
		}

		var d cascadeDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal cascade", goerr.V("id", doc.Ref.ID))
		}
		cascades = append(cascades, model.CascadeSnapshot{
			ID:            d.ID,
			CauseID:       d.CauseID,
			EffectID:      d.EffectID,
			Probabilities: d.Probabilities,
		})
	}

	return cascades, nil
}
