package visit

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// VisitIDIndex serves lookups by visit ID alone, for callers (drafts,
// examinations) that hold only the visit ID.
const VisitIDIndex = "visit-index"

var TableSpec = docstore.TableSpec{
	Base: "visit",
	Keys: docstore.KeyNames{Partition: "surveyId", Sort: "visitId"},
	Indexes: map[string]docstore.KeyNames{
		VisitIDIndex: {Partition: "visitId", Sort: "surveyId"},
	},
}

type docRepo struct {
	table *docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	return &docRepo{table: client.Table(TableSpec)}
}

func (r *docRepo) Create(ctx context.Context, v *Visit) error {
	doc, err := toDocument(v)
	if err != nil {
		return err
	}
	return r.table.Create(ctx, doc)
}

func (r *docRepo) Find(ctx context.Context, surveyID, visitID string) (*Visit, error) {
	doc, err := r.table.FindByID(ctx, surveyID, visitID)
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) FindByVisitID(ctx context.Context, visitID string) (*Visit, error) {
	out, err := r.table.Query(ctx, docstore.QueryInput{
		PartitionValue: visitID,
		IndexName:      VisitIDIndex,
		Limit:          1,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	return fromDocument(out.Items[0])
}

func (r *docRepo) Update(ctx context.Context, surveyID, visitID string, fields docstore.Document) (*Visit, error) {
	doc, err := r.table.Update(ctx, surveyID, visitID, fields)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*Visit, error) {
	out, err := r.table.Query(ctx, docstore.QueryInput{PartitionValue: surveyID})
	if err != nil {
		return nil, err
	}
	visits := make([]*Visit, 0, len(out.Items))
	for _, doc := range out.Items {
		v, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, nil
}
