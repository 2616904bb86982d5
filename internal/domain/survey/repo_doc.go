package survey

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	// PatientIndex lists a patient's enrollments.
	PatientIndex = "patient-index"
	// StudyIndex lists a study's enrollments.
	StudyIndex = "study-index"
)

var TableSpec = docstore.TableSpec{
	Base: "survey",
	Keys: docstore.KeyNames{Partition: "surveyId"},
	Indexes: map[string]docstore.KeyNames{
		PatientIndex: {Partition: "patientId", Sort: "surveyId"},
		StudyIndex:   {Partition: "clinicalStudyId", Sort: "surveyId"},
	},
}

type docRepo struct {
	table *docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	return &docRepo{table: client.Table(TableSpec)}
}

func (r *docRepo) Create(ctx context.Context, s *Survey) error {
	doc, err := toDocument(s)
	if err != nil {
		return err
	}
	return r.table.Create(ctx, doc)
}

func (r *docRepo) FindByID(ctx context.Context, id string) (*Survey, error) {
	doc, err := r.table.FindByID(ctx, id, "")
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) Update(ctx context.Context, id string, fields docstore.Document) (*Survey, error) {
	doc, err := r.table.Update(ctx, id, "", fields)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) ListByPatient(ctx context.Context, patientID string) ([]*Survey, error) {
	// Patients enroll in a handful of studies; one page is the whole list.
	out, err := r.table.Query(ctx, docstore.QueryInput{
		PartitionValue: patientID,
		IndexName:      PatientIndex,
	})
	if err != nil {
		return nil, err
	}
	return decodeAll(out.Items)
}

func (r *docRepo) ListByStudy(ctx context.Context, clinicalStudyID string, limit int, cursor string) ([]*Survey, string, error) {
	out, err := r.table.Query(ctx, docstore.QueryInput{
		PartitionValue: clinicalStudyID,
		IndexName:      StudyIndex,
		Limit:          limit,
		Cursor:         cursor,
	})
	if err != nil {
		return nil, "", err
	}
	surveys, err := decodeAll(out.Items)
	if err != nil {
		return nil, "", err
	}
	return surveys, out.NextCursor, nil
}

func decodeAll(docs []docstore.Document) ([]*Survey, error) {
	out := make([]*Survey, 0, len(docs))
	for _, doc := range docs {
		s, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
