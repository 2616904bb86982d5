package examination

import (
	"context"
	"fmt"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// SurveyIndex is the secondary index every examination table declares for
// cross-visit lookups. Its sort attribute is createdAt, so index queries come
// back in the time order the trend computations rely on.
const SurveyIndex = "survey-index"

var tableBases = map[Kind]string{
	KindBasicInfo:         "exam_basic_info",
	KindVAS:               "exam_vas",
	KindComparativeScores: "exam_comparative_scores",
	KindFitting:           "exam_fitting",
	KindDR1:               "exam_dr1",
	KindCorrectedVA:       "exam_corrected_va",
	KindLensInspection:    "exam_lens_inspection",
	KindQuestionnaire:     "exam_questionnaire",
}

// TableSpecFor declares the per-kind examination table: one row per
// (visit, examination record), indexed by survey.
func TableSpecFor(kind Kind) docstore.TableSpec {
	return docstore.TableSpec{
		Base: tableBases[kind],
		Keys: docstore.KeyNames{Partition: "visitId", Sort: "examinationId"},
		Indexes: map[string]docstore.KeyNames{
			SurveyIndex: {Partition: "surveyId", Sort: "createdAt"},
		},
	}
}

type docRepo struct {
	tables map[Kind]*docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	tables := make(map[Kind]*docstore.Table, len(tableBases))
	for _, kind := range Kinds() {
		tables[kind] = client.Table(TableSpecFor(kind))
	}
	return &docRepo{tables: tables}
}

func (r *docRepo) table(kind Kind) (*docstore.Table, error) {
	t, ok := r.tables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown examination kind: %s", kind)
	}
	return t, nil
}

func (r *docRepo) Create(ctx context.Context, e *Examination) error {
	t, err := r.table(e.Kind)
	if err != nil {
		return err
	}
	doc, err := toDocument(e)
	if err != nil {
		return err
	}
	return t.Create(ctx, doc)
}

func (r *docRepo) FindByVisit(ctx context.Context, kind Kind, visitID string) ([]*Examination, error) {
	t, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	out, err := t.Query(ctx, docstore.QueryInput{PartitionValue: visitID})
	if err != nil {
		return nil, err
	}
	return decodeAll(out.Items)
}

func (r *docRepo) FindByVisitAndEye(ctx context.Context, kind Kind, visitID string, eye EyeSide) (*Examination, error) {
	records, err := r.FindByVisit(ctx, kind, visitID)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.EyeSide == eye {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *docRepo) FindBySurvey(ctx context.Context, kind Kind, surveyID string) ([]*Examination, error) {
	t, err := r.table(kind)
	if err != nil {
		return nil, err
	}

	var records []*Examination
	cursor := ""
	for {
		out, err := t.Query(ctx, docstore.QueryInput{
			PartitionValue: surveyID,
			IndexName:      SurveyIndex,
			Cursor:         cursor,
		})
		if err != nil {
			return nil, err
		}
		page, err := decodeAll(out.Items)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		if out.NextCursor == "" {
			return records, nil
		}
		cursor = out.NextCursor
	}
}

func (r *docRepo) FindBySurveyAndEye(ctx context.Context, kind Kind, surveyID string, eye EyeSide) ([]*Examination, error) {
	records, err := r.FindBySurvey(ctx, kind, surveyID)
	if err != nil {
		return nil, err
	}
	filtered := records[:0]
	for _, rec := range records {
		if rec.EyeSide == eye {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

func (r *docRepo) Delete(ctx context.Context, kind Kind, visitID, examinationID string) error {
	t, err := r.table(kind)
	if err != nil {
		return err
	}
	return t.Delete(ctx, visitID, examinationID)
}

func decodeAll(docs []docstore.Document) ([]*Examination, error) {
	out := make([]*Examination, 0, len(docs))
	for _, doc := range docs {
		e, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
