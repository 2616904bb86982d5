package study

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

var TableSpec = docstore.TableSpec{
	Base: "clinical_study",
	Keys: docstore.KeyNames{Partition: "clinicalStudyId"},
}

type docRepo struct {
	table *docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	return &docRepo{table: client.Table(TableSpec)}
}

func (r *docRepo) Create(ctx context.Context, s *ClinicalStudy) error {
	doc, err := toDocument(s)
	if err != nil {
		return err
	}
	return r.table.Create(ctx, doc)
}

func (r *docRepo) FindByID(ctx context.Context, id string) (*ClinicalStudy, error) {
	doc, err := r.table.FindByID(ctx, id, "")
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) Update(ctx context.Context, id string, fields docstore.Document) (*ClinicalStudy, error) {
	doc, err := r.table.Update(ctx, id, "", fields)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) List(ctx context.Context) ([]*ClinicalStudy, error) {
	docs, err := r.table.ScanAll(ctx, docstore.ScanOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]*ClinicalStudy, 0, len(docs))
	for _, doc := range docs {
		s, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
