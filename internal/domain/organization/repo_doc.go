package organization

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// TableSpec declares the organization table. The partition key alone
// identifies an organization; there is no sort key.
var TableSpec = docstore.TableSpec{
	Base: "organization",
	Keys: docstore.KeyNames{Partition: "organizationId"},
}

type docRepo struct {
	table *docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	return &docRepo{table: client.Table(TableSpec)}
}

func (r *docRepo) Create(ctx context.Context, o *Organization) error {
	doc, err := toDocument(o)
	if err != nil {
		return err
	}
	return r.table.Create(ctx, doc)
}

func (r *docRepo) FindByID(ctx context.Context, id string) (*Organization, error) {
	doc, err := r.table.FindByID(ctx, id, "")
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) Update(ctx context.Context, id string, fields docstore.Document) (*Organization, error) {
	doc, err := r.table.Update(ctx, id, "", fields)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) List(ctx context.Context) ([]*Organization, error) {
	docs, err := r.table.ScanAll(ctx, docstore.ScanOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]*Organization, 0, len(docs))
	for _, doc := range docs {
		o, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
