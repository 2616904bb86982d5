package patient

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// OrganizationIndex serves the "all patients at a site" listing.
const OrganizationIndex = "organization-index"

var TableSpec = docstore.TableSpec{
	Base: "patient",
	Keys: docstore.KeyNames{Partition: "patientId"},
	Indexes: map[string]docstore.KeyNames{
		OrganizationIndex: {Partition: "organizationId", Sort: "patientId"},
	},
}

type docRepo struct {
	table *docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	return &docRepo{table: client.Table(TableSpec)}
}

func (r *docRepo) Create(ctx context.Context, p *Patient) error {
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	return r.table.Create(ctx, doc)
}

func (r *docRepo) FindByID(ctx context.Context, id string) (*Patient, error) {
	doc, err := r.table.FindByID(ctx, id, "")
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) Update(ctx context.Context, id string, fields docstore.Document) (*Patient, error) {
	doc, err := r.table.Update(ctx, id, "", fields)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) ListByOrganization(ctx context.Context, organizationID string, limit int, cursor string) ([]*Patient, string, error) {
	out, err := r.table.Query(ctx, docstore.QueryInput{
		PartitionValue: organizationID,
		IndexName:      OrganizationIndex,
		Limit:          limit,
		Cursor:         cursor,
	})
	if err != nil {
		return nil, "", err
	}
	patients := make([]*Patient, 0, len(out.Items))
	for _, doc := range out.Items {
		p, err := fromDocument(doc)
		if err != nil {
			return nil, "", err
		}
		patients = append(patients, p)
	}
	return patients, out.NextCursor, nil
}
