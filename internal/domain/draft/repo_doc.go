package draft

import (
	"context"
	"time"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// versionAttr is the document attribute compared on conditional saves.
const versionAttr = "version"

// TableSpec declares the draft table. One live record per visit under the
// fixed "current" sort key, plus backup copies under "backup-{uuid}". The ttl
// attribute carries the expiry; expired drafts disappear from reads.
var TableSpec = docstore.TableSpec{
	Base:    "draft",
	Keys:    docstore.KeyNames{Partition: "visitId", Sort: "draftId"},
	TTLAttr: "ttl",
}

type docRepo struct {
	table *docstore.Table
}

func NewRepository(client *docstore.Client) Repository {
	return &docRepo{table: client.Table(TableSpec)}
}

func (r *docRepo) Create(ctx context.Context, d *Draft) error {
	doc, err := toDocument(d)
	if err != nil {
		return err
	}
	return r.table.Create(ctx, doc)
}

func (r *docRepo) Get(ctx context.Context, visitID string) (*Draft, error) {
	doc, err := r.table.FindByID(ctx, visitID, CurrentID)
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDocument(doc)
}

func (r *docRepo) Save(ctx context.Context, d *Draft) error {
	doc, err := toDocument(d)
	if err != nil {
		return err
	}
	return r.table.Save(ctx, doc)
}

func (r *docRepo) CompareAndSave(ctx context.Context, d *Draft, baseVersion int) error {
	doc, err := toDocument(d)
	if err != nil {
		return err
	}
	return r.table.CompareAndSave(ctx, doc, versionAttr, baseVersion)
}

func (r *docRepo) Delete(ctx context.Context, visitID, draftID string) error {
	return r.table.Delete(ctx, visitID, draftID)
}

func (r *docRepo) ListExpired(ctx context.Context) ([]*Draft, error) {
	now := time.Now()
	docs, err := r.table.ScanAll(ctx, docstore.ScanOptions{
		IncludeExpired: true,
		Filter: func(doc docstore.Document) bool {
			raw, _ := doc["ttl"].(string)
			if raw == "" {
				return false
			}
			expiry, err := time.Parse(time.RFC3339Nano, raw)
			return err == nil && expiry.Before(now)
		},
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Draft, 0, len(docs))
	for _, doc := range docs {
		d, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
