package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	// AttrCreatedAt and AttrUpdatedAt are stamped on every document.
	AttrCreatedAt = "createdAt"
	AttrUpdatedAt = "updatedAt"
)

// Create writes the document only if no live item shares its key. An expired
// row reads as absent everywhere else, so Create reclaims it in place.
// Returns ErrConflict when a live document exists. Stamps createdAt/updatedAt
// when absent.
func (t *Table) Create(ctx context.Context, doc Document) error {
	key, err := t.keyOf(doc)
	if err != nil {
		return err
	}
	t.stampNew(doc)

	expires, err := t.expiry(doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tag, err := t.q.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (partition_key, sort_key, doc, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (partition_key, sort_key)
		DO UPDATE SET doc = EXCLUDED.doc, expires_at = EXCLUDED.expires_at,
		              created_at = NOW(), updated_at = NOW()
		WHERE %s.expires_at IS NOT NULL AND %s.expires_at <= NOW()`, t.name, t.name, t.name),
		key.Partition, key.Sort, payload, expires)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s (%s, %s)", ErrConflict, t.name, key.Partition, key.Sort)
	}
	return nil
}

// Save upserts the document unconditionally. Last writer wins; there is no
// merge.
func (t *Table) Save(ctx context.Context, doc Document) error {
	key, err := t.keyOf(doc)
	if err != nil {
		return err
	}
	t.stampNew(doc)
	doc[AttrUpdatedAt] = Timestamp(now())

	expires, err := t.expiry(doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = t.q.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (partition_key, sort_key, doc, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (partition_key, sort_key)
		DO UPDATE SET doc = EXCLUDED.doc, expires_at = EXCLUDED.expires_at, updated_at = NOW()`, t.name),
		key.Partition, key.Sort, payload, expires)
	return err
}

// FindByID returns the document for the key, or nil when it does not exist
// or has expired. Misses are not errors.
func (t *Table) FindByID(ctx context.Context, partition, sort string) (Document, error) {
	row := t.q.QueryRow(ctx, fmt.Sprintf(`
		SELECT doc FROM %s
		WHERE partition_key = $1 AND sort_key = $2
		  AND (expires_at IS NULL OR expires_at > NOW())`, t.name),
		partition, sort)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return doc, err
}

// Update merges the given fields into the stored document and stamps
// updatedAt, returning the post-update document. Key attributes cannot be
// reassigned. Returns ErrNotFound when the key does not exist; Update never
// creates.
func (t *Table) Update(ctx context.Context, partition, sort string, fields Document) (Document, error) {
	patch, err := t.buildPatch(fields)
	if err != nil {
		return nil, err
	}

	var row pgx.Row
	if expires, ok := patch[t.spec.TTLAttr]; ok && t.spec.TTLAttr != "" {
		expiresAt, err := t.expiry(Document{t.spec.TTLAttr: expires})
		if err != nil {
			return nil, err
		}
		row = t.q.QueryRow(ctx, fmt.Sprintf(`
			UPDATE %s SET doc = doc || $3::jsonb, expires_at = $4, updated_at = NOW()
			WHERE partition_key = $1 AND sort_key = $2
			RETURNING doc`, t.name),
			partition, sort, patch.mustJSON(), expiresAt)
	} else {
		row = t.q.QueryRow(ctx, fmt.Sprintf(`
			UPDATE %s SET doc = doc || $3::jsonb, updated_at = NOW()
			WHERE partition_key = $1 AND sort_key = $2
			RETURNING doc`, t.name),
			partition, sort, patch.mustJSON())
	}

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s (%s, %s)", ErrNotFound, t.name, partition, sort)
	}
	return doc, err
}

// CompareAndSave replaces the stored document only when its version attribute
// still equals baseVersion. The caller is responsible for bumping the version
// inside doc. Returns ErrVersionConflict on a stale base version and
// ErrNotFound when the key does not exist.
func (t *Table) CompareAndSave(ctx context.Context, doc Document, versionAttr string, baseVersion int) error {
	key, err := t.keyOf(doc)
	if err != nil {
		return err
	}
	doc[AttrUpdatedAt] = Timestamp(now())

	expires, err := t.expiry(doc)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tag, err := t.q.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET doc = $3, expires_at = $4, updated_at = NOW()
		WHERE partition_key = $1 AND sort_key = $2
		  AND (doc->>$5)::int = $6`, t.name),
		key.Partition, key.Sort, payload, expires, versionAttr, baseVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	existing, err := t.FindByID(ctx, key.Partition, key.Sort)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s (%s, %s)", ErrNotFound, t.name, key.Partition, key.Sort)
	}
	return ErrVersionConflict
}

// Delete removes the document. Deleting an absent key is not an error.
func (t *Table) Delete(ctx context.Context, partition, sort string) error {
	_, err := t.q.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE partition_key = $1 AND sort_key = $2`, t.name),
		partition, sort)
	return err
}

// stampNew fills createdAt/updatedAt on documents that lack them.
func (t *Table) stampNew(doc Document) {
	ts := Timestamp(now())
	if _, ok := doc[AttrCreatedAt]; !ok {
		doc[AttrCreatedAt] = ts
	}
	if _, ok := doc[AttrUpdatedAt]; !ok {
		doc[AttrUpdatedAt] = ts
	}
}

// buildPatch validates an Update field set: key attributes are immutable, and
// updatedAt is always restamped.
func (t *Table) buildPatch(fields Document) (Document, error) {
	patch := make(Document, len(fields)+1)
	for attr, value := range fields {
		if attr == t.spec.Keys.Partition || (t.spec.Keys.Sort != "" && attr == t.spec.Keys.Sort) {
			return nil, fmt.Errorf("cannot update key attribute %q", attr)
		}
		patch[attr] = value
	}
	patch[AttrUpdatedAt] = Timestamp(now())
	return patch, nil
}

func (d Document) mustJSON() []byte {
	payload, err := json.Marshal(d)
	if err != nil {
		// Document values come from our own models; a marshal failure is a
		// programming error.
		panic(fmt.Sprintf("docstore: marshal patch: %v", err))
	}
	return payload
}

func scanDocument(row pgx.Row) (Document, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
