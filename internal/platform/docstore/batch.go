package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const (
	// MaxBatchWriteItems is the largest number of put/delete operations sent
	// in one underlying batch request.
	MaxBatchWriteItems = 25
	// MaxBatchGetKeys is the largest number of keys fetched in one underlying
	// batch request.
	MaxBatchGetKeys = 100
)

// BatchWriteInput holds the puts (upserts) and deletes of one logical batch.
type BatchWriteInput struct {
	Puts    []Document
	Deletes []Key
}

// BatchWriteOutput reports progress. Writes are chunked; a failure in one
// chunk leaves prior chunks committed, so Committed may be non-zero even when
// BatchWrite returns an error. There is no atomicity across chunks.
type BatchWriteOutput struct {
	Committed int
	Attempted int
}

type batchOp struct {
	put Document
	del *Key
}

// BatchWrite applies all puts and deletes in chunks of MaxBatchWriteItems,
// one underlying batch request per chunk. Each chunk commits atomically;
// chunks already committed are not rolled back when a later chunk fails.
func (t *Table) BatchWrite(ctx context.Context, in BatchWriteInput) (*BatchWriteOutput, error) {
	ops := make([]batchOp, 0, len(in.Puts)+len(in.Deletes))
	for _, doc := range in.Puts {
		ops = append(ops, batchOp{put: doc})
	}
	for i := range in.Deletes {
		ops = append(ops, batchOp{del: &in.Deletes[i]})
	}

	out := &BatchWriteOutput{Attempted: len(ops)}
	for _, group := range chunk(ops, MaxBatchWriteItems) {
		if err := t.writeChunk(ctx, group); err != nil {
			return out, fmt.Errorf("batch write after %d of %d items: %w", out.Committed, out.Attempted, err)
		}
		out.Committed += len(group)
	}
	return out, nil
}

func (t *Table) writeChunk(ctx context.Context, ops []batchOp) error {
	batch := &pgx.Batch{}
	for _, op := range ops {
		if op.del != nil {
			batch.Queue(fmt.Sprintf(
				`DELETE FROM %s WHERE partition_key = $1 AND sort_key = $2`, t.name),
				op.del.Partition, op.del.Sort)
			continue
		}

		key, err := t.keyOf(op.put)
		if err != nil {
			return err
		}
		t.stampNew(op.put)
		expires, err := t.expiry(op.put)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(op.put)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (partition_key, sort_key, doc, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (partition_key, sort_key)
			DO UPDATE SET doc = EXCLUDED.doc, expires_at = EXCLUDED.expires_at, updated_at = NOW()`, t.name),
			key.Partition, key.Sort, payload, expires)
	}

	results := t.q.SendBatch(ctx, batch)
	defer results.Close()
	for range ops {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return results.Close()
}

// BatchGet fetches the documents for the given keys in chunks of
// MaxBatchGetKeys. Keys with no stored document are silently omitted from the
// result; callers that need to detect misses must compare lengths.
func (t *Table) BatchGet(ctx context.Context, keys []Key) ([]Document, error) {
	var items []Document
	for _, group := range chunk(keys, MaxBatchGetKeys) {
		docs, err := t.getChunk(ctx, group)
		if err != nil {
			return items, err
		}
		items = append(items, docs...)
	}
	return items, nil
}

func (t *Table) getChunk(ctx context.Context, keys []Key) ([]Document, error) {
	placeholders := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)*2)
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, key.Partition, key.Sort)
	}

	query := fmt.Sprintf(`
		SELECT doc FROM %s
		WHERE (partition_key, sort_key) IN (%s)
		  AND (expires_at IS NULL OR expires_at > NOW())`,
		t.name, strings.Join(placeholders, ", "))

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, doc)
	}
	return items, rows.Err()
}

// chunk splits items into groups of at most size elements, preserving order.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, items[start:end])
	}
	return groups
}
