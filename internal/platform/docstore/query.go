package docstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SortCondition narrows a query on the sort key.
type SortCondition int

const (
	SortAny SortCondition = iota
	SortEquals
	SortBeginsWith
)

// QueryInput describes one page request against the primary key or a named
// secondary index.
type QueryInput struct {
	PartitionValue string
	SortCondition  SortCondition
	SortValue      string
	IndexName      string
	Limit          int
	Cursor         string
	Descending     bool
}

// QueryOutput is one page of documents plus an opaque continuation cursor,
// empty when the result set is exhausted.
type QueryOutput struct {
	Items      []Document
	NextCursor string
}

const defaultQueryLimit = 100

// Query returns documents sharing a partition-key value, ordered by sort key.
// When IndexName is set, the partition and sort attribute names are resolved
// through the table's index registry; querying an undeclared index returns
// *UnknownIndexError.
func (t *Table) Query(ctx context.Context, in QueryInput) (*QueryOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	offset, err := decodeCursor(in.Cursor)
	if err != nil {
		return nil, err
	}

	var (
		where string
		order string
		args  []interface{}
	)
	notExpired := `(expires_at IS NULL OR expires_at > NOW())`

	if in.IndexName == "" {
		where = `partition_key = $1 AND ` + notExpired
		order = `sort_key`
		args = append(args, in.PartitionValue)
		switch in.SortCondition {
		case SortEquals:
			where += ` AND sort_key = $2`
			args = append(args, in.SortValue)
		case SortBeginsWith:
			where += ` AND sort_key LIKE $2 || '%'`
			args = append(args, in.SortValue)
		}
	} else {
		keys, ok := t.spec.Indexes[in.IndexName]
		if !ok {
			return nil, &UnknownIndexError{Table: t.name, Index: in.IndexName}
		}
		where = fmt.Sprintf(`doc->>%s = $1 AND %s`, quoteLiteral(keys.Partition), notExpired)
		order = fmt.Sprintf(`doc->>%s`, quoteLiteral(keys.Sort))
		args = append(args, in.PartitionValue)
		switch in.SortCondition {
		case SortEquals:
			where += fmt.Sprintf(` AND doc->>%s = $2`, quoteLiteral(keys.Sort))
			args = append(args, in.SortValue)
		case SortBeginsWith:
			where += fmt.Sprintf(` AND doc->>%s LIKE $2 || '%%'`, quoteLiteral(keys.Sort))
			args = append(args, in.SortValue)
		}
	}

	if in.Descending {
		order += ` DESC`
	}

	// Fetch one extra row to learn whether another page exists.
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		t.name, where, order, limit+1, offset)

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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := &QueryOutput{}
	if len(items) > limit {
		out.Items = items[:limit]
		out.NextCursor = encodeCursor(offset + limit)
	} else {
		out.Items = items
	}
	return out, nil
}

// ScanOptions controls a full-table scan.
type ScanOptions struct {
	// Filter, when set, keeps only documents for which it returns true.
	Filter func(Document) bool
	// IncludeExpired also returns documents past their expiry time.
	IncludeExpired bool
}

// ScanAll reads every document in the table. Cost is unbounded in table size;
// intended for maintenance paths, never for request serving.
func (t *Table) ScanAll(ctx context.Context, opts ScanOptions) ([]Document, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s`, t.name)
	if !opts.IncludeExpired {
		query += ` WHERE expires_at IS NULL OR expires_at > NOW()`
	}

	rows, err := t.q.Query(ctx, query)
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
		if opts.Filter != nil && !opts.Filter(doc) {
			continue
		}
		items = append(items, doc)
	}
	return items, rows.Err()
}

type cursor struct {
	Offset int `json:"o"`
}

func encodeCursor(offset int) string {
	payload, _ := json.Marshal(cursor{Offset: offset})
	return base64.RawURLEncoding.EncodeToString(payload)
}

func decodeCursor(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	var c cursor
	if err := json.Unmarshal(payload, &c); err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	if c.Offset < 0 {
		return 0, fmt.Errorf("invalid cursor: negative offset")
	}
	return c.Offset, nil
}

// quoteLiteral quotes an attribute name for interpolation into a jsonb
// operator expression. Attribute names come from TableSpec declarations, not
// from request input.
func quoteLiteral(s string) string {
	out := []byte{'\''}
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}
