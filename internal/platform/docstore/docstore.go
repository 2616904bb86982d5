// Package docstore implements a partition-key/sort-key document store on top
// of PostgreSQL jsonb. Every entity maps to one physical table named
// {prefix}_{base} with a composite primary key and a jsonb document column;
// secondary indexes are declared per table as attribute-name pairs inside the
// document and served by expression indexes.
package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document is one stored record. Attribute values must be JSON-serializable.
type Document map[string]interface{}

// Key identifies one document. Sort is empty for tables without a sort key.
type Key struct {
	Partition string
	Sort      string
}

// KeyNames holds the document attribute names that form a key.
type KeyNames struct {
	Partition string
	Sort      string
}

// TableSpec declares one entity table: its logical name, primary key
// attribute names, named secondary indexes, and the optional attribute that
// carries the document's expiry time (RFC 3339).
type TableSpec struct {
	Base    string
	Keys    KeyNames
	Indexes map[string]KeyNames
	TTLAttr string
}

// querier is the subset of pgxpool.Pool the store needs. Transactions and
// fakes satisfy it too.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Client creates tables bound to one connection pool and one deployment-stage
// table prefix.
type Client struct {
	pool   *pgxpool.Pool
	prefix string
}

func NewClient(pool *pgxpool.Pool, prefix string) *Client {
	return &Client{pool: pool, prefix: prefix}
}

// Table binds a TableSpec to the client's pool and prefix.
func (c *Client) Table(spec TableSpec) *Table {
	return &Table{
		q:    c.pool,
		name: c.prefix + "_" + spec.Base,
		spec: spec,
	}
}

// Table is the generic repository over one entity table.
type Table struct {
	q    querier
	name string
	spec TableSpec
}

// Name returns the physical, prefix-qualified table name.
func (t *Table) Name() string { return t.name }

// Spec returns the table's declaration.
func (t *Table) Spec() TableSpec { return t.spec }

// IndexPartitionKeyName resolves the partition-key attribute name of a named
// secondary index. An unknown index name is a programming error, reported as
// *UnknownIndexError.
func (t *Table) IndexPartitionKeyName(index string) (string, error) {
	keys, ok := t.spec.Indexes[index]
	if !ok {
		return "", &UnknownIndexError{Table: t.name, Index: index}
	}
	return keys.Partition, nil
}

// IndexSortKeyName resolves the sort-key attribute name of a named secondary
// index.
func (t *Table) IndexSortKeyName(index string) (string, error) {
	keys, ok := t.spec.Indexes[index]
	if !ok {
		return "", &UnknownIndexError{Table: t.name, Index: index}
	}
	return keys.Sort, nil
}

// keyOf extracts the primary key from a document.
func (t *Table) keyOf(doc Document) (Key, error) {
	var key Key
	pv, ok := doc[t.spec.Keys.Partition].(string)
	if !ok || pv == "" {
		return key, fmt.Errorf("document missing partition key attribute %q", t.spec.Keys.Partition)
	}
	key.Partition = pv

	if t.spec.Keys.Sort != "" {
		sv, ok := doc[t.spec.Keys.Sort].(string)
		if !ok || sv == "" {
			return key, fmt.Errorf("document missing sort key attribute %q", t.spec.Keys.Sort)
		}
		key.Sort = sv
	}
	return key, nil
}

// expiry extracts the document's expiry time from the TTL attribute, when the
// table declares one. Accepts time.Time or an RFC 3339 string.
func (t *Table) expiry(doc Document) (*time.Time, error) {
	if t.spec.TTLAttr == "" {
		return nil, nil
	}
	raw, ok := doc[t.spec.TTLAttr]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return &v, nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q is not a valid expiry time: %w", t.spec.TTLAttr, err)
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("attribute %q must be a timestamp, got %T", t.spec.TTLAttr, raw)
	}
}

// Now is stubbed in tests.
var now = time.Now

// timestampLayout always prints the full nanosecond fraction, so every stored
// timestamp has the same width and lexicographic order on the raw string
// equals chronological order. Index queries ORDER BY the raw attribute text
// and rely on this.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp formats a time the way documents store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
