package docstore

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned by Create when an item with the same key already
// exists, and by CompareAndSave when the stored version differs from the
// caller's base version.
var ErrConflict = errors.New("docstore: item already exists")

// ErrVersionConflict is returned by CompareAndSave when the stored document
// has moved past the caller's base version.
var ErrVersionConflict = fmt.Errorf("%w: stale version", ErrConflict)

// ErrNotFound is returned by Update and CompareAndSave when the key does not
// exist. Point lookups never return it; they return a nil document instead.
var ErrNotFound = errors.New("docstore: item not found")

// UnknownIndexError reports a query against an index name the table does not
// declare. This is a programming error, not a runtime data error.
type UnknownIndexError struct {
	Table string
	Index string
}

func (e *UnknownIndexError) Error() string {
	return fmt.Sprintf("docstore: table %s has no index %q", e.Table, e.Index)
}

// IsRetryable reports whether an error is a transient store-level failure
// (connection loss, serialization failure, resource exhaustion) that a caller
// may retry with backoff. Validation, conflict, and not-found errors are
// never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"57P03": // cannot_connect_now
			return true
		}
		if len(pgErr.Code) >= 2 {
			switch pgErr.Code[:2] {
			case "08": // connection exceptions
				return true
			case "53": // insufficient resources
				return true
			}
		}
	}
	return false
}
