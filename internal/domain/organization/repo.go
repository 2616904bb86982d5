package organization

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Repository interface {
	Create(ctx context.Context, o *Organization) error
	FindByID(ctx context.Context, id string) (*Organization, error)
	Update(ctx context.Context, id string, fields docstore.Document) (*Organization, error)
	// List scans the whole table; organization counts are small.
	List(ctx context.Context) ([]*Organization, error)
}
