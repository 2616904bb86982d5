package patient

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	FindByID(ctx context.Context, id string) (*Patient, error)
	Update(ctx context.Context, id string, fields docstore.Document) (*Patient, error)
	ListByOrganization(ctx context.Context, organizationID string, limit int, cursor string) ([]*Patient, string, error)
}
