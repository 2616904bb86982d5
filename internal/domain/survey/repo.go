package survey

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Repository interface {
	Create(ctx context.Context, s *Survey) error
	FindByID(ctx context.Context, id string) (*Survey, error)
	Update(ctx context.Context, id string, fields docstore.Document) (*Survey, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Survey, error)
	ListByStudy(ctx context.Context, clinicalStudyID string, limit int, cursor string) ([]*Survey, string, error)
}
