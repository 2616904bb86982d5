package visit

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	Find(ctx context.Context, surveyID, visitID string) (*Visit, error)
	// FindByVisitID locates a visit without knowing its survey, through the
	// visit-id index. Visit IDs are globally unique.
	FindByVisitID(ctx context.Context, visitID string) (*Visit, error)
	Update(ctx context.Context, surveyID, visitID string, fields docstore.Document) (*Visit, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]*Visit, error)
}
