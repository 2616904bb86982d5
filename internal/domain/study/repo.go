package study

import (
	"context"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Repository interface {
	Create(ctx context.Context, s *ClinicalStudy) error
	FindByID(ctx context.Context, id string) (*ClinicalStudy, error)
	Update(ctx context.Context, id string, fields docstore.Document) (*ClinicalStudy, error)
	List(ctx context.Context) ([]*ClinicalStudy, error)
}
