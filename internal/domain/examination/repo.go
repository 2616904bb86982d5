package examination

import "context"

type Repository interface {
	Create(ctx context.Context, e *Examination) error
	FindByVisit(ctx context.Context, kind Kind, visitID string) ([]*Examination, error)
	FindByVisitAndEye(ctx context.Context, kind Kind, visitID string, eye EyeSide) (*Examination, error)
	FindBySurvey(ctx context.Context, kind Kind, surveyID string) ([]*Examination, error)
	FindBySurveyAndEye(ctx context.Context, kind Kind, surveyID string, eye EyeSide) ([]*Examination, error)
	Delete(ctx context.Context, kind Kind, visitID, examinationID string) error
}
