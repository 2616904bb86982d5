package survey

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Service struct {
	surveys Repository
}

func NewService(surveys Repository) *Service {
	return &Service{surveys: surveys}
}

// Enroll creates the survey for one patient × one study. A second enrollment
// of the same patient in the same study is a conflict.
func (s *Service) Enroll(ctx context.Context, sv *Survey) error {
	if sv.PatientID == "" {
		return fmt.Errorf("patientId is required")
	}
	if sv.ClinicalStudyID == "" {
		return fmt.Errorf("clinicalStudyId is required")
	}
	if sv.OrganizationID == "" {
		return fmt.Errorf("organizationId is required")
	}

	existing, err := s.surveys.ListByPatient(ctx, sv.PatientID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ClinicalStudyID == sv.ClinicalStudyID && e.Status != StatusWithdrawn {
			return fmt.Errorf("%w: patient %s already enrolled in study %s",
				docstore.ErrConflict, sv.PatientID, sv.ClinicalStudyID)
		}
	}

	if sv.SurveyID == "" {
		sv.SurveyID = "sv-" + uuid.NewString()
	}
	if sv.Status == "" {
		sv.Status = StatusActive
	}
	return s.surveys.Create(ctx, sv)
}

func (s *Service) Get(ctx context.Context, id string) (*Survey, error) {
	return s.surveys.FindByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Survey, error) {
	return s.surveys.ListByPatient(ctx, patientID)
}

func (s *Service) ListByStudy(ctx context.Context, clinicalStudyID string, limit int, cursor string) ([]*Survey, string, error) {
	return s.surveys.ListByStudy(ctx, clinicalStudyID, limit, cursor)
}

// UpdateCompletion stores the completion percentage aggregated over the
// survey's visits. The visit domain calls this whenever a visit's completion
// changes; the stored value is a derived cache, never authoritative.
func (s *Service) UpdateCompletion(ctx context.Context, surveyID string, pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("completion percentage %g outside 0-100", pct)
	}
	fields := docstore.Document{"completionPercentage": pct}
	if pct >= 100 {
		fields["status"] = StatusCompleted
	}
	_, err := s.surveys.Update(ctx, surveyID, fields)
	return err
}

// Withdraw marks the enrollment withdrawn. The survey and its visit history
// remain readable.
func (s *Service) Withdraw(ctx context.Context, surveyID string) (*Survey, error) {
	return s.surveys.Update(ctx, surveyID, docstore.Document{"status": StatusWithdrawn})
}
