package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

// Register enrolls a new patient at an organization.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.OrganizationID == "" {
		return fmt.Errorf("organizationId is required")
	}
	if p.PatientID == "" {
		p.PatientID = "pt-" + uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Status != StatusActive && p.Status != StatusWithdrawn {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.ParticipatingStudies == nil {
		p.ParticipatingStudies = []string{}
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.patients.FindByID(ctx, id)
}

func (s *Service) ListByOrganization(ctx context.Context, organizationID string, limit int, cursor string) ([]*Patient, string, error) {
	return s.patients.ListByOrganization(ctx, organizationID, limit, cursor)
}

type UpdateParams struct {
	Code      *string `json:"code"`
	Name      *string `json:"name"`
	BirthDate *string `json:"birthDate"`
	Gender    *string `json:"gender"`
}

func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*Patient, error) {
	fields := docstore.Document{}
	if p.Code != nil {
		fields["code"] = *p.Code
	}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.BirthDate != nil {
		fields["birthDate"] = *p.BirthDate
	}
	if p.Gender != nil {
		fields["gender"] = *p.Gender
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	return s.patients.Update(ctx, id, fields)
}

// Withdraw transitions the patient out of active participation. The record
// and its examination history stay.
func (s *Service) Withdraw(ctx context.Context, id string) (*Patient, error) {
	return s.patients.Update(ctx, id, docstore.Document{"status": StatusWithdrawn})
}

// AddToStudy records study participation. Idempotent for an already-listed
// study.
func (s *Service) AddToStudy(ctx context.Context, id, clinicalStudyID string) (*Patient, error) {
	if clinicalStudyID == "" {
		return nil, fmt.Errorf("clinicalStudyId is required")
	}
	p, err := s.patients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: patient %s", docstore.ErrNotFound, id)
	}
	if p.Status == StatusWithdrawn {
		return nil, fmt.Errorf("patient %s has withdrawn", id)
	}
	for _, existing := range p.ParticipatingStudies {
		if existing == clinicalStudyID {
			return p, nil
		}
	}
	studies := append(p.ParticipatingStudies, clinicalStudyID)
	return s.patients.Update(ctx, id, docstore.Document{"participatingStudies": studies})
}
