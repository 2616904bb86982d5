package organization

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type Service struct {
	orgs Repository
}

func NewService(orgs Repository) *Service {
	return &Service{orgs: orgs}
}

func (s *Service) Create(ctx context.Context, o *Organization) error {
	if o.Name == "" {
		return fmt.Errorf("name is required")
	}
	if o.OrganizationID == "" {
		o.OrganizationID = "org-" + uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusActive
	}
	if o.Status != StatusActive && o.Status != StatusInactive {
		return fmt.Errorf("invalid status: %s", o.Status)
	}
	if o.ActiveStudies == nil {
		o.ActiveStudies = []string{}
	}
	return s.orgs.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id string) (*Organization, error) {
	return s.orgs.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Organization, error) {
	return s.orgs.List(ctx)
}

// UpdateParams carries the mutable organization attributes. Nil fields are
// left untouched.
type UpdateParams struct {
	Name         *string `json:"name"`
	Address      *string `json:"address"`
	ContactEmail *string `json:"contactEmail"`
}

func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*Organization, error) {
	fields := docstore.Document{}
	if p.Name != nil {
		if *p.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		fields["name"] = *p.Name
	}
	if p.Address != nil {
		fields["address"] = *p.Address
	}
	if p.ContactEmail != nil {
		fields["contactEmail"] = *p.ContactEmail
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	return s.orgs.Update(ctx, id, fields)
}

// Deactivate is the soft delete: organizations keep their history and flip to
// inactive.
func (s *Service) Deactivate(ctx context.Context, id string) (*Organization, error) {
	return s.orgs.Update(ctx, id, docstore.Document{"status": StatusInactive})
}

// AddStudy records a study as active at this organization. Last writer wins
// on concurrent list edits.
func (s *Service) AddStudy(ctx context.Context, id, clinicalStudyID string) (*Organization, error) {
	if clinicalStudyID == "" {
		return nil, fmt.Errorf("clinicalStudyId is required")
	}
	o, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: organization %s", docstore.ErrNotFound, id)
	}
	for _, existing := range o.ActiveStudies {
		if existing == clinicalStudyID {
			return o, nil
		}
	}
	studies := append(o.ActiveStudies, clinicalStudyID)
	return s.orgs.Update(ctx, id, docstore.Document{"activeStudies": studies})
}

// RemoveStudy drops a study from the active list. Removing an absent entry is
// not an error.
func (s *Service) RemoveStudy(ctx context.Context, id, clinicalStudyID string) (*Organization, error) {
	o, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: organization %s", docstore.ErrNotFound, id)
	}
	studies := make([]string, 0, len(o.ActiveStudies))
	for _, existing := range o.ActiveStudies {
		if existing != clinicalStudyID {
			studies = append(studies, existing)
		}
	}
	return s.orgs.Update(ctx, id, docstore.Document{"activeStudies": studies})
}
