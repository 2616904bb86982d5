package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/domain/examination"
	"github.com/trialdata/trialdata/internal/platform/docstore"
)

var validStatuses = map[string]bool{
	StatusDraft: true, StatusActive: true, StatusCompleted: true, StatusSuspended: true,
}

type Service struct {
	studies Repository
}

func NewService(studies Repository) *Service {
	return &Service{studies: studies}
}

func (s *Service) Create(ctx context.Context, st *ClinicalStudy) error {
	if st.Name == "" {
		return fmt.Errorf("name is required")
	}
	if st.ClinicalStudyID == "" {
		st.ClinicalStudyID = "cs-" + uuid.NewString()
	}
	if st.Status == "" {
		st.Status = StatusDraft
	}
	if !validStatuses[st.Status] {
		return fmt.Errorf("invalid status: %s", st.Status)
	}
	if err := validateProtocol(st); err != nil {
		return err
	}
	if st.VisitTemplates == nil {
		st.VisitTemplates = []VisitTemplate{}
	}
	if st.ExaminationConfigs == nil {
		st.ExaminationConfigs = []ExaminationConfig{}
	}
	return s.studies.Create(ctx, st)
}

// validateProtocol checks every examination reference in templates and
// configs against the known examination kinds.
func validateProtocol(st *ClinicalStudy) error {
	for _, cfg := range st.ExaminationConfigs {
		if !examination.ValidKind(examination.Kind(cfg.Kind)) {
			return fmt.Errorf("examination config references unknown kind %q", cfg.Kind)
		}
	}
	for _, tpl := range st.VisitTemplates {
		if tpl.Name == "" {
			return fmt.Errorf("visit template %d: name is required", tpl.VisitNumber)
		}
		for _, lists := range [][]string{tpl.RequiredExaminations, tpl.OptionalExaminations, tpl.ExaminationOrder} {
			for _, kind := range lists {
				if !examination.ValidKind(examination.Kind(kind)) {
					return fmt.Errorf("visit template %q references unknown examination kind %q", tpl.Name, kind)
				}
			}
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*ClinicalStudy, error) {
	return s.studies.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*ClinicalStudy, error) {
	return s.studies.List(ctx)
}

type UpdateParams struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*ClinicalStudy, error) {
	fields := docstore.Document{}
	if p.Name != nil {
		if *p.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		fields["name"] = *p.Name
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Status != nil {
		if !validStatuses[*p.Status] {
			return nil, fmt.Errorf("invalid status: %s", *p.Status)
		}
		fields["status"] = *p.Status
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	return s.studies.Update(ctx, id, fields)
}

// SetVisitTemplates replaces the protocol's visit plan wholesale. Templates
// are a unit; partial edits would let the plan drift out of order.
func (s *Service) SetVisitTemplates(ctx context.Context, id string, templates []VisitTemplate) (*ClinicalStudy, error) {
	probe := &ClinicalStudy{VisitTemplates: templates}
	if err := validateProtocol(probe); err != nil {
		return nil, err
	}
	return s.studies.Update(ctx, id, docstore.Document{"visitTemplates": templates})
}

func (s *Service) SetExaminationConfigs(ctx context.Context, id string, configs []ExaminationConfig) (*ClinicalStudy, error) {
	probe := &ClinicalStudy{ExaminationConfigs: configs}
	if err := validateProtocol(probe); err != nil {
		return nil, err
	}
	return s.studies.Update(ctx, id, docstore.Document{"examinationConfigs": configs})
}
