package study

import (
	"context"
	"fmt"
	"testing"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type mockRepo struct {
	data map[string]docstore.Document
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[string]docstore.Document{}}
}

func (m *mockRepo) Create(_ context.Context, s *ClinicalStudy) error {
	if _, ok := m.data[s.ClinicalStudyID]; ok {
		return fmt.Errorf("%w: study %s", docstore.ErrConflict, s.ClinicalStudyID)
	}
	doc, err := toDocument(s)
	if err != nil {
		return err
	}
	m.data[s.ClinicalStudyID] = doc
	return nil
}

func (m *mockRepo) FindByID(_ context.Context, id string) (*ClinicalStudy, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return fromDocument(doc)
}

func (m *mockRepo) Update(_ context.Context, id string, fields docstore.Document) (*ClinicalStudy, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: study %s", docstore.ErrNotFound, id)
	}
	for attr, value := range fields {
		doc[attr] = value
	}
	return fromDocument(doc)
}

func (m *mockRepo) List(_ context.Context) ([]*ClinicalStudy, error) {
	var out []*ClinicalStudy
	for _, doc := range m.data {
		s, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func TestCreate_DefaultsAndID(t *testing.T) {
	svc := NewService(newMockRepo())
	st := &ClinicalStudy{Name: "Lens Comfort Study"}
	if err := svc.Create(context.Background(), st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ClinicalStudyID == "" {
		t.Error("expected generated clinicalStudyId")
	}
	if st.Status != StatusDraft {
		t.Errorf("expected default status draft, got %s", st.Status)
	}
}

func TestCreate_RejectsUnknownExaminationKind(t *testing.T) {
	svc := NewService(newMockRepo())
	st := &ClinicalStudy{
		Name: "Bad Protocol",
		VisitTemplates: []VisitTemplate{{
			VisitNumber:          1,
			Name:                 "Baseline",
			RequiredExaminations: []string{"basicInfo", "phrenology"},
		}},
	}
	if err := svc.Create(context.Background(), st); err == nil {
		t.Error("expected error for unknown examination kind")
	}
}

func TestCreate_AcceptsValidProtocol(t *testing.T) {
	svc := NewService(newMockRepo())
	st := &ClinicalStudy{
		Name: "Protocol A",
		VisitTemplates: []VisitTemplate{{
			VisitNumber:          1,
			Name:                 "Baseline",
			DayOffset:            0,
			WindowBeforeDays:     3,
			WindowAfterDays:      3,
			RequiredExaminations: []string{"basicInfo", "vas"},
			ExaminationOrder:     []string{"basicInfo", "vas"},
		}},
		ExaminationConfigs: []ExaminationConfig{
			{Kind: "basicInfo", Required: true},
			{Kind: "vas", Required: true},
		},
	}
	if err := svc.Create(context.Background(), st); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSetVisitTemplates_Validates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Create(ctx, &ClinicalStudy{ClinicalStudyID: "cs-1", Name: "Protocol A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.SetVisitTemplates(ctx, "cs-1", []VisitTemplate{{
		VisitNumber: 1, Name: "Week 1", RequiredExaminations: []string{"bogus"},
	}})
	if err == nil {
		t.Error("expected error for unknown kind in template")
	}

	updated, err := svc.SetVisitTemplates(ctx, "cs-1", []VisitTemplate{{
		VisitNumber: 1, Name: "Week 1", RequiredExaminations: []string{"vas"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.VisitTemplates) != 1 || updated.VisitTemplates[0].Name != "Week 1" {
		t.Errorf("unexpected templates: %+v", updated.VisitTemplates)
	}
}

func TestUpdate_Status(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Create(ctx, &ClinicalStudy{ClinicalStudyID: "cs-1", Name: "Protocol A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := "finished"
	if _, err := svc.Update(ctx, "cs-1", UpdateParams{Status: &bad}); err == nil {
		t.Error("expected error for invalid status")
	}

	good := StatusActive
	st, err := svc.Update(ctx, "cs-1", UpdateParams{Status: &good})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status != StatusActive {
		t.Errorf("expected active, got %s", st.Status)
	}
}
