package survey

import (
	"context"
	"errors"
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

func (m *mockRepo) Create(_ context.Context, s *Survey) error {
	if _, ok := m.data[s.SurveyID]; ok {
		return fmt.Errorf("%w: survey %s", docstore.ErrConflict, s.SurveyID)
	}
	doc, err := toDocument(s)
	if err != nil {
		return err
	}
	m.data[s.SurveyID] = doc
	return nil
}

func (m *mockRepo) FindByID(_ context.Context, id string) (*Survey, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return fromDocument(doc)
}

func (m *mockRepo) Update(_ context.Context, id string, fields docstore.Document) (*Survey, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: survey %s", docstore.ErrNotFound, id)
	}
	for attr, value := range fields {
		doc[attr] = value
	}
	return fromDocument(doc)
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string) ([]*Survey, error) {
	var out []*Survey
	for _, doc := range m.data {
		s, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		if s.PatientID == patientID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByStudy(_ context.Context, clinicalStudyID string, limit int, cursor string) ([]*Survey, string, error) {
	var out []*Survey
	for _, doc := range m.data {
		s, err := fromDocument(doc)
		if err != nil {
			return nil, "", err
		}
		if s.ClinicalStudyID == clinicalStudyID {
			out = append(out, s)
		}
	}
	return out, "", nil
}

func TestEnroll(t *testing.T) {
	svc := NewService(newMockRepo())
	sv := &Survey{PatientID: "pt-1", ClinicalStudyID: "cs-1", OrganizationID: "org-1"}
	if err := svc.Enroll(context.Background(), sv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sv.SurveyID == "" {
		t.Error("expected generated surveyId")
	}
	if sv.Status != StatusActive {
		t.Errorf("expected active, got %s", sv.Status)
	}
}

func TestEnroll_OnePatientOneStudy(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	first := &Survey{PatientID: "pt-1", ClinicalStudyID: "cs-1", OrganizationID: "org-1"}
	if err := svc.Enroll(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Enroll(ctx, &Survey{PatientID: "pt-1", ClinicalStudyID: "cs-1", OrganizationID: "org-1"})
	if !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("expected conflict for duplicate enrollment, got %v", err)
	}

	// A different study is fine.
	err = svc.Enroll(ctx, &Survey{PatientID: "pt-1", ClinicalStudyID: "cs-2", OrganizationID: "org-1"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Re-enrollment after withdrawal is allowed.
	if _, err := svc.Withdraw(ctx, first.SurveyID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = svc.Enroll(ctx, &Survey{PatientID: "pt-1", ClinicalStudyID: "cs-1", OrganizationID: "org-1"})
	if err != nil {
		t.Errorf("expected re-enrollment after withdrawal, got %v", err)
	}
}

func TestUpdateCompletion(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	sv := &Survey{SurveyID: "sv-1", PatientID: "pt-1", ClinicalStudyID: "cs-1", OrganizationID: "org-1"}
	if err := svc.Enroll(ctx, sv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.UpdateCompletion(ctx, "sv-1", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.Get(ctx, "sv-1")
	if got.CompletionPercentage != 50 || got.Status != StatusActive {
		t.Errorf("unexpected survey: %+v", got)
	}

	if err := svc.UpdateCompletion(ctx, "sv-1", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = svc.Get(ctx, "sv-1")
	if got.Status != StatusCompleted {
		t.Errorf("expected completed at 100%%, got %s", got.Status)
	}

	if err := svc.UpdateCompletion(ctx, "sv-1", 120); err == nil {
		t.Error("expected error for out-of-range percentage")
	}
}
