package patient

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type mockRepo struct {
	data map[string]docstore.Document
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[string]docstore.Document{}}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if _, ok := m.data[p.PatientID]; ok {
		return fmt.Errorf("%w: patient %s", docstore.ErrConflict, p.PatientID)
	}
	doc, err := toDocument(p)
	if err != nil {
		return err
	}
	m.data[p.PatientID] = doc
	return nil
}

func (m *mockRepo) FindByID(_ context.Context, id string) (*Patient, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return fromDocument(doc)
}

func (m *mockRepo) Update(_ context.Context, id string, fields docstore.Document) (*Patient, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: patient %s", docstore.ErrNotFound, id)
	}
	for attr, value := range fields {
		doc[attr] = value
	}
	return fromDocument(doc)
}

func (m *mockRepo) ListByOrganization(_ context.Context, organizationID string, limit int, cursor string) ([]*Patient, string, error) {
	var out []*Patient
	for _, doc := range m.data {
		p, err := fromDocument(doc)
		if err != nil {
			return nil, "", err
		}
		if p.OrganizationID == organizationID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PatientID < out[j].PatientID })
	return out, "", nil
}

func TestRegister(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Patient{OrganizationID: "org-1", Code: "P001"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PatientID == "" {
		t.Error("expected generated patientId")
	}
	if p.Status != StatusActive {
		t.Errorf("expected active, got %s", p.Status)
	}
}

func TestRegister_RequiresOrganization(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Register(context.Background(), &Patient{}); err == nil {
		t.Error("expected error for missing organizationId")
	}
}

func TestWithdraw_KeepsRecord(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Register(ctx, &Patient{PatientID: "pt-1", OrganizationID: "org-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := svc.Withdraw(ctx, "pt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusWithdrawn {
		t.Errorf("expected withdrawn, got %s", p.Status)
	}

	got, err := svc.Get(ctx, "pt-1")
	if err != nil || got == nil {
		t.Fatalf("withdrawn patient must remain readable, got %v, %v", got, err)
	}
}

func TestAddToStudy(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Register(ctx, &Patient{PatientID: "pt-1", OrganizationID: "org-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := svc.AddToStudy(ctx, "pt-1", "cs-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.ParticipatingStudies) != 1 {
		t.Errorf("unexpected studies: %v", p.ParticipatingStudies)
	}

	// Idempotent.
	p, err = svc.AddToStudy(ctx, "pt-1", "cs-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.ParticipatingStudies) != 1 {
		t.Errorf("expected deduplication, got %v", p.ParticipatingStudies)
	}

	// Withdrawn patients cannot join studies.
	if _, err := svc.Withdraw(ctx, "pt-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddToStudy(ctx, "pt-1", "cs-2"); err == nil {
		t.Error("expected error for withdrawn patient")
	}
}

func TestListByOrganization(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		org := "org-1"
		if i == 2 {
			org = "org-2"
		}
		err := svc.Register(ctx, &Patient{PatientID: fmt.Sprintf("pt-%d", i), OrganizationID: org})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	patients, _, err := svc.ListByOrganization(ctx, "org-1", 20, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 2 {
		t.Errorf("expected 2 patients, got %d", len(patients))
	}
}
