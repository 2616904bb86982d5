package organization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type mockRepo struct {
	data map[string]docstore.Document
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[string]docstore.Document{}}
}

func (m *mockRepo) Create(_ context.Context, o *Organization) error {
	if _, ok := m.data[o.OrganizationID]; ok {
		return fmt.Errorf("%w: organization %s", docstore.ErrConflict, o.OrganizationID)
	}
	doc, err := toDocument(o)
	if err != nil {
		return err
	}
	doc["createdAt"] = docstore.Timestamp(time.Now())
	doc["updatedAt"] = doc["createdAt"]
	m.data[o.OrganizationID] = doc
	return nil
}

func (m *mockRepo) FindByID(_ context.Context, id string) (*Organization, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return fromDocument(doc)
}

func (m *mockRepo) Update(_ context.Context, id string, fields docstore.Document) (*Organization, error) {
	doc, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: organization %s", docstore.ErrNotFound, id)
	}
	for attr, value := range fields {
		doc[attr] = value
	}
	doc["updatedAt"] = docstore.Timestamp(time.Now())
	return fromDocument(doc)
}

func (m *mockRepo) List(_ context.Context) ([]*Organization, error) {
	var out []*Organization
	for _, doc := range m.data {
		o, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func TestCreate_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	o := &Organization{Name: "Site A"}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.OrganizationID == "" {
		t.Error("expected generated organizationId")
	}
	if o.Status != StatusActive {
		t.Errorf("expected default status active, got %s", o.Status)
	}
}

func TestCreate_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Create(context.Background(), &Organization{}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	o := &Organization{OrganizationID: "org-1", Name: "Site A"}
	if err := svc.Create(context.Background(), o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.Create(context.Background(), &Organization{OrganizationID: "org-1", Name: "Site A again"})
	if err == nil {
		t.Fatal("expected conflict on duplicate create")
	}
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	o := &Organization{OrganizationID: "org-1", Name: "Site A"}
	if err := svc.Create(ctx, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Deactivate(ctx, "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusInactive {
		t.Errorf("expected inactive, got %s", updated.Status)
	}

	// Soft delete: record still readable.
	got, err := svc.Get(ctx, "org-1")
	if err != nil || got == nil {
		t.Fatalf("expected deactivated organization still present, got %v, %v", got, err)
	}
}

func TestAddAndRemoveStudy(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	if err := svc.Create(ctx, &Organization{OrganizationID: "org-1", Name: "Site A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o, err := svc.AddStudy(ctx, "org-1", "cs-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.ActiveStudies) != 1 || o.ActiveStudies[0] != "cs-1" {
		t.Errorf("unexpected active studies: %v", o.ActiveStudies)
	}

	// Adding the same study twice is a no-op.
	o, err = svc.AddStudy(ctx, "org-1", "cs-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.ActiveStudies) != 1 {
		t.Errorf("expected deduplicated studies, got %v", o.ActiveStudies)
	}

	o, err = svc.RemoveStudy(ctx, "org-1", "cs-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.ActiveStudies) != 0 {
		t.Errorf("expected empty studies, got %v", o.ActiveStudies)
	}
}

func TestUpdate_NoFields(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Update(context.Background(), "org-1", UpdateParams{}); err == nil {
		t.Error("expected error for empty update")
	}
}
