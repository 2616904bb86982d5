package organization

import (
	"encoding/json"
	"fmt"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Organization is a clinical site. It owns zero or more active studies by ID
// reference. Organizations are never hard-deleted; deactivation flips status.
type Organization struct {
	OrganizationID string   `json:"organizationId"`
	Name           string   `json:"name"`
	Address        string   `json:"address,omitempty"`
	ContactEmail   string   `json:"contactEmail,omitempty"`
	Status         string   `json:"status"`
	ActiveStudies  []string `json:"activeStudies"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

func toDocument(o *Organization) (docstore.Document, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal organization: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*Organization, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var o Organization
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("unmarshal organization: %w", err)
	}
	return &o, nil
}
