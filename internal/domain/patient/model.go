package patient

import (
	"encoding/json"
	"fmt"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	StatusActive    = "active"
	StatusWithdrawn = "withdrawn"
)

// Patient is a study participant registered at one organization. Withdrawal
// is a status transition; patient records are never hard-deleted.
type Patient struct {
	PatientID            string   `json:"patientId"`
	OrganizationID       string   `json:"organizationId"`
	Code                 string   `json:"code,omitempty"`
	Name                 string   `json:"name,omitempty"`
	BirthDate            string   `json:"birthDate,omitempty"`
	Gender               string   `json:"gender,omitempty"`
	Status               string   `json:"status"`
	ParticipatingStudies []string `json:"participatingStudies"`
	CreatedAt            string   `json:"createdAt,omitempty"`
	UpdatedAt            string   `json:"updatedAt,omitempty"`
}

func toDocument(p *Patient) (docstore.Document, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal patient: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*Patient, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var p Patient
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("unmarshal patient: %w", err)
	}
	return &p, nil
}
