package survey

import (
	"encoding/json"
	"fmt"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusWithdrawn = "withdrawn"
)

// Survey is one patient's enrollment instance in one clinical study. Its
// completion percentage is derived from its visits and recomputed on every
// visit change, never edited directly.
type Survey struct {
	SurveyID             string  `json:"surveyId"`
	PatientID            string  `json:"patientId"`
	ClinicalStudyID      string  `json:"clinicalStudyId"`
	OrganizationID       string  `json:"organizationId"`
	Status               string  `json:"status"`
	CompletionPercentage float64 `json:"completionPercentage"`
	CreatedAt            string  `json:"createdAt,omitempty"`
	UpdatedAt            string  `json:"updatedAt,omitempty"`
}

func toDocument(s *Survey) (docstore.Document, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal survey: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*Survey, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var s Survey
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("unmarshal survey: %w", err)
	}
	return &s, nil
}
