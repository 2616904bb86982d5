package study

import (
	"encoding/json"
	"fmt"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusSuspended = "suspended"
)

// VisitTemplate is one protocol-defined encounter. Visits are instantiated
// from these when a survey is created.
type VisitTemplate struct {
	VisitNumber          int      `json:"visitNumber"`
	Name                 string   `json:"name"`
	DayOffset            int      `json:"dayOffset"`
	WindowBeforeDays     int      `json:"windowBeforeDays"`
	WindowAfterDays      int      `json:"windowAfterDays"`
	RequiredExaminations []string `json:"requiredExaminations"`
	OptionalExaminations []string `json:"optionalExaminations"`
	ExaminationOrder     []string `json:"examinationOrder"`
}

// ExaminationConfig declares one examination kind's role in the protocol.
type ExaminationConfig struct {
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

// ClinicalStudy is a protocol definition: an ordered visit plan plus the
// examination kinds the protocol collects.
type ClinicalStudy struct {
	ClinicalStudyID    string              `json:"clinicalStudyId"`
	Name               string              `json:"name"`
	ProtocolNumber     string              `json:"protocolNumber,omitempty"`
	Description        string              `json:"description,omitempty"`
	Status             string              `json:"status"`
	VisitTemplates     []VisitTemplate     `json:"visitTemplates"`
	ExaminationConfigs []ExaminationConfig `json:"examinationConfigs"`
	CreatedAt          string              `json:"createdAt,omitempty"`
	UpdatedAt          string              `json:"updatedAt,omitempty"`
}

func toDocument(s *ClinicalStudy) (docstore.Document, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal clinical study: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*ClinicalStudy, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var s ClinicalStudy
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("unmarshal clinical study: %w", err)
	}
	return &s, nil
}
