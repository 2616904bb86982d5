package visit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Window classification for protocol-deviation detection.
const (
	WindowEarly = "early"
	WindowIn    = "in_window"
	WindowLate  = "late"
)

// Visit is one scheduled encounter within a survey. The examination lists
// come from the study's visit template; completion percentage is derived
// from completed vs required+optional and recomputed on every change.
type Visit struct {
	VisitID               string   `json:"visitId"`
	SurveyID              string   `json:"surveyId"`
	PatientID             string   `json:"patientId"`
	ClinicalStudyID       string   `json:"clinicalStudyId"`
	OrganizationID        string   `json:"organizationId"`
	Name                  string   `json:"name"`
	VisitNumber           int      `json:"visitNumber"`
	ScheduledDate         string   `json:"scheduledDate,omitempty"`
	WindowStartDate       string   `json:"windowStartDate,omitempty"`
	WindowEndDate         string   `json:"windowEndDate,omitempty"`
	RequiredExaminations  []string `json:"requiredExaminations"`
	OptionalExaminations  []string `json:"optionalExaminations"`
	ExaminationOrder      []string `json:"examinationOrder"`
	CompletedExaminations []string `json:"completedExaminations"`
	SkippedExaminations   []string `json:"skippedExaminations"`
	Status                string   `json:"status"`
	CompletionPercentage  float64  `json:"completionPercentage"`
	CreatedAt             string   `json:"createdAt,omitempty"`
	UpdatedAt             string   `json:"updatedAt,omitempty"`
}

// CompletionPct derives completion as completed/(required+optional). A visit
// without examinations reads as 0.
func (v *Visit) CompletionPct() float64 {
	total := len(v.RequiredExaminations) + len(v.OptionalExaminations)
	if total == 0 {
		return 0
	}
	completed := 0
	planned := map[string]bool{}
	for _, e := range v.RequiredExaminations {
		planned[e] = true
	}
	for _, e := range v.OptionalExaminations {
		planned[e] = true
	}
	for _, e := range v.CompletedExaminations {
		if planned[e] {
			completed++
		}
	}
	return float64(completed) / float64(total) * 100
}

// CheckWindow classifies an actual visit date against the protocol window.
// Dates are calendar dates (2026-03-14); a missing window reads as in-window.
func (v *Visit) CheckWindow(actualDate string) (string, error) {
	actual, err := parseDate(actualDate)
	if err != nil {
		return "", fmt.Errorf("invalid actual date: %w", err)
	}
	if v.WindowStartDate != "" {
		start, err := parseDate(v.WindowStartDate)
		if err != nil {
			return "", fmt.Errorf("invalid window start: %w", err)
		}
		if actual.Before(start) {
			return WindowEarly, nil
		}
	}
	if v.WindowEndDate != "" {
		end, err := parseDate(v.WindowEndDate)
		if err != nil {
			return "", fmt.Errorf("invalid window end: %w", err)
		}
		if actual.After(end) {
			return WindowLate, nil
		}
	}
	return WindowIn, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func toDocument(v *Visit) (docstore.Document, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal visit: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*Visit, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var v Visit
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("unmarshal visit: %w", err)
	}
	return &v, nil
}
