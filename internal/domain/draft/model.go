package draft

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

const (
	// CurrentID is the fixed sort key of the one live draft per visit.
	CurrentID = "current"

	// draftTTL is the expiry horizon, refreshed on every write.
	draftTTL = 30 * 24 * time.Hour
	// backupTTL is the shorter horizon for backup copies.
	backupTTL = 7 * 24 * time.Hour
)

// EyeData holds one examination panel's payload per eye.
type EyeData map[string]map[string]interface{}

// Draft is the work-in-progress form state for one visit: all examination
// panels for both eyes, held in one mutable record until final submission
// fans them out into examination records. The version counter is the
// optimistic concurrency token compared on autosave.
type Draft struct {
	VisitID          string             `json:"visitId"`
	DraftID          string             `json:"draftId"`
	ExaminationOrder []string           `json:"examinationOrder"`
	FormData         map[string]EyeData `json:"formData"`
	CurrentStep      int                `json:"currentStep"`
	CompletedSteps   []int              `json:"completedSteps"`
	AutoSaved        bool               `json:"autoSaved"`
	LastSaved        string             `json:"lastSaved,omitempty"`
	Version          int                `json:"version"`
	TTL              string             `json:"ttl,omitempty"`
	CreatedAt        string             `json:"createdAt,omitempty"`
	UpdatedAt        string             `json:"updatedAt,omitempty"`
}

// eyes returns the populated eye payloads of one panel: data present and
// non-empty.
func (d *Draft) eyes(exam string) map[string]map[string]interface{} {
	populated := map[string]map[string]interface{}{}
	for eye, data := range d.FormData[exam] {
		if len(data) > 0 {
			populated[eye] = data
		}
	}
	return populated
}

// touch restamps the save metadata and pushes the expiry forward.
func (d *Draft) touch(autoSaved bool, at time.Time) {
	d.AutoSaved = autoSaved
	d.LastSaved = docstore.Timestamp(at)
	d.TTL = docstore.Timestamp(at.Add(draftTTL))
}

func toDocument(d *Draft) (docstore.Document, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*Draft, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return &d, nil
}
