package examination

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// Kind is one of the eight examination categories. Each kind lives in its own
// table and carries its own field schema inside Data.
type Kind string

const (
	KindBasicInfo         Kind = "basicInfo"
	KindVAS               Kind = "vas"
	KindComparativeScores Kind = "comparativeScores"
	KindFitting           Kind = "fitting"
	KindDR1               Kind = "dr1"
	KindCorrectedVA       Kind = "correctedVA"
	KindLensInspection    Kind = "lensInspection"
	KindQuestionnaire     Kind = "questionnaire"
)

// kindPrefixes supplies the ID prefix per kind.
var kindPrefixes = map[Kind]string{
	KindBasicInfo:         "bi",
	KindVAS:               "vas",
	KindComparativeScores: "cs",
	KindFitting:           "fit",
	KindDR1:               "dr1",
	KindCorrectedVA:       "cva",
	KindLensInspection:    "li",
	KindQuestionnaire:     "q",
}

// Kinds returns every examination kind in canonical order.
func Kinds() []Kind {
	return []Kind{
		KindBasicInfo, KindVAS, KindComparativeScores, KindFitting,
		KindDR1, KindCorrectedVA, KindLensInspection, KindQuestionnaire,
	}
}

func ValidKind(k Kind) bool {
	_, ok := kindPrefixes[k]
	return ok
}

// EyeSide splits every examination into a right and a left record.
type EyeSide string

const (
	EyeRight EyeSide = "right"
	EyeLeft  EyeSide = "left"
)

func ValidEyeSide(e EyeSide) bool {
	return e == EyeRight || e == EyeLeft
}

// Examination is one measurement record for one (visit, kind, eye). The
// survey, patient, study, and organization IDs are denormalized so indexed
// lookups never join back through Visit and Survey.
type Examination struct {
	ExaminationID   string                 `json:"examinationId"`
	Kind            Kind                   `json:"kind"`
	EyeSide         EyeSide                `json:"eyeside"`
	VisitID         string                 `json:"visitId"`
	SurveyID        string                 `json:"surveyId"`
	PatientID       string                 `json:"patientId"`
	ClinicalStudyID string                 `json:"clinicalStudyId"`
	OrganizationID  string                 `json:"organizationId"`
	Data            map[string]interface{} `json:"data"`
	CreatedAt       string                 `json:"createdAt,omitempty"`
	UpdatedAt       string                 `json:"updatedAt,omitempty"`
}

// newExaminationID builds an ID from the kind prefix, the eye side, and a
// random component, so concurrent same-millisecond creates cannot collide.
func newExaminationID(kind Kind, eye EyeSide) string {
	return fmt.Sprintf("%s-%s-%s", kindPrefixes[kind], eye, uuid.NewString())
}

func toDocument(e *Examination) (docstore.Document, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal examination: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc docstore.Document) (*Examination, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var e Examination
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("unmarshal examination: %w", err)
	}
	return &e, nil
}
