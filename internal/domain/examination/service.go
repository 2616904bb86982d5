package examination

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// VisitContext carries the denormalized IDs stamped on every examination
// record at create time.
type VisitContext struct {
	SurveyID        string
	PatientID       string
	ClinicalStudyID string
	OrganizationID  string
}

// ContextResolver resolves a visit ID to its surrounding survey, patient,
// study, and organization. The visit domain provides the implementation;
// keeping it an interface here avoids a package cycle and lets tests stub it.
type ContextResolver interface {
	ResolveVisit(ctx context.Context, visitID string) (VisitContext, error)
}

type Service struct {
	repo     Repository
	resolver ContextResolver
}

func NewService(repo Repository, resolver ContextResolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// CreateInput is one examination record to be written.
type CreateInput struct {
	Kind    Kind                   `json:"kind"`
	EyeSide EyeSide                `json:"eyeside"`
	VisitID string                 `json:"visitId"`
	Data    map[string]interface{} `json:"data"`
}

// Create validates the clinical ranges, generates the record ID, stamps the
// denormalized foreign keys, and writes the record. Validation failures occur
// before any write.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Examination, error) {
	if !ValidKind(in.Kind) {
		return nil, fmt.Errorf("unknown examination kind: %s", in.Kind)
	}
	if !ValidEyeSide(in.EyeSide) {
		return nil, fmt.Errorf("eyeside must be %s or %s", EyeRight, EyeLeft)
	}
	if in.VisitID == "" {
		return nil, fmt.Errorf("visitId is required")
	}
	if err := Validate(in.Kind, in.Data); err != nil {
		return nil, err
	}

	vctx, err := s.resolver.ResolveVisit(ctx, in.VisitID)
	if err != nil {
		return nil, fmt.Errorf("resolve visit %s: %w", in.VisitID, err)
	}

	e := &Examination{
		ExaminationID:   newExaminationID(in.Kind, in.EyeSide),
		Kind:            in.Kind,
		EyeSide:         in.EyeSide,
		VisitID:         in.VisitID,
		SurveyID:        vctx.SurveyID,
		PatientID:       vctx.PatientID,
		ClinicalStudyID: vctx.ClinicalStudyID,
		OrganizationID:  vctx.OrganizationID,
		Data:            in.Data,
	}
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// BothEyes pairs the two eye-side records of one visit. Either side may be
// nil when not yet recorded.
type BothEyes struct {
	Right *Examination `json:"right"`
	Left  *Examination `json:"left"`
}

// BothEyesResult reports per-eye outcomes of a paired create. The pairing is
// not transactional: one eye can succeed while the other fails, and the
// caller sees exactly which.
type BothEyesResult struct {
	Right    *Examination `json:"right,omitempty"`
	Left     *Examination `json:"left,omitempty"`
	RightErr string       `json:"rightError,omitempty"`
	LeftErr  string       `json:"leftError,omitempty"`
}

// Succeeded reports whether both eye writes committed.
func (r *BothEyesResult) Succeeded() bool {
	return r.RightErr == "" && r.LeftErr == ""
}

// CreateBothEyes writes the right and left records of one visit. A failure
// on one side does not roll back the other; the result carries both
// outcomes.
func (s *Service) CreateBothEyes(ctx context.Context, visitID string, kind Kind, right, left map[string]interface{}) (*BothEyesResult, error) {
	result := &BothEyesResult{}

	if right != nil {
		rec, err := s.Create(ctx, CreateInput{Kind: kind, EyeSide: EyeRight, VisitID: visitID, Data: right})
		if err != nil {
			result.RightErr = err.Error()
		} else {
			result.Right = rec
		}
	}
	if left != nil {
		rec, err := s.Create(ctx, CreateInput{Kind: kind, EyeSide: EyeLeft, VisitID: visitID, Data: left})
		if err != nil {
			result.LeftErr = err.Error()
		} else {
			result.Left = rec
		}
	}

	if right == nil && left == nil {
		return nil, fmt.Errorf("at least one eye payload is required")
	}
	return result, nil
}

// GetBothEyes fetches the paired records for one visit and kind.
func (s *Service) GetBothEyes(ctx context.Context, kind Kind, visitID string) (*BothEyes, error) {
	right, err := s.repo.FindByVisitAndEye(ctx, kind, visitID, EyeRight)
	if err != nil {
		return nil, err
	}
	left, err := s.repo.FindByVisitAndEye(ctx, kind, visitID, EyeLeft)
	if err != nil {
		return nil, err
	}
	return &BothEyes{Right: right, Left: left}, nil
}

func (s *Service) FindByVisit(ctx context.Context, kind Kind, visitID string) ([]*Examination, error) {
	return s.repo.FindByVisit(ctx, kind, visitID)
}

func (s *Service) FindBySurvey(ctx context.Context, kind Kind, surveyID string) ([]*Examination, error) {
	return s.repo.FindBySurvey(ctx, kind, surveyID)
}

// CompareVisits returns every record for one survey and eye, sorted ascending
// by createdAt. This ordering is the contract all trend and summary
// computations rely on.
func (s *Service) CompareVisits(ctx context.Context, kind Kind, surveyID string, eye EyeSide) ([]*Examination, error) {
	if !ValidEyeSide(eye) {
		return nil, fmt.Errorf("eyeside must be %s or %s", EyeRight, EyeLeft)
	}
	records, err := s.repo.FindBySurveyAndEye(ctx, kind, surveyID, eye)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return createdAt(records[i]).Before(createdAt(records[j]))
	})
	return records, nil
}

// createdAt parses the record's creation stamp for ordering. Stamps of
// differing fractional widths do not compare correctly as strings, so the
// sort goes through time.Time. Unparseable stamps sort first.
func createdAt(e *Examination) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, e.CreatedAt)
	return t
}

// TrendReport summarizes one field's evolution across a survey's visits.
type TrendReport struct {
	Field    string    `json:"field"`
	Values   []float64 `json:"values"`
	Trend    string    `json:"trend"`
	Severity float64   `json:"severity"`
}

// trendTolerance is the flat band treated as stable, in the field's own unit.
const trendTolerance = 1.0

// TrendForSurvey classifies one field's trajectory for a survey and eye and
// scores the severity of the latest record.
func (s *Service) TrendForSurvey(ctx context.Context, kind Kind, surveyID string, eye EyeSide, field string) (*TrendReport, error) {
	records, err := s.CompareVisits(ctx, kind, surveyID, eye)
	if err != nil {
		return nil, err
	}
	values := FieldSeries(records, field)

	report := &TrendReport{
		Field:  field,
		Values: values,
		Trend:  Trend(values, trendTolerance),
	}
	if len(records) > 0 {
		report.Severity = SeverityScore(kind, records[len(records)-1].Data)
	}
	return report, nil
}

// crossEyeVAThreshold flags corrected-VA asymmetry above 0.3 logMAR.
const crossEyeVAThreshold = 0.3

// CrossEyeReport compares one field across the two eyes of a visit.
func (s *Service) CrossEyeReport(ctx context.Context, kind Kind, visitID, field string) (*EyeDifference, error) {
	pair, err := s.GetBothEyes(ctx, kind, visitID)
	if err != nil {
		return nil, err
	}
	return CrossEyeDifference(pair.Right, pair.Left, field, crossEyeVAThreshold)
}
