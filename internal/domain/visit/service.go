package visit

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/domain/examination"
	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// SurveyUpdater receives the survey-level completion percentage whenever a
// visit's completion changes. Nil disables the propagation.
type SurveyUpdater interface {
	UpdateCompletion(ctx context.Context, surveyID string, pct float64) error
}

type Service struct {
	visits  Repository
	surveys SurveyUpdater
}

func NewService(visits Repository, surveys SurveyUpdater) *Service {
	return &Service{visits: visits, surveys: surveys}
}

func (s *Service) Create(ctx context.Context, v *Visit) error {
	if v.SurveyID == "" {
		return fmt.Errorf("surveyId is required")
	}
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	for _, lists := range [][]string{v.RequiredExaminations, v.OptionalExaminations, v.ExaminationOrder} {
		for _, kind := range lists {
			if !examination.ValidKind(examination.Kind(kind)) {
				return fmt.Errorf("unknown examination kind %q", kind)
			}
		}
	}
	if v.VisitID == "" {
		v.VisitID = "v-" + uuid.NewString()
	}
	if v.Status == "" {
		v.Status = StatusScheduled
	}
	if v.RequiredExaminations == nil {
		v.RequiredExaminations = []string{}
	}
	if v.OptionalExaminations == nil {
		v.OptionalExaminations = []string{}
	}
	if v.ExaminationOrder == nil {
		v.ExaminationOrder = []string{}
	}
	v.CompletedExaminations = []string{}
	v.SkippedExaminations = []string{}
	v.CompletionPercentage = 0
	return s.visits.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, surveyID, visitID string) (*Visit, error) {
	return s.visits.Find(ctx, surveyID, visitID)
}

func (s *Service) GetByVisitID(ctx context.Context, visitID string) (*Visit, error) {
	return s.visits.FindByVisitID(ctx, visitID)
}

func (s *Service) ListBySurvey(ctx context.Context, surveyID string) ([]*Visit, error) {
	visits, err := s.visits.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].VisitNumber < visits[j].VisitNumber })
	return visits, nil
}

// CompleteExamination marks one examination done and recomputes the derived
// completion state. Completing the same examination twice is a no-op.
func (s *Service) CompleteExamination(ctx context.Context, surveyID, visitID, exam string) (*Visit, error) {
	return s.markExamination(ctx, surveyID, visitID, exam, true)
}

// SkipExamination records an examination as deliberately skipped. Skipped
// examinations never count toward completion.
func (s *Service) SkipExamination(ctx context.Context, surveyID, visitID, exam string) (*Visit, error) {
	return s.markExamination(ctx, surveyID, visitID, exam, false)
}

func (s *Service) markExamination(ctx context.Context, surveyID, visitID, exam string, completed bool) (*Visit, error) {
	v, err := s.visits.Find(ctx, surveyID, visitID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: visit %s/%s", docstore.ErrNotFound, surveyID, visitID)
	}
	if !inPlan(v, exam) {
		return nil, fmt.Errorf("examination %q is not part of this visit", exam)
	}

	if completed {
		v.CompletedExaminations = appendUnique(v.CompletedExaminations, exam)
		v.SkippedExaminations = remove(v.SkippedExaminations, exam)
	} else {
		v.SkippedExaminations = appendUnique(v.SkippedExaminations, exam)
		v.CompletedExaminations = remove(v.CompletedExaminations, exam)
	}

	pct := v.CompletionPct()
	status := v.Status
	switch {
	case pct >= 100:
		status = StatusCompleted
	case len(v.CompletedExaminations)+len(v.SkippedExaminations) > 0:
		status = StatusInProgress
	}

	updated, err := s.visits.Update(ctx, surveyID, visitID, docstore.Document{
		"completedExaminations": v.CompletedExaminations,
		"skippedExaminations":   v.SkippedExaminations,
		"completionPercentage":  pct,
		"status":                status,
	})
	if err != nil {
		return nil, err
	}

	if s.surveys != nil {
		if err := s.propagateCompletion(ctx, surveyID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// propagateCompletion pushes the mean visit completion up to the survey.
func (s *Service) propagateCompletion(ctx context.Context, surveyID string) error {
	visits, err := s.visits.ListBySurvey(ctx, surveyID)
	if err != nil {
		return err
	}
	if len(visits) == 0 {
		return nil
	}
	var sum float64
	for _, v := range visits {
		sum += v.CompletionPercentage
	}
	return s.surveys.UpdateCompletion(ctx, surveyID, sum/float64(len(visits)))
}

// Reschedule moves the visit date and its protocol window together.
func (s *Service) Reschedule(ctx context.Context, surveyID, visitID, scheduled, windowStart, windowEnd string) (*Visit, error) {
	for _, date := range []string{scheduled, windowStart, windowEnd} {
		if date == "" {
			continue
		}
		if _, err := parseDate(date); err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", date, err)
		}
	}
	return s.visits.Update(ctx, surveyID, visitID, docstore.Document{
		"scheduledDate":   scheduled,
		"windowStartDate": windowStart,
		"windowEndDate":   windowEnd,
	})
}

// CheckWindow classifies an actual visit date against the visit's protocol
// window.
func (s *Service) CheckWindow(ctx context.Context, surveyID, visitID, actualDate string) (string, error) {
	v, err := s.visits.Find(ctx, surveyID, visitID)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%w: visit %s/%s", docstore.ErrNotFound, surveyID, visitID)
	}
	return v.CheckWindow(actualDate)
}

func inPlan(v *Visit, exam string) bool {
	for _, e := range v.RequiredExaminations {
		if e == exam {
			return true
		}
	}
	for _, e := range v.OptionalExaminations {
		if e == exam {
			return true
		}
	}
	return false
}

func appendUnique(list []string, item string) []string {
	for _, e := range list {
		if e == item {
			return list
		}
	}
	return append(list, item)
}

func remove(list []string, item string) []string {
	out := list[:0]
	for _, e := range list {
		if e != item {
			out = append(out, e)
		}
	}
	return out
}

// resolver adapts the visit service to the examination domain's
// ContextResolver.
type resolver struct {
	svc *Service
}

// NewExaminationResolver exposes visit lookups to the examination service for
// stamping denormalized IDs.
func NewExaminationResolver(svc *Service) examination.ContextResolver {
	return &resolver{svc: svc}
}

func (r *resolver) ResolveVisit(ctx context.Context, visitID string) (examination.VisitContext, error) {
	v, err := r.svc.GetByVisitID(ctx, visitID)
	if err != nil {
		return examination.VisitContext{}, err
	}
	if v == nil {
		return examination.VisitContext{}, fmt.Errorf("%w: visit %s", docstore.ErrNotFound, visitID)
	}
	return examination.VisitContext{
		SurveyID:        v.SurveyID,
		PatientID:       v.PatientID,
		ClinicalStudyID: v.ClinicalStudyID,
		OrganizationID:  v.OrganizationID,
	}, nil
}
