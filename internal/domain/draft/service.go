package draft

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trialdata/trialdata/internal/domain/examination"
	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// ExaminationWriter fans submitted form data out into examination records.
// The examination service implements it.
type ExaminationWriter interface {
	CreateBothEyes(ctx context.Context, visitID string, kind examination.Kind, right, left map[string]interface{}) (*examination.BothEyesResult, error)
}

type Service struct {
	repo  Repository
	exams ExaminationWriter
	clock func() time.Time
}

func NewService(repo Repository, exams ExaminationWriter) *Service {
	return &Service{repo: repo, exams: exams, clock: time.Now}
}

// Initialize creates the live draft for a visit with empty panels for every
// examination in the given order. A visit can only hold one live draft;
// initializing twice returns ErrConflict.
func (s *Service) Initialize(ctx context.Context, visitID string, order []string) (*Draft, error) {
	if visitID == "" {
		return nil, fmt.Errorf("visitId is required")
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("examinationOrder is required")
	}
	for _, exam := range order {
		if !examination.ValidKind(examination.Kind(exam)) {
			return nil, fmt.Errorf("unknown examination kind %q", exam)
		}
	}

	d := &Draft{
		VisitID:          visitID,
		DraftID:          CurrentID,
		ExaminationOrder: order,
		FormData:         map[string]EyeData{},
		CompletedSteps:   []int{},
		Version:          1,
	}
	for _, exam := range order {
		d.FormData[exam] = EyeData{}
	}
	d.touch(false, s.clock())

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns the live draft, or nil when none exists or it has expired.
func (s *Service) Get(ctx context.Context, visitID string) (*Draft, error) {
	return s.repo.Get(ctx, visitID)
}

func (s *Service) load(ctx context.Context, visitID string) (*Draft, error) {
	d, err := s.repo.Get(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: draft for visit %s", docstore.ErrNotFound, visitID)
	}
	return d, nil
}

// UpdateExaminationData merge-patches one eye's fields of one panel. Fields
// not named in data keep their stored values. Last writer wins; autosave is
// the conflict-aware path.
func (s *Service) UpdateExaminationData(ctx context.Context, visitID, exam string, eye examination.EyeSide, data map[string]interface{}) (*Draft, error) {
	if !examination.ValidEyeSide(eye) {
		return nil, fmt.Errorf("eyeside must be %s or %s", examination.EyeRight, examination.EyeLeft)
	}
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !d.inOrder(exam) {
		return nil, fmt.Errorf("examination %q is not part of this draft", exam)
	}

	mergeEye(d, exam, string(eye), data)
	d.Version++
	d.touch(false, s.clock())
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// BatchUpdateEyeData merge-patches one eye's fields across several panels in
// a single write and version bump.
func (s *Service) BatchUpdateEyeData(ctx context.Context, visitID string, eye examination.EyeSide, updates map[string]map[string]interface{}) (*Draft, error) {
	if !examination.ValidEyeSide(eye) {
		return nil, fmt.Errorf("eyeside must be %s or %s", examination.EyeRight, examination.EyeLeft)
	}
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	for exam := range updates {
		if !d.inOrder(exam) {
			return nil, fmt.Errorf("examination %q is not part of this draft", exam)
		}
	}

	for exam, data := range updates {
		mergeEye(d, exam, string(eye), data)
	}
	d.Version++
	d.touch(false, s.clock())
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AutoSaveResult reports the outcome of a conditional save. On a conflict the
// write is discarded and Draft carries the winning state for the client to
// rebase on.
type AutoSaveResult struct {
	Saved    bool   `json:"saved"`
	Conflict bool   `json:"conflict"`
	Draft    *Draft `json:"draft"`
}

// AutoSave applies the updates only when the stored draft still carries
// baseVersion, bumping the version on success. A concurrent writer wins the
// race; the loser gets the latest draft back and nothing is overwritten.
func (s *Service) AutoSave(ctx context.Context, visitID string, updates map[string]EyeData, baseVersion int) (*AutoSaveResult, error) {
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if d.Version != baseVersion {
		return &AutoSaveResult{Conflict: true, Draft: d}, nil
	}
	for exam := range updates {
		if !d.inOrder(exam) {
			return nil, fmt.Errorf("examination %q is not part of this draft", exam)
		}
	}

	for exam, eyes := range updates {
		for eye, data := range eyes {
			mergeEye(d, exam, eye, data)
		}
	}
	d.Version = baseVersion + 1
	d.touch(true, s.clock())

	err = s.repo.CompareAndSave(ctx, d, baseVersion)
	if errors.Is(err, docstore.ErrVersionConflict) {
		latest, lerr := s.load(ctx, visitID)
		if lerr != nil {
			return nil, lerr
		}
		return &AutoSaveResult{Conflict: true, Draft: latest}, nil
	}
	if err != nil {
		return nil, err
	}
	return &AutoSaveResult{Saved: true, Draft: d}, nil
}

// CompleteStep records a wizard step as done and advances the cursor past it.
func (s *Service) CompleteStep(ctx context.Context, visitID string, step int) (*Draft, error) {
	if step < 0 {
		return nil, fmt.Errorf("step must not be negative")
	}
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}

	d.CompletedSteps = appendUniqueInt(d.CompletedSteps, step)
	if step+1 > d.CurrentStep {
		d.CurrentStep = step + 1
	}
	d.Version++
	d.touch(false, s.clock())
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateProgress moves the wizard cursor without marking anything done.
func (s *Service) UpdateProgress(ctx context.Context, visitID string, currentStep int) (*Draft, error) {
	if currentStep < 0 {
		return nil, fmt.Errorf("currentStep must not be negative")
	}
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}

	d.CurrentStep = currentStep
	d.Version++
	d.touch(false, s.clock())
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ValidationIssue names one finding against a panel.
type ValidationIssue struct {
	Examination string `json:"examination"`
	Message     string `json:"message"`
}

// ValidationReport is the result of checking a draft against submission
// requirements. Missing panels and range errors block; warnings do not.
type ValidationReport struct {
	Ready    bool              `json:"ready"`
	Missing  []string          `json:"missing"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Validate checks the draft without writing anything. Every panel in the
// examination order needs at least one populated eye, and populated data must
// pass the clinical range checks. Corrected-VA asymmetry above 0.3 logMAR is
// flagged as a warning, never rejected.
func (s *Service) Validate(ctx context.Context, visitID string) (*ValidationReport, error) {
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	return validate(d), nil
}

func validate(d *Draft) *ValidationReport {
	report := &ValidationReport{Missing: []string{}}
	for _, exam := range d.ExaminationOrder {
		kind := examination.Kind(exam)
		eyes := d.eyes(exam)
		if len(eyes) == 0 {
			report.Missing = append(report.Missing, exam)
			continue
		}
		for eye, data := range eyes {
			if err := examination.Validate(kind, data); err != nil {
				report.Errors = append(report.Errors, ValidationIssue{
					Examination: exam,
					Message:     fmt.Sprintf("%s eye: %v", eye, err),
				})
			}
		}
		if len(eyes) == 1 {
			for eye := range eyes {
				report.Warnings = append(report.Warnings, ValidationIssue{
					Examination: exam,
					Message:     fmt.Sprintf("only the %s eye is recorded", eye),
				})
			}
		}
		if kind == examination.KindCorrectedVA {
			report.Warnings = append(report.Warnings, vaAsymmetryWarnings(exam, eyes)...)
		}
	}
	report.Ready = len(report.Missing) == 0 && len(report.Errors) == 0
	return report
}

// vaAsymmetryThreshold flags corrected-VA fields differing by more than 0.3
// logMAR between the eyes.
const vaAsymmetryThreshold = 0.3

func vaAsymmetryWarnings(exam string, eyes map[string]map[string]interface{}) []ValidationIssue {
	right, left := eyes[string(examination.EyeRight)], eyes[string(examination.EyeLeft)]
	if right == nil || left == nil {
		return nil
	}
	var warnings []ValidationIssue
	for field, rv := range right {
		if !strings.HasPrefix(field, "va") {
			continue
		}
		r, rok := asFloat(rv)
		l, lok := asFloat(left[field])
		if !rok || !lok {
			continue
		}
		if diff := math.Abs(r - l); diff > vaAsymmetryThreshold {
			warnings = append(warnings, ValidationIssue{
				Examination: exam,
				Message:     fmt.Sprintf("%s differs by %.2f logMAR between eyes", field, diff),
			})
		}
	}
	return warnings
}

// Panel completion states.
const (
	PanelCompleted  = "completed"
	PanelPartial    = "partial"
	PanelNotStarted = "not_started"
)

// Summary reports per-panel completion and overall submit readiness.
type Summary struct {
	VisitID        string            `json:"visitId"`
	Panels         map[string]string `json:"panels"`
	CurrentStep    int               `json:"currentStep"`
	CompletedSteps []int             `json:"completedSteps"`
	Version        int               `json:"version"`
	Ready          bool              `json:"ready"`
}

// CompletionSummary classifies every panel: completed when both eyes carry
// data, partial with one, not started with none. Ready requires every panel
// completed.
func (s *Service) CompletionSummary(ctx context.Context, visitID string) (*Summary, error) {
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		VisitID:        d.VisitID,
		Panels:         make(map[string]string, len(d.ExaminationOrder)),
		CurrentStep:    d.CurrentStep,
		CompletedSteps: d.CompletedSteps,
		Version:        d.Version,
		Ready:          true,
	}
	for _, exam := range d.ExaminationOrder {
		switch len(d.eyes(exam)) {
		case 2:
			summary.Panels[exam] = PanelCompleted
		case 1:
			summary.Panels[exam] = PanelPartial
			summary.Ready = false
		default:
			summary.Panels[exam] = PanelNotStarted
			summary.Ready = false
		}
	}
	return summary, nil
}

// CreateBackup snapshots the live draft under a backup sort key with a
// shorter expiry. Backups are never read back by the service; they exist for
// manual recovery.
func (s *Service) CreateBackup(ctx context.Context, visitID string) (*Draft, error) {
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}

	backup := *d
	backup.DraftID = "backup-" + uuid.NewString()
	backup.TTL = docstore.Timestamp(s.clock().Add(backupTTL))
	backup.CreatedAt = ""
	backup.UpdatedAt = ""
	if err := s.repo.Save(ctx, &backup); err != nil {
		return nil, err
	}
	return &backup, nil
}

// CleanupExpired deletes drafts past their expiry, live and backup alike, and
// returns how many were removed. Maintenance path.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx)
	if err != nil {
		return 0, err
	}
	for _, d := range expired {
		if err := s.repo.Delete(ctx, d.VisitID, d.DraftID); err != nil {
			return 0, err
		}
	}
	return len(expired), nil
}

// SubmitResult reports the per-panel outcomes of a submission.
type SubmitResult struct {
	Submitted bool                                   `json:"submitted"`
	Results   map[string]*examination.BothEyesResult `json:"results"`
	Failures  []string                               `json:"failures,omitempty"`
}

// Submit fans the draft's panels out into examination records in examination
// order, then deletes the draft. The draft survives when any panel write
// fails, so the submission can be retried.
func (s *Service) Submit(ctx context.Context, visitID string) (*SubmitResult, error) {
	d, err := s.load(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if report := validate(d); !report.Ready {
		return nil, fmt.Errorf("draft is not ready for submission: missing %v, %d range errors",
			report.Missing, len(report.Errors))
	}

	result := &SubmitResult{Results: make(map[string]*examination.BothEyesResult, len(d.ExaminationOrder))}
	for _, exam := range d.ExaminationOrder {
		eyes := d.eyes(exam)
		res, err := s.exams.CreateBothEyes(ctx, d.VisitID, examination.Kind(exam),
			eyes[string(examination.EyeRight)], eyes[string(examination.EyeLeft)])
		if err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", exam, err))
			continue
		}
		result.Results[exam] = res
		if !res.Succeeded() {
			result.Failures = append(result.Failures, exam)
		}
	}

	if len(result.Failures) > 0 {
		return result, nil
	}
	if err := s.repo.Delete(ctx, d.VisitID, CurrentID); err != nil {
		return nil, err
	}
	result.Submitted = true
	return result, nil
}

func (d *Draft) inOrder(exam string) bool {
	for _, e := range d.ExaminationOrder {
		if e == exam {
			return true
		}
	}
	return false
}

func mergeEye(d *Draft, exam, eye string, data map[string]interface{}) {
	if d.FormData == nil {
		d.FormData = map[string]EyeData{}
	}
	if d.FormData[exam] == nil {
		d.FormData[exam] = EyeData{}
	}
	if d.FormData[exam][eye] == nil {
		d.FormData[exam][eye] = map[string]interface{}{}
	}
	for field, value := range data {
		d.FormData[exam][eye][field] = value
	}
}

func appendUniqueInt(list []int, item int) []int {
	for _, e := range list {
		if e == item {
			return list
		}
	}
	return append(list, item)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
