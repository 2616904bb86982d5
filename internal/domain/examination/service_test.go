package examination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

type mockRepo struct {
	// kind -> examinationId -> record
	data map[Kind]map[string]*Examination
	seq  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: map[Kind]map[string]*Examination{}}
}

func (m *mockRepo) put(e *Examination) {
	if m.data[e.Kind] == nil {
		m.data[e.Kind] = map[string]*Examination{}
	}
	m.data[e.Kind][e.ExaminationID] = e
}

func (m *mockRepo) Create(_ context.Context, e *Examination) error {
	if _, ok := m.data[e.Kind][e.ExaminationID]; ok {
		return fmt.Errorf("%w: %s", docstore.ErrConflict, e.ExaminationID)
	}
	if e.CreatedAt == "" {
		m.seq++
		e.CreatedAt = docstore.Timestamp(time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC))
	}
	m.put(e)
	return nil
}

func (m *mockRepo) FindByVisit(_ context.Context, kind Kind, visitID string) ([]*Examination, error) {
	var out []*Examination
	for _, e := range m.data[kind] {
		if e.VisitID == visitID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepo) FindByVisitAndEye(ctx context.Context, kind Kind, visitID string, eye EyeSide) (*Examination, error) {
	records, _ := m.FindByVisit(ctx, kind, visitID)
	for _, e := range records {
		if e.EyeSide == eye {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FindBySurvey(_ context.Context, kind Kind, surveyID string) ([]*Examination, error) {
	var out []*Examination
	for _, e := range m.data[kind] {
		if e.SurveyID == surveyID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepo) FindBySurveyAndEye(ctx context.Context, kind Kind, surveyID string, eye EyeSide) ([]*Examination, error) {
	records, _ := m.FindBySurvey(ctx, kind, surveyID)
	var out []*Examination
	for _, e := range records {
		if e.EyeSide == eye {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, kind Kind, visitID, examinationID string) error {
	delete(m.data[kind], examinationID)
	return nil
}

type stubResolver struct {
	ctx VisitContext
	err error
}

func (s *stubResolver) ResolveVisit(context.Context, string) (VisitContext, error) {
	return s.ctx, s.err
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, &stubResolver{ctx: VisitContext{
		SurveyID:        "sv-1",
		PatientID:       "pt-1",
		ClinicalStudyID: "cs-1",
		OrganizationID:  "org-1",
	}})
}

func TestValidate_AcceptsInRange(t *testing.T) {
	data := map[string]interface{}{
		"cr_R1": 7.8, "cr_R2": 7.6, "iop_R": 14.0, "note": "clear",
	}
	if err := Validate(KindBasicInfo, data); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsNamingField(t *testing.T) {
	cases := []struct {
		kind  Kind
		field string
		value float64
	}{
		{KindBasicInfo, "cr_R1", 5.9},
		{KindBasicInfo, "iop_L", 26},
		{KindVAS, "score", 101},
		{KindFitting, "movement", 2.5},
		{KindDR1, "nibut", 31},
		{KindCorrectedVA, "va", 1.8},
		{KindLensInspection, "depositGrade", 5},
		{KindQuestionnaire, "q3", 0},
	}
	for _, tc := range cases {
		err := Validate(tc.kind, map[string]interface{}{tc.field: tc.value})
		if err == nil {
			t.Errorf("%s/%s=%v: expected validation error", tc.kind, tc.field, tc.value)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s/%s: expected *ValidationError, got %T", tc.kind, tc.field, err)
			continue
		}
		if verr.Field != tc.field {
			t.Errorf("expected error naming %s, got %s", tc.field, verr.Field)
		}
	}
}

func TestCreate_StampsDenormalizedIDs(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	rec, err := svc.Create(context.Background(), CreateInput{
		Kind:    KindVAS,
		EyeSide: EyeRight,
		VisitID: "v-1",
		Data:    map[string]interface{}{"score": 70.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.SurveyID != "sv-1" || rec.PatientID != "pt-1" || rec.ClinicalStudyID != "cs-1" || rec.OrganizationID != "org-1" {
		t.Errorf("denormalized ids not stamped: %+v", rec)
	}
	if !strings.HasPrefix(rec.ExaminationID, "vas-right-") {
		t.Errorf("unexpected id format: %s", rec.ExaminationID)
	}
}

func TestCreate_RejectsBeforeWrite(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Kind:    KindBasicInfo,
		EyeSide: EyeRight,
		VisitID: "v-1",
		Data:    map[string]interface{}{"cr_R1": 5.9},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(repo.data[KindBasicInfo]) != 0 {
		t.Error("invalid record must not be written")
	}
}

func TestCreate_DuplicateKeyConflicts(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	rec, err := svc.Create(ctx, CreateInput{Kind: KindVAS, EyeSide: EyeRight, VisitID: "v-1",
		Data: map[string]interface{}{"score": 50.0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same key again straight at the repo: conflict, never an overwrite.
	dup := *rec
	if err := repo.Create(ctx, &dup); !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCompareVisits_SortedAscending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	// Insert out of order.
	stamps := []string{
		"2026-03-01T00:00:00Z",
		"2026-01-01T00:00:00Z",
		"2026-02-01T00:00:00Z",
	}
	for i, ts := range stamps {
		repo.put(&Examination{
			ExaminationID: fmt.Sprintf("vas-right-%d", i),
			Kind:          KindVAS,
			EyeSide:       EyeRight,
			VisitID:       fmt.Sprintf("v-%d", i),
			SurveyID:      "sv-1",
			CreatedAt:     ts,
			Data:          map[string]interface{}{"score": float64(i)},
		})
	}

	records, err := svc.CompareVisits(context.Background(), KindVAS, "sv-1", EyeRight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(records); i++ {
		prev, _ := time.Parse(time.RFC3339Nano, records[i-1].CreatedAt)
		next, _ := time.Parse(time.RFC3339Nano, records[i].CreatedAt)
		if prev.After(next) {
			t.Fatalf("records not ascending by createdAt: %s > %s",
				records[i-1].CreatedAt, records[i].CreatedAt)
		}
	}
}

func TestCompareVisits_FractionalSecondStamps(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	// Stamps whose fractions differ in width compare wrong as raw strings
	// (".51Z" sorts before ".5Z"); the ordering must stay chronological.
	stamps := []string{
		"2026-01-01T00:00:00.51Z",
		"2026-01-01T00:00:00.5Z",
	}
	for i, ts := range stamps {
		repo.put(&Examination{
			ExaminationID: fmt.Sprintf("vas-right-frac-%d", i),
			Kind:          KindVAS,
			EyeSide:       EyeRight,
			VisitID:       fmt.Sprintf("v-%d", i),
			SurveyID:      "sv-1",
			CreatedAt:     ts,
			Data:          map[string]interface{}{"score": float64(i)},
		})
	}

	records, err := svc.CompareVisits(context.Background(), KindVAS, "sv-1", EyeRight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CreatedAt != "2026-01-01T00:00:00.5Z" {
		t.Errorf("expected the .5s record first, got %s", records[0].CreatedAt)
	}
	if records[1].CreatedAt != "2026-01-01T00:00:00.51Z" {
		t.Errorf("expected the .51s record last, got %s", records[1].CreatedAt)
	}
}

func TestCreateBothEyes_PartialSuccess(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	result, err := svc.CreateBothEyes(context.Background(), "v-1", KindVAS,
		map[string]interface{}{"score": 60.0},
		map[string]interface{}{"score": 150.0}) // out of range
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Right == nil || result.RightErr != "" {
		t.Errorf("expected right eye committed: %+v", result)
	}
	if result.Left != nil || result.LeftErr == "" {
		t.Errorf("expected left eye failed: %+v", result)
	}
	if result.Succeeded() {
		t.Error("partial result must not report success")
	}
}

func TestTrend(t *testing.T) {
	cases := []struct {
		values []float64
		want   string
	}{
		{[]float64{10, 20, 30, 40}, TrendImproving},
		{[]float64{40, 30, 20, 10}, TrendDeclining},
		{[]float64{20, 20, 20.5, 20}, TrendStable},
		{[]float64{42}, TrendStable},
		{nil, TrendStable},
	}
	for _, tc := range cases {
		if got := Trend(tc.values, 1.0); got != tc.want {
			t.Errorf("Trend(%v) = %s, want %s", tc.values, got, tc.want)
		}
	}
}

func TestSeverityScore(t *testing.T) {
	// IOP 24.5 crosses all three thresholds at weight 2.
	score := SeverityScore(KindBasicInfo, map[string]interface{}{"iop_R": 24.5})
	if score != 6.0 {
		t.Errorf("expected severity 6.0, got %g", score)
	}
	// Kinds without rules score zero.
	if s := SeverityScore(KindQuestionnaire, map[string]interface{}{"q1": 5.0}); s != 0 {
		t.Errorf("expected 0, got %g", s)
	}
	// Deterministic over identical input.
	data := map[string]interface{}{"iop_R": 22.0, "iop_L": 19.0}
	first := SeverityScore(KindBasicInfo, data)
	for i := 0; i < 10; i++ {
		if got := SeverityScore(KindBasicInfo, data); got != first {
			t.Fatalf("severity not deterministic: %g vs %g", got, first)
		}
	}
}

func TestCrossEyeDifference(t *testing.T) {
	right := &Examination{Data: map[string]interface{}{"va": 0.5}}
	left := &Examination{Data: map[string]interface{}{"va": 0.1}}

	diff, err := CrossEyeDifference(right, left, "va", 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !diff.Flagged {
		t.Error("0.4 logMAR difference should be flagged")
	}

	left.Data["va"] = 0.4
	diff, err = CrossEyeDifference(right, left, "va", 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff.Flagged {
		t.Error("0.1 logMAR difference should not be flagged")
	}

	if _, err := CrossEyeDifference(right, nil, "va", 0.3); err == nil {
		t.Error("expected error for missing eye record")
	}
}
