package examination

import (
	"fmt"
	"sort"
)

// Trend classification over a time series of one field.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Trend compares the first-half mean of a score series against the
// second-half mean. A difference within tolerance is stable; above it the
// series is improving (scores read higher-is-better). Fewer than two values
// give no signal and read as stable. Pure and deterministic over its input.
func Trend(values []float64, tolerance float64) string {
	if len(values) < 2 {
		return TrendStable
	}
	mid := len(values) / 2
	first := mean(values[:mid])
	second := mean(values[mid:])

	diff := second - first
	switch {
	case diff > tolerance:
		return TrendImproving
	case diff < -tolerance:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// FieldSeries extracts one numeric field from records already sorted by
// createdAt, skipping records where the field is absent or non-numeric.
func FieldSeries(records []*Examination, field string) []float64 {
	var out []float64
	for _, r := range records {
		if v, ok := asFloat(r.Data[field]); ok {
			out = append(out, v)
		}
	}
	return out
}

// severityRule maps one field to weighted threshold buckets. The severity
// contribution is weight × number of thresholds crossed. lowerIsWorse
// inverts the comparison for measurements where a low reading is the bad
// sign (tear break-up time).
type severityRule struct {
	field        string
	prefix       bool
	weight       float64
	thresholds   []float64
	lowerIsWorse bool
}

var severityRules = map[Kind][]severityRule{
	KindBasicInfo: {
		{field: "iop_", prefix: true, weight: 2.0, thresholds: []float64{18, 21, 24}},
	},
	KindVAS: {
		{field: "score", prefix: true, weight: 1.0, thresholds: []float64{60, 40, 20}, lowerIsWorse: true},
	},
	KindDR1: {
		{field: "nibut", weight: 1.5, thresholds: []float64{10, 5, 3}, lowerIsWorse: true},
	},
	KindCorrectedVA: {
		{field: "va", prefix: true, weight: 2.0, thresholds: []float64{0.3, 0.7, 1.0}},
	},
	KindLensInspection: {
		{field: "depositGrade", weight: 1.0, thresholds: []float64{1, 2, 3}},
	},
	KindFitting: {
		{field: "movement", weight: 1.0, thresholds: []float64{1.0, 1.5, 1.8}},
	},
}

// SeverityScore sums weighted bucket counts over every rule-covered field in
// the record. Kinds without severity rules score zero.
func SeverityScore(kind Kind, data map[string]interface{}) float64 {
	rules := severityRules[kind]
	if len(rules) == 0 {
		return 0
	}

	// Iterate fields in sorted order so equal inputs always produce the same
	// accumulation.
	fields := make([]string, 0, len(data))
	for field := range data {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var score float64
	for _, field := range fields {
		for _, rule := range rules {
			if rule.prefix && !hasPrefix(field, rule.field) {
				continue
			}
			if !rule.prefix && field != rule.field {
				continue
			}
			value, ok := asFloat(data[field])
			if !ok {
				continue
			}
			score += rule.weight * float64(bucketsCrossed(value, rule))
		}
	}
	return score
}

func bucketsCrossed(value float64, rule severityRule) int {
	crossed := 0
	for _, threshold := range rule.thresholds {
		if rule.lowerIsWorse {
			if value < threshold {
				crossed++
			}
		} else if value > threshold {
			crossed++
		}
	}
	return crossed
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// EyeDifference reports one field compared across the two eyes of a visit.
type EyeDifference struct {
	Field      string  `json:"field"`
	Right      float64 `json:"right"`
	Left       float64 `json:"left"`
	Difference float64 `json:"difference"`
	// Flagged marks a clinically notable asymmetry; it is advisory, never a
	// rejection.
	Flagged bool `json:"flagged"`
}

// CrossEyeDifference compares one field between the right and left records.
// The threshold is the asymmetry level worth flagging (0.3 logMAR for
// corrected visual acuity).
func CrossEyeDifference(right, left *Examination, field string, threshold float64) (*EyeDifference, error) {
	if right == nil || left == nil {
		return nil, fmt.Errorf("both eye records are required")
	}
	rv, ok := asFloat(right.Data[field])
	if !ok {
		return nil, fmt.Errorf("field %q missing or non-numeric in right-eye record", field)
	}
	lv, ok := asFloat(left.Data[field])
	if !ok {
		return nil, fmt.Errorf("field %q missing or non-numeric in left-eye record", field)
	}

	diff := rv - lv
	if diff < 0 {
		diff = -diff
	}
	return &EyeDifference{
		Field:      field,
		Right:      rv,
		Left:       lv,
		Difference: diff,
		Flagged:    diff > threshold,
	}, nil
}
