package examination

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports an out-of-range clinical value, naming the field so
// the form layer can highlight it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// fieldRange bounds one clinical field. When prefix is set, the rule applies
// to every field whose name starts with field (cr_R1, cr_R2, ...).
type fieldRange struct {
	field  string
	prefix bool
	min    float64
	max    float64
	unit   string
}

// kindRanges holds the fixed clinical ranges per examination kind.
var kindRanges = map[Kind][]fieldRange{
	KindBasicInfo: {
		{field: "cr_", prefix: true, min: 6.0, max: 9.0, unit: "mm"},
		{field: "iop_", prefix: true, min: 8, max: 25, unit: "mmHg"},
	},
	KindVAS: {
		{field: "score", prefix: true, min: 0, max: 100, unit: "points"},
	},
	KindComparativeScores: {
		{field: "score", prefix: true, min: 0, max: 100, unit: "points"},
	},
	KindFitting: {
		{field: "movement", min: 0, max: 2.0, unit: "mm"},
	},
	KindDR1: {
		{field: "nibut", min: 0, max: 30, unit: "s"},
	},
	KindCorrectedVA: {
		{field: "va", prefix: true, min: -0.30, max: 1.70, unit: "logMAR"},
	},
	KindLensInspection: {
		{field: "depositGrade", min: 0, max: 4, unit: "grade"},
	},
	KindQuestionnaire: {
		{field: "q", prefix: true, min: 1, max: 5, unit: "points"},
	},
}

// Validate rejects out-of-range numeric values before any write. Fields not
// covered by a range rule pass through unchecked; bounded fields must be
// numeric.
func Validate(kind Kind, data map[string]interface{}) error {
	if !ValidKind(kind) {
		return fmt.Errorf("unknown examination kind: %s", kind)
	}
	for field, raw := range data {
		rule, ok := rangeFor(kind, field)
		if !ok {
			continue
		}
		value, ok := asFloat(raw)
		if !ok {
			return &ValidationError{Field: field, Message: "must be a number"}
		}
		if value < rule.min || value > rule.max {
			return &ValidationError{
				Field: field,
				Message: fmt.Sprintf("value %v outside range %g-%g %s",
					raw, rule.min, rule.max, rule.unit),
			}
		}
	}
	return nil
}

func rangeFor(kind Kind, field string) (fieldRange, bool) {
	for _, rule := range kindRanges[kind] {
		if rule.prefix && strings.HasPrefix(field, rule.field) {
			return rule, true
		}
		if !rule.prefix && field == rule.field {
			return rule, true
		}
	}
	return fieldRange{}, false
}

func asFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
