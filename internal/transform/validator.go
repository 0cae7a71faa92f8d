package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"crypto-market-pipeline/internal/domain"
)

// CoercionError reports the first numeric field that could not be converted
// to float64. The whole record is considered failed when this is returned.
type CoercionError struct {
	Field string
	Value any
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %v (%T) to float64", e.Field, e.Value, e.Value)
}

var expectedFields = func() map[string]struct{} {
	m := make(map[string]struct{}, len(domain.ExpectedSchema))
	for _, f := range domain.ExpectedSchema {
		m[f] = struct{}{}
	}
	return m
}()

// RestrictToSchema mutates rec so that it contains exactly the expected
// schema keys: extra keys are deleted, missing keys are inserted holding
// domain.Absent. Always succeeds.
func RestrictToSchema(rec domain.RawRecord) domain.CandidateRecord {
	for k := range rec {
		if _, ok := expectedFields[k]; !ok {
			delete(rec, k)
		}
	}
	for _, k := range domain.ExpectedSchema {
		if _, ok := rec[k]; !ok {
			rec[k] = domain.Absent
		}
	}
	return rec
}

// CoerceTypes enforces the schema's types in place: id, name and symbol
// become strings, the six market fields become float64. An absent or nil
// numeric field coerces to 0. Returns a *CoercionError naming the first
// field that fails; the record must then be rejected as a whole.
func CoerceTypes(rec domain.CandidateRecord) error {
	rec[domain.FieldID] = Stringify(rec[domain.FieldID])
	rec[domain.FieldName] = Stringify(rec[domain.FieldName])
	rec[domain.FieldSymbol] = Stringify(rec[domain.FieldSymbol])

	for _, f := range domain.NumericFields {
		v, err := toFloat(rec[f])
		if err != nil {
			return &CoercionError{Field: f, Value: rec[f]}
		}
		rec[f] = v
	}
	return nil
}

// toFloat converts the value shapes a JSON source can produce. Non-finite
// results are rejected so that enriched records only ever carry finite
// numbers.
func toFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		if domain.IsAbsent(v) {
			return 0, nil
		}
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}
