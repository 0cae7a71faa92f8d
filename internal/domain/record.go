// Package domain defines the core types shared across the pipeline.
package domain

// RawRecord is a single market-data record exactly as received from the
// source API: loosely typed, fields possibly missing or malformed.
type RawRecord = map[string]any

// CandidateRecord is a RawRecord restricted and padded to the expected
// schema. Extra keys are gone; expected keys that were missing hold Absent.
type CandidateRecord = map[string]any

// Field names of the expected schema.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldSymbol       = "symbol"
	FieldCurrentPrice = "current_price"
	FieldMarketCap    = "market_cap"
	FieldTotalVolume  = "total_volume"
	FieldHigh24h      = "high_24h"
	FieldLow24h       = "low_24h"
	FieldChangePct24h = "price_change_percentage_24h"
)

// ExpectedSchema is the fixed ordered set of fields a record must carry
// before it may reach enrichment.
var ExpectedSchema = []string{
	FieldID,
	FieldName,
	FieldSymbol,
	FieldCurrentPrice,
	FieldMarketCap,
	FieldTotalVolume,
	FieldHigh24h,
	FieldLow24h,
	FieldChangePct24h,
}

// NumericFields are the schema fields that must coerce to float64.
var NumericFields = []string{
	FieldCurrentPrice,
	FieldMarketCap,
	FieldTotalVolume,
	FieldHigh24h,
	FieldLow24h,
	FieldChangePct24h,
}

type absentValue struct{}

// Absent marks a schema field that was missing from the raw record.
// It is distinguishable from every valid value, including nil, 0 and "".
var Absent = absentValue{}

func (absentValue) String() string { return "<absent>" }

// IsAbsent reports whether v is the missing-field sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absentValue)
	return ok
}
