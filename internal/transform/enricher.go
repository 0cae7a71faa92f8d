package transform

import (
	"time"

	"crypto-market-pipeline/internal/domain"
)

// Enrich builds the final typed record from a candidate that already passed
// CoerceTypes, computing the derived metrics and stamping the capture time.
// Caller contract: every schema field holds its coerced type; Enrich does
// not re-validate.
func Enrich(rec domain.CandidateRecord, now time.Time) *domain.EnrichedRecord {
	e := &domain.EnrichedRecord{
		ID:           rec[domain.FieldID].(string),
		Name:         rec[domain.FieldName].(string),
		Symbol:       rec[domain.FieldSymbol].(string),
		CurrentPrice: rec[domain.FieldCurrentPrice].(float64),
		MarketCap:    rec[domain.FieldMarketCap].(float64),
		TotalVolume:  rec[domain.FieldTotalVolume].(float64),
		High24h:      rec[domain.FieldHigh24h].(float64),
		Low24h:       rec[domain.FieldLow24h].(float64),
		ChangePct24h: rec[domain.FieldChangePct24h].(float64),
		SnapshotTS:   now,
	}

	e.PriceChangeAbs24h = e.High24h - e.Low24h
	if e.MarketCap > 0 {
		e.PriceVsMarketCapRatio = e.CurrentPrice / e.MarketCap
	}
	// Non-positive market cap leaves the ratio at 0: division by zero and
	// nonsense negative caps are treated identically.

	return e
}
