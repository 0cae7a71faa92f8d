package domain

import "time"

// EnrichedRecord is a fully validated, typed record plus derived metrics.
// Immutable after creation; every numeric field is a finite float64.
type EnrichedRecord struct {
	ID     string
	Name   string
	Symbol string

	CurrentPrice float64
	MarketCap    float64
	TotalVolume  float64
	High24h      float64
	Low24h       float64
	ChangePct24h float64

	// Derived fields.
	PriceChangeAbs24h     float64
	PriceVsMarketCapRatio float64
	SnapshotTS            time.Time
}

// Entity is the identity slice of an enriched record, upserted once per run.
type Entity struct {
	ID     string
	Name   string
	Symbol string
}

// PriceSnapshot is one append-only price observation for a record.
type PriceSnapshot struct {
	RecordID     string
	Price        float64
	MarketCap    float64
	Volume       float64
	High24h      float64
	Low24h       float64
	ChangePct24h float64
	SnapshotTS   time.Time
}

// Entity returns the upsertable identity slice of the record.
func (r *EnrichedRecord) Entity() Entity {
	return Entity{ID: r.ID, Name: r.Name, Symbol: r.Symbol}
}

// Fields returns the record as a key-value map covering every schema field
// plus the derived ones, suitable for QA payloads.
func (r *EnrichedRecord) Fields() map[string]any {
	return map[string]any{
		FieldID:                    r.ID,
		FieldName:                  r.Name,
		FieldSymbol:                r.Symbol,
		FieldCurrentPrice:          r.CurrentPrice,
		FieldMarketCap:             r.MarketCap,
		FieldTotalVolume:           r.TotalVolume,
		FieldHigh24h:               r.High24h,
		FieldLow24h:                r.Low24h,
		FieldChangePct24h:          r.ChangePct24h,
		"price_change_abs_24h":     r.PriceChangeAbs24h,
		"price_vs_marketcap_ratio": r.PriceVsMarketCapRatio,
		"snapshot_ts":              r.SnapshotTS,
	}
}

// Snapshot returns the append-only price row for the record.
func (r *EnrichedRecord) Snapshot() PriceSnapshot {
	return PriceSnapshot{
		RecordID:     r.ID,
		Price:        r.CurrentPrice,
		MarketCap:    r.MarketCap,
		Volume:       r.TotalVolume,
		High24h:      r.High24h,
		Low24h:       r.Low24h,
		ChangePct24h: r.ChangePct24h,
		SnapshotTS:   r.SnapshotTS,
	}
}
