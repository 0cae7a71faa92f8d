package storage

import (
	"context"
	"time"

	"crypto-market-pipeline/internal/domain"
)

// EntityStore provides access to cryptocurrencies storage.
type EntityStore interface {
	// Upsert creates or updates the entity keyed by its id and refreshes
	// its last-seen timestamp. Idempotent.
	Upsert(ctx context.Context, e domain.Entity) error

	// GetByID retrieves an entity by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
}

// PriceSnapshotStore provides access to crypto_prices storage.
type PriceSnapshotStore interface {
	// Append adds one price row. Append-only; rows are never updated.
	Append(ctx context.Context, s domain.PriceSnapshot) error

	// GetByRecordID retrieves all snapshots for a record, ordered by
	// snapshot time ASC.
	GetByRecordID(ctx context.Context, recordID string) ([]domain.PriceSnapshot, error)
}

// QAStore provides access to crypto_data_qa storage.
type QAStore interface {
	// Append adds one QA entry. Append-only.
	Append(ctx context.Context, e domain.QAEntry) error

	// CountOnDay counts entries whose snapshot timestamp falls on the
	// calendar day containing day (store-local day boundary).
	CountOnDay(ctx context.Context, day time.Time) (int, error)

	// GetByClassification retrieves all entries with the given
	// classification, ordered by snapshot time ASC.
	GetByClassification(ctx context.Context, c domain.Classification) ([]domain.QAEntry, error)
}
