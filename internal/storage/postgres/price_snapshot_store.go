package postgres

import (
	"context"
	"fmt"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

// PriceSnapshotStore implements storage.PriceSnapshotStore using PostgreSQL.
type PriceSnapshotStore struct {
	pool *Pool
}

// NewPriceSnapshotStore creates a new PriceSnapshotStore.
func NewPriceSnapshotStore(pool *Pool) *PriceSnapshotStore {
	return &PriceSnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)

// Append adds one price row.
func (s *PriceSnapshotStore) Append(ctx context.Context, snap domain.PriceSnapshot) error {
	if snap.RecordID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO crypto_prices (
			crypto_id, price_usd, market_cap_usd, volume_24h,
			high_24h, low_24h, price_change_percentage_24h, snapshot_ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		snap.RecordID,
		snap.Price,
		snap.MarketCap,
		snap.Volume,
		snap.High24h,
		snap.Low24h,
		snap.ChangePct24h,
		snap.SnapshotTS,
	)
	if err != nil {
		return fmt.Errorf("append price snapshot: %w", err)
	}
	return nil
}

// GetByRecordID retrieves all snapshots for a record, ordered by snapshot
// time ASC.
func (s *PriceSnapshotStore) GetByRecordID(ctx context.Context, recordID string) ([]domain.PriceSnapshot, error) {
	query := `
		SELECT crypto_id, price_usd, market_cap_usd, volume_24h,
		       high_24h, low_24h, price_change_percentage_24h, snapshot_ts
		FROM crypto_prices
		WHERE crypto_id = $1
		ORDER BY snapshot_ts ASC
	`

	rows, err := s.pool.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by record id: %w", err)
	}
	defer rows.Close()

	var result []domain.PriceSnapshot
	for rows.Next() {
		var snap domain.PriceSnapshot
		if err := rows.Scan(
			&snap.RecordID,
			&snap.Price,
			&snap.MarketCap,
			&snap.Volume,
			&snap.High24h,
			&snap.Low24h,
			&snap.ChangePct24h,
			&snap.SnapshotTS,
		); err != nil {
			return nil, fmt.Errorf("scan price snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price snapshots: %w", err)
	}

	return result, nil
}
