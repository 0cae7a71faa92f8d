package postgres

import (
	"context"
	"fmt"
	"time"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

// QAStore implements storage.QAStore using PostgreSQL.
type QAStore struct {
	pool *Pool
}

// NewQAStore creates a new QAStore.
func NewQAStore(pool *Pool) *QAStore {
	return &QAStore{pool: pool}
}

// Compile-time interface check.
var _ storage.QAStore = (*QAStore)(nil)

// Append adds one QA entry. crypto_id is stored as NULL when the payload
// carried no identifier.
func (s *QAStore) Append(ctx context.Context, e domain.QAEntry) error {
	query := `
		INSERT INTO crypto_data_qa (crypto_id, error_type, error_details, raw_data, snapshot_ts)
		VALUES ($1, $2, $3, $4::jsonb, $5)
	`

	var recordID *string
	if e.RecordID != "" {
		recordID = &e.RecordID
	}

	payload := e.RawPayload
	if payload == "" {
		payload = "{}"
	}

	_, err := s.pool.Exec(ctx, query,
		recordID,
		string(e.Classification),
		e.Detail,
		payload,
		e.SnapshotTS,
	)
	if err != nil {
		return fmt.Errorf("append qa entry: %w", err)
	}
	return nil
}

// CountOnDay counts entries whose snapshot timestamp falls on the calendar
// day containing day (database-side date truncation).
func (s *QAStore) CountOnDay(ctx context.Context, day time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM crypto_data_qa
		WHERE snapshot_ts::date = $1::date
	`

	var count int
	if err := s.pool.QueryRow(ctx, query, day).Scan(&count); err != nil {
		return 0, fmt.Errorf("count qa entries on day: %w", err)
	}
	return count, nil
}

// GetByClassification retrieves all entries with the given classification,
// ordered by snapshot time ASC.
func (s *QAStore) GetByClassification(ctx context.Context, c domain.Classification) ([]domain.QAEntry, error) {
	query := `
		SELECT COALESCE(crypto_id, ''), error_type, error_details, raw_data::text, snapshot_ts
		FROM crypto_data_qa
		WHERE error_type = $1
		ORDER BY snapshot_ts ASC
	`

	rows, err := s.pool.Query(ctx, query, string(c))
	if err != nil {
		return nil, fmt.Errorf("get qa entries by classification: %w", err)
	}
	defer rows.Close()

	var result []domain.QAEntry
	for rows.Next() {
		var e domain.QAEntry
		var class string
		if err := rows.Scan(&e.RecordID, &class, &e.Detail, &e.RawPayload, &e.SnapshotTS); err != nil {
			return nil, fmt.Errorf("scan qa entry: %w", err)
		}
		e.Classification = domain.Classification(class)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate qa entries: %w", err)
	}

	return result, nil
}
