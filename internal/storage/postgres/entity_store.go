package postgres

import (
	"context"
	"fmt"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

// EntityStore implements storage.EntityStore using PostgreSQL.
type EntityStore struct {
	pool *Pool
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(pool *Pool) *EntityStore {
	return &EntityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EntityStore = (*EntityStore)(nil)

// Upsert creates or updates the entity keyed by id and refreshes its
// last-seen timestamp.
func (s *EntityStore) Upsert(ctx context.Context, e domain.Entity) error {
	if e.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO cryptocurrencies (id, name, symbol, last_seen_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			last_seen_at = now()
	`

	_, err := s.pool.Exec(ctx, query, e.ID, e.Name, e.Symbol)
	if err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}
	return nil
}

// GetByID retrieves an entity by id. Returns ErrNotFound if not exists.
func (s *EntityStore) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	query := `
		SELECT id, name, symbol
		FROM cryptocurrencies
		WHERE id = $1
	`

	var e domain.Entity
	err := s.pool.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.Symbol)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get entity by id: %w", err)
	}
	return &e, nil
}
