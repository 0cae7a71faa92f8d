// Package memory provides in-memory store implementations for tests and
// the --use-memory mode.
package memory

import (
	"context"
	"sync"
	"time"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

// EntityStore is an in-memory implementation of storage.EntityStore.
type EntityStore struct {
	mu       sync.RWMutex
	data     map[string]domain.Entity // keyed by id
	lastSeen map[string]time.Time
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		data:     make(map[string]domain.Entity),
		lastSeen: make(map[string]time.Time),
	}
}

// Compile-time interface check.
var _ storage.EntityStore = (*EntityStore)(nil)

// Upsert creates or updates the entity and refreshes its last-seen time.
func (s *EntityStore) Upsert(_ context.Context, e domain.Entity) error {
	if e.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[e.ID] = e
	s.lastSeen[e.ID] = time.Now()
	return nil
}

// GetByID retrieves an entity by id. Returns ErrNotFound if not exists.
func (s *EntityStore) GetByID(_ context.Context, id string) (*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	entityCopy := e
	return &entityCopy, nil
}

// LastSeen returns the last-seen time recorded for id, zero if unknown.
func (s *EntityStore) LastSeen(id string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen[id]
}
