package memory

import (
	"context"
	"sort"
	"sync"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

// PriceSnapshotStore is an in-memory implementation of
// storage.PriceSnapshotStore.
type PriceSnapshotStore struct {
	mu   sync.RWMutex
	data []domain.PriceSnapshot
}

// NewPriceSnapshotStore creates a new in-memory price snapshot store.
func NewPriceSnapshotStore() *PriceSnapshotStore {
	return &PriceSnapshotStore{}
}

// Compile-time interface check.
var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)

// Append adds one price row.
func (s *PriceSnapshotStore) Append(_ context.Context, snap domain.PriceSnapshot) error {
	if snap.RecordID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, snap)
	return nil
}

// GetByRecordID retrieves all snapshots for a record, ordered by snapshot
// time ASC.
func (s *PriceSnapshotStore) GetByRecordID(_ context.Context, recordID string) ([]domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PriceSnapshot
	for _, snap := range s.data {
		if snap.RecordID == recordID {
			result = append(result, snap)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SnapshotTS.Before(result[j].SnapshotTS)
	})

	return result, nil
}

// Len returns the total number of stored snapshots.
func (s *PriceSnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
