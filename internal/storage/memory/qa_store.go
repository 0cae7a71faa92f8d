package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

// QAStore is an in-memory implementation of storage.QAStore.
type QAStore struct {
	mu   sync.RWMutex
	data []domain.QAEntry
}

// NewQAStore creates a new in-memory QA store.
func NewQAStore() *QAStore {
	return &QAStore{}
}

// Compile-time interface check.
var _ storage.QAStore = (*QAStore)(nil)

// Append adds one QA entry.
func (s *QAStore) Append(_ context.Context, e domain.QAEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = append(s.data, e)
	return nil
}

// CountOnDay counts entries whose snapshot timestamp falls on the calendar
// day containing day, in day's location.
func (s *QAStore) CountOnDay(_ context.Context, day time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	y, m, d := day.Date()
	count := 0
	for _, e := range s.data {
		ey, em, ed := e.SnapshotTS.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			count++
		}
	}
	return count, nil
}

// GetByClassification retrieves all entries with the given classification,
// ordered by snapshot time ASC.
func (s *QAStore) GetByClassification(_ context.Context, c domain.Classification) ([]domain.QAEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.QAEntry
	for _, e := range s.data {
		if e.Classification == c {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SnapshotTS.Before(result[j].SnapshotTS)
	})

	return result, nil
}

// All returns a copy of every stored entry in append order.
func (s *QAStore) All() []domain.QAEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.QAEntry, len(s.data))
	copy(out, s.data)
	return out
}
