package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage"
)

func TestPriceSnapshotStore_AppendAndGet(t *testing.T) {
	store := NewPriceSnapshotStore()
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	snaps := []domain.PriceSnapshot{
		{RecordID: "btc", Price: 50100, SnapshotTS: base.Add(time.Hour)},
		{RecordID: "btc", Price: 50000, SnapshotTS: base},
		{RecordID: "eth", Price: 2000, SnapshotTS: base},
	}
	for _, s := range snaps {
		if err := store.Append(ctx, s); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.GetByRecordID(ctx, "btc")
	if err != nil {
		t.Fatalf("GetByRecordID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(got))
	}
	// Ordered by snapshot time ASC.
	if got[0].Price != 50000 || got[1].Price != 50100 {
		t.Errorf("snapshots out of order: %+v", got)
	}
}

func TestPriceSnapshotStore_AppendOnly(t *testing.T) {
	store := NewPriceSnapshotStore()
	ctx := context.Background()

	s := domain.PriceSnapshot{RecordID: "btc", Price: 50000, SnapshotTS: time.Now()}
	if err := store.Append(ctx, s); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	// Identical rows are allowed; the table has no uniqueness.
	if err := store.Append(ctx, s); err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
}

func TestPriceSnapshotStore_RejectsEmptyRecordID(t *testing.T) {
	store := NewPriceSnapshotStore()

	err := store.Append(context.Background(), domain.PriceSnapshot{Price: 1})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestPriceSnapshotStore_EmptyResult(t *testing.T) {
	store := NewPriceSnapshotStore()

	got, err := store.GetByRecordID(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetByRecordID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d snapshots, want 0", len(got))
	}
}
