package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-market-pipeline/internal/domain"
	"crypto-market-pipeline/internal/storage/postgres"
)

func TestPriceSnapshotStore_AppendAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	entities := postgres.NewEntityStore(pool)
	store := postgres.NewPriceSnapshotStore(pool)
	ctx := context.Background()

	// crypto_prices references cryptocurrencies(id).
	require.NoError(t, entities.Upsert(ctx, domain.Entity{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"}))

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	snap := domain.PriceSnapshot{
		RecordID:     "bitcoin",
		Price:        50000,
		MarketCap:    9e11,
		Volume:       1e9,
		High24h:      51000,
		Low24h:       49000,
		ChangePct24h: 2.1,
		SnapshotTS:   base,
	}
	require.NoError(t, store.Append(ctx, snap))

	got, err := store.GetByRecordID(ctx, "bitcoin")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, snap.Price, got[0].Price)
	assert.Equal(t, snap.MarketCap, got[0].MarketCap)
	assert.Equal(t, snap.Volume, got[0].Volume)
	assert.Equal(t, snap.High24h, got[0].High24h)
	assert.Equal(t, snap.Low24h, got[0].Low24h)
	assert.Equal(t, snap.ChangePct24h, got[0].ChangePct24h)
	assert.Equal(t, base, got[0].SnapshotTS.UTC())
}

func TestPriceSnapshotStore_OrderedBySnapshotTime(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	entities := postgres.NewEntityStore(pool)
	store := postgres.NewPriceSnapshotStore(pool)
	ctx := context.Background()

	require.NoError(t, entities.Upsert(ctx, domain.Entity{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"}))

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		require.NoError(t, store.Append(ctx, domain.PriceSnapshot{
			RecordID:   "bitcoin",
			Price:      50000 + float64(offset/time.Hour),
			SnapshotTS: base.Add(offset),
		}))
	}

	got, err := store.GetByRecordID(ctx, "bitcoin")
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].SnapshotTS.Before(got[i-1].SnapshotTS), "snapshots out of order")
	}
}

func TestPriceSnapshotStore_EmptyResult(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewPriceSnapshotStore(pool)

	got, err := store.GetByRecordID(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, got)
}
