package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbnail-service/internal/domain"
)

func newTestStore(t *testing.T, name string) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), name))
	require.NoError(t, store.Init(), "Init should not return an error")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Init(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "init.db"))
	err := store.Init()
	assert.NoError(t, err, "Init should not return an error")

	assert.NoError(t, store.Close())
}

func TestSQLiteStore_StoreSnapshot(t *testing.T) {
	store := newTestStore(t, "store.db")

	snap := domain.Snapshot{
		Timestamp:          time.Now().Unix(),
		TotalRequests:      42,
		SuccessfulRequests: 42,
		SampleCount:        42,
		TotalP50:           1200,
		TotalP95:           4100,
		TotalP99:           9800,
		ProcessingP50:      900,
		ProcessingP95:      3000,
		ProcessingP99:      7000,
	}

	ctx := context.Background()
	err := store.StoreSnapshot(ctx, snap)
	assert.NoError(t, err, "StoreSnapshot should not return an error")

	retrieved, err := store.GetSnapshots(ctx, snap.Timestamp, snap.Timestamp, 0, 0)
	assert.NoError(t, err)
	require.Len(t, retrieved, 1, "Should find the stored snapshot")
	assert.Equal(t, snap, retrieved[0], "Retrieved snapshot should match stored snapshot")

	// same second overwrites
	snap.TotalRequests = 43
	require.NoError(t, store.StoreSnapshot(ctx, snap))
	retrieved, err = store.GetSnapshots(ctx, snap.Timestamp, snap.Timestamp, 0, 0)
	assert.NoError(t, err)
	require.Len(t, retrieved, 1)
	assert.Equal(t, int64(43), retrieved[0].TotalRequests)
}

func TestSQLiteStore_GetSnapshots(t *testing.T) {
	store := newTestStore(t, "get.db")

	now := time.Now().Unix()

	toStore := []domain.Snapshot{
		{Timestamp: now - 50, TotalRequests: 10, SuccessfulRequests: 10, SampleCount: 10, TotalP99: 100},
		{Timestamp: now - 40, TotalRequests: 20, SuccessfulRequests: 20, SampleCount: 20, TotalP99: 200},
		{Timestamp: now - 30, TotalRequests: 30, SuccessfulRequests: 30, SampleCount: 30, TotalP99: 300},
		{Timestamp: now - 20, TotalRequests: 40, SuccessfulRequests: 40, SampleCount: 40, TotalP99: 400},
		{Timestamp: now - 10, TotalRequests: 50, SuccessfulRequests: 50, SampleCount: 50, TotalP99: 500},
		{Timestamp: now, TotalRequests: 60, SuccessfulRequests: 60, SampleCount: 60, TotalP99: 600},
	}

	ctx := context.Background()
	for _, s := range toStore {
		require.NoError(t, store.StoreSnapshot(ctx, s))
	}

	// case 1: Full range (no limit/offset)
	retrieved, err := store.GetSnapshots(ctx, now-100, now+100, 0, 0)
	assert.NoError(t, err, "GetSnapshots should not return an error for full range")
	assert.Equal(t, toStore, retrieved, "Retrieved snapshots should match stored snapshots for full range")

	// case 2: Partial range
	retrieved, err = store.GetSnapshots(ctx, now-45, now-5, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, toStore[1:5], retrieved)

	// case 3: No snapshots in range
	retrieved, err = store.GetSnapshots(ctx, now+10, now+20, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, retrieved, 0)

	// case 4: Context cancellation during query
	ctxWithCancel, cancel := context.WithCancel(context.Background())
	cancel()
	retrieved, err = store.GetSnapshots(ctxWithCancel, now-100, now+100, 0, 0)
	assert.Error(t, err, "GetSnapshots should return an error when context is cancelled")
	assert.Contains(t, err.Error(), "context canceled")
	assert.Len(t, retrieved, 0)

	// case 5: Limit 2, Offset 2
	retrieved, err = store.GetSnapshots(ctx, now-100, now+100, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, toStore[2:4], retrieved)

	// case 6: Offset beyond available data
	retrieved, err = store.GetSnapshots(ctx, now-100, now+100, 2, 10)
	assert.NoError(t, err)
	assert.Len(t, retrieved, 0)

	// case 7: Negative offset is treated as 0
	retrieved, err = store.GetSnapshots(ctx, now-100, now+100, 2, -5)
	assert.NoError(t, err)
	assert.Equal(t, toStore[0:2], retrieved)
}
