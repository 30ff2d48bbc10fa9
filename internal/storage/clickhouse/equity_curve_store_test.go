package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dip-strategy-lab/internal/domain"
	"dip-strategy-lab/internal/storage"
)

func testCurve() []*domain.EquityCurvePoint {
	return []*domain.EquityCurvePoint{
		{TimestampMs: 1000, Equity: 10000},
		{TimestampMs: 2000, Equity: 10150},
		{TimestampMs: 3000, Equity: 10090},
	}
}

func TestEquityCurveStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", testCurve()))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.InDelta(t, 10000, got[0].Equity, 1e-9)
	assert.Equal(t, int64(3000), got[2].TimestampMs)
	assert.InDelta(t, 10090, got[2].Equity, 1e-9)
}

func TestEquityCurveStoreDuplicateRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", testCurve()))

	// A second curve under the same run id is rejected entirely.
	err := store.InsertBulk(ctx, "run-1", []*domain.EquityCurvePoint{
		{TimestampMs: 9000, Equity: 5000},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestEquityCurveStoreInvalidInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	err := store.InsertBulk(ctx, "", testCurve())
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertBulk(ctx, "run-1", []*domain.EquityCurvePoint{
		{TimestampMs: 1000, Equity: 10000},
		{TimestampMs: 1000, Equity: 10001},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestEquityCurveStoreRunIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewEquityCurveStore(conn)

	require.NoError(t, store.InsertBulk(ctx, "run-1", testCurve()))
	require.NoError(t, store.InsertBulk(ctx, "run-2", []*domain.EquityCurvePoint{
		{TimestampMs: 1000, Equity: 20000},
	}))

	got, err := store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 20000, got[0].Equity, 1e-9)
}
