package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndReadCounts(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := CountRecord{
			RunID:       uuid.NewString(),
			RecordedAt:  base.Add(time.Duration(i) * 5 * time.Minute),
			ToJohor:     10 + i,
			ToWoodlands: 20 + i,
			Excluded:    i,
		}
		require.NoError(t, db.RecordCounts(rec))
	}

	records, err := db.CountsSince(base)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Oldest first.
	assert.Equal(t, 10, records[0].ToJohor)
	assert.Equal(t, 12, records[2].ToJohor)
	assert.Equal(t, base, records[0].RecordedAt)
	assert.NotEmpty(t, records[0].RunID)
}

func TestCountsSinceWindow(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 48; h++ {
		require.NoError(t, db.RecordCounts(CountRecord{
			RunID:       uuid.NewString(),
			RecordedAt:  base.Add(time.Duration(h) * time.Hour),
			ToJohor:     h,
			ToWoodlands: h,
		}))
	}

	// Trailing 24h window relative to the last record.
	records, err := db.CountsSince(base.Add(47*time.Hour - 24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 25)
	assert.Equal(t, 23, records[0].ToJohor)
}

func TestLatestCounts(t *testing.T) {
	db := newTestDB(t)

	latest, err := db.LatestCounts()
	require.NoError(t, err)
	assert.Nil(t, latest, "empty table should yield nil")

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordCounts(CountRecord{RunID: "a", RecordedAt: base, ToJohor: 1, ToWoodlands: 2}))
	require.NoError(t, db.RecordCounts(CountRecord{RunID: "b", RecordedAt: base.Add(time.Minute), ToJohor: 3, ToWoodlands: 4}))

	latest, err = db.LatestCounts()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "b", latest.RunID)
	assert.Equal(t, 3, latest.ToJohor)
}

func TestMigrations(t *testing.T) {
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.MigrateUp())

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Idempotent: running again is a no-op.
	require.NoError(t, db.MigrateUp())

	require.NoError(t, db.MigrateDown())
}
