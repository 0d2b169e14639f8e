package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Check{}, &models.Incident{}))
	return db
}

func TestBucketExprFor(t *testing.T) {
	cases := []struct {
		dialect, granularity, want string
	}{
		{"sqlite", "hour", "strftime('%Y-%m-%d %H:00:00', checked_at)"},
		{"sqlite", "day", "strftime('%Y-%m-%d', checked_at)"},
		{"postgres", "hour", "to_char(checked_at, 'YYYY-MM-DD HH24:00:00')"},
		{"postgres", "day", "to_char(checked_at, 'YYYY-MM-DD')"},
		{"mysql", "hour", "DATE_FORMAT(checked_at, '%Y-%m-%d %H:00:00')"},
		{"mysql", "day", "DATE_FORMAT(checked_at, '%Y-%m-%d')"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, bucketExprFor(tc.dialect, tc.granularity))
	}
}

func TestCheckStore_ResponseTimeHistory_Sqlite(t *testing.T) {
	db := newTestDB(t)
	cs := NewCheckStore(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-2 * time.Hour)
	for i := 0; i < 4; i++ {
		require.NoError(t, cs.Save(ctx, models.Check{
			MonitorID:      1,
			Status:         models.StatusUp,
			ResponseTimeMs: 100 + i*10,
			CheckedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	buckets, err := cs.ResponseTimeHistory(ctx, 1, 1, "hour")
	require.NoError(t, err)
	require.NotEmpty(t, buckets)
}

func TestCheckStore_RecentAndLatest(t *testing.T) {
	db := newTestDB(t)
	cs := NewCheckStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, cs.Save(ctx, models.Check{MonitorID: 1, Status: models.StatusUp, CheckedAt: now.Add(-time.Minute)}))
	require.NoError(t, cs.Save(ctx, models.Check{MonitorID: 1, Status: models.StatusDown, CheckedAt: now}))

	latest, err := cs.Latest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.StatusDown, latest.Status)

	recent, err := cs.Recent(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.StatusDown, recent[0].Status, "most recent first")
}

func TestCheckStore_DeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	cs := NewCheckStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, cs.Save(ctx, models.Check{MonitorID: 1, Status: models.StatusUp, CheckedAt: now.AddDate(0, 0, -40)}))
	require.NoError(t, cs.Save(ctx, models.Check{MonitorID: 1, Status: models.StatusUp, CheckedAt: now.AddDate(0, 0, -1)}))

	require.NoError(t, cs.DeleteOlderThan(ctx, 30))

	recent, err := cs.Recent(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}
