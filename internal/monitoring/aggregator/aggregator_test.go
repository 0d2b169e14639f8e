package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/store"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Monitor{},
		&models.FixedWindow{},
		&models.Check{},
		&models.Incident{},
		&models.StatusHistoryDay{},
	))
	return db
}

// seedChecks inserts n checks for monitorID on day, evenly spread across
// the day, with the first `down` of them marked failed.
func seedChecks(t *testing.T, db *gorm.DB, monitorID uint, day time.Time, total, down int) {
	t.Helper()
	for i := 0; i < total; i++ {
		status := models.StatusUp
		respMs := 100
		if i < down {
			status = models.StatusDown
			respMs = 0
		}
		check := models.Check{
			MonitorID:      monitorID,
			Status:         status,
			ResponseTimeMs: respMs,
			CheckedAt:      day.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&check).Error)
	}
}

// TestAggregator_S5 is the literal S5 scenario: 100 checks on one day, 95
// up at 100ms and 5 down. Running the daily aggregation twice must produce
// byte-identical row values (invariant 6, idempotence).
func TestAggregator_S5(t *testing.T) {
	db := newTestDB(t)
	checks := store.NewCheckStore(db)
	history := store.NewHistoryStore(db)
	agg := New(checks, history, 1)

	today := time.Now().UTC()
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	seedChecks(t, db, 3, day, 100, 5)
	// the 95 "up" rows must average to 100ms: only the up rows carry 100ms,
	// the down rows carry 0, so AvgResponseTime (status=up filter) is exact.

	ctx := context.Background()
	require.NoError(t, agg.rollUpDay(ctx, day))

	row, err := history.Get(ctx, 3, day)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 100, row.TotalChecks)
	assert.Equal(t, 95, row.SuccessfulChecks)
	assert.InDelta(t, 95.0, row.UptimePct, 0.001)
	assert.Equal(t, 100, row.AvgResponseTimeMs)

	first := *row
	require.NoError(t, agg.rollUpDay(ctx, day))
	second, err := history.Get(ctx, 3, day)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.TotalChecks, second.TotalChecks)
	assert.Equal(t, first.SuccessfulChecks, second.SuccessfulChecks)
	assert.Equal(t, first.UptimePct, second.UptimePct)
	assert.Equal(t, first.AvgResponseTimeMs, second.AvgResponseTimeMs)
}

// TestAggregator_Retention is invariant 8: after trimRetention, no check
// older than the retention window remains, and nothing within it is removed.
func TestAggregator_Retention(t *testing.T) {
	db := newTestDB(t)
	checks := store.NewCheckStore(db)
	history := store.NewHistoryStore(db)
	agg := New(checks, history, 7)

	now := time.Now().UTC()
	oldDay := now.AddDate(0, 0, -30)
	recentDay := now.AddDate(0, 0, -1)

	seedChecks(t, db, 1, oldDay, 3, 0)
	seedChecks(t, db, 1, recentDay, 3, 0)

	require.NoError(t, agg.trimRetention(context.Background()))

	var oldCount, recentCount int64
	cutoff := now.AddDate(0, 0, -7)
	require.NoError(t, db.Model(&models.Check{}).Where("checked_at < ?", cutoff).Count(&oldCount).Error)
	require.NoError(t, db.Model(&models.Check{}).Where("checked_at >= ?", cutoff).Count(&recentCount).Error)

	assert.Equal(t, int64(0), oldCount)
	assert.Equal(t, int64(3), recentCount)
}

func TestDayStart_TruncatesToMidnightUTC(t *testing.T) {
	in := time.Date(2025, 3, 4, 17, 22, 33, 0, time.UTC)
	out := dayStart(in)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), out)
}
