package maintenance

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
	require.NoError(t, db.AutoMigrate(&models.FixedWindow{}))
	return db
}

func TestOracle_RecurringWindow(t *testing.T) {
	o := NewOracle(store.NewMaintenanceStore(newTestDB(t)))
	o.ReplaceRecurring(1, []models.RecurringWindow{
		{StartTime: "09:00", EndTime: "09:15", Timezone: "UTC"},
	})

	inside := time.Date(2025, 1, 15, 9, 5, 0, 0, time.UTC)
	outside := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	status, err := o.InMaintenance(context.Background(), 1, inside)
	require.NoError(t, err)
	assert.True(t, status.InMaintenance)

	status, err = o.InMaintenance(context.Background(), 1, outside)
	require.NoError(t, err)
	assert.False(t, status.InMaintenance)
}

func TestOracle_OvernightRecurringWindow(t *testing.T) {
	o := NewOracle(store.NewMaintenanceStore(newTestDB(t)))
	o.ReplaceRecurring(1, []models.RecurringWindow{
		{StartTime: "23:00", EndTime: "01:00", Timezone: "UTC"},
	})

	lateNight := time.Date(2025, 1, 15, 23, 30, 0, 0, time.UTC)
	earlyMorning := time.Date(2025, 1, 15, 0, 30, 0, 0, time.UTC)
	midday := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"late night", lateNight, true},
		{"early morning", earlyMorning, true},
		{"midday", midday, false},
	} {
		status, err := o.InMaintenance(context.Background(), 1, tc.ts)
		require.NoError(t, err)
		assert.Equal(t, tc.want, status.InMaintenance, tc.name)
	}
}

func TestOracle_FixedWindowFallback(t *testing.T) {
	db := newTestDB(t)
	o := NewOracle(store.NewMaintenanceStore(db))

	monitorID := uint(5)
	start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.FixedWindow{
		ID:        "w1",
		MonitorID: &monitorID,
		StartTime: start,
		EndTime:   end,
		Timezone:  "UTC",
	}).Error)

	status, err := o.InMaintenance(context.Background(), monitorID, start.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, status.InMaintenance)

	status, err = o.InMaintenance(context.Background(), monitorID, end.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, status.InMaintenance)
}

func TestOracle_NoWindowsConfigured(t *testing.T) {
	o := NewOracle(store.NewMaintenanceStore(newTestDB(t)))
	status, err := o.InMaintenance(context.Background(), 99, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, status.InMaintenance)
}
