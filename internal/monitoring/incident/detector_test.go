package incident

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/maintenance"
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

type testHarness struct {
	db        *gorm.DB
	checks    store.CheckStore
	incidents store.IncidentStore
	oracle    *maintenance.Oracle
	detector  *Detector
}

func newHarness(t *testing.T, threshold int) *testHarness {
	t.Helper()
	db := newTestDB(t)
	checks := store.NewCheckStore(db)
	incidents := store.NewIncidentStore(db)
	oracle := maintenance.NewOracle(store.NewMaintenanceStore(db))
	detector := NewDetector(checks, incidents, oracle, NewInProcessLocker(), threshold)
	return &testHarness{db: db, checks: checks, incidents: incidents, oracle: oracle, detector: detector}
}

func result(monitorID uint, t time.Time, success bool, errMsg string) models.CheckResult {
	return models.CheckResult{
		MonitorID:   monitorID,
		MonitorName: "m",
		Timestamp:   t,
		Success:     success,
		Error:       errMsg,
	}
}

// TestDetector_S1 is the literal S1 scenario: threshold 2, samples at
// t=0,10,20,30,40 of true,true,false,false,true. No incident after t=20;
// one opens at t=30 with severity major; it resolves at t=40.
func TestDetector_S1(t *testing.T) {
	h := newHarness(t, 2)
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, h.detector.Process(ctx, result(1, base, true, "")))
	require.NoError(t, h.detector.Process(ctx, result(1, base.Add(10*time.Second), true, "")))
	require.NoError(t, h.detector.Process(ctx, result(1, base.Add(20*time.Second), false, "timeout")))

	active, err := h.incidents.ActiveFor(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active, "no incident expected after a single failure")

	require.NoError(t, h.detector.Process(ctx, result(1, base.Add(30*time.Second), false, "timeout")))

	active, err = h.incidents.ActiveFor(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active, "incident expected once the failure run reaches the threshold")
	assert.Equal(t, models.SeverityMajor, active.Severity)

	require.NoError(t, h.detector.Process(ctx, result(1, base.Add(40*time.Second), true, "")))

	active, err = h.incidents.ActiveFor(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active, "incident expected to resolve on the first success")
}

// TestDetector_S2 is the literal S2 scenario: true, false, true must never
// open an incident, and must leave two "up" rows and one "down" row.
func TestDetector_S2(t *testing.T) {
	h := newHarness(t, 2)
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, h.detector.Process(ctx, result(1, base, true, "")))
	require.NoError(t, h.detector.Process(ctx, result(1, base.Add(10*time.Second), false, "boom")))
	require.NoError(t, h.detector.Process(ctx, result(1, base.Add(20*time.Second), true, "")))

	active, err := h.incidents.ActiveFor(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	var up, down int64
	require.NoError(t, h.db.Model(&models.Check{}).Where("monitor_id = ? AND status = ?", 1, models.StatusUp).Count(&up).Error)
	require.NoError(t, h.db.Model(&models.Check{}).Where("monitor_id = ? AND status = ?", 1, models.StatusDown).Count(&down).Error)
	assert.Equal(t, int64(2), up)
	assert.Equal(t, int64(1), down)
}

// TestDetector_S3 is the literal S3 scenario: a monitor with a recurring
// 09:00-09:15 UTC window gets five consecutive failures at 09:05 UTC,
// 2s apart. All five persist as down checks; zero incidents open.
func TestDetector_S3(t *testing.T) {
	h := newHarness(t, 2)
	h.oracle.ReplaceRecurring(2, []models.RecurringWindow{
		{StartTime: "09:00", EndTime: "09:15", Timezone: "UTC"},
	})

	ctx := context.Background()
	base := time.Date(2025, 1, 15, 9, 5, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * 2 * time.Second)
		require.NoError(t, h.detector.Process(ctx, result(2, ts, false, "down")))
	}

	var count int64
	require.NoError(t, h.db.Model(&models.Check{}).Where("monitor_id = ? AND status = ?", 2, models.StatusDown).Count(&count).Error)
	assert.Equal(t, int64(5), count)

	active, err := h.incidents.ActiveFor(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, active, "maintenance must suppress incident creation")
}

// TestDetector_ThresholdHysteresis is invariant 2: with threshold=3, a
// failure run of exactly 2 bracketed by successes never opens an incident;
// a run of 3 opens exactly once.
func TestDetector_ThresholdHysteresis(t *testing.T) {
	h := newHarness(t, 3)
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	seq := []bool{true, false, false, true, false, false, false, true}
	for i, ok := range seq {
		errMsg := ""
		if !ok {
			errMsg = "down"
		}
		require.NoError(t, h.detector.Process(ctx, result(1, base.Add(time.Duration(i)*10*time.Second), ok, errMsg)))
		if i == 2 { // two failures only so far
			active, err := h.incidents.ActiveFor(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, active, "two consecutive failures must not open an incident at threshold 3")
		}
		if i == 6 { // three consecutive failures (indices 4,5,6)
			active, err := h.incidents.ActiveFor(ctx, 1)
			require.NoError(t, err)
			assert.NotNil(t, active, "three consecutive failures must open an incident at threshold 3")
		}
	}
}

// TestDetector_AtMostOneActiveIncident is invariant 1: repeated failures
// past the threshold never create a second open incident for the monitor.
func TestDetector_AtMostOneActiveIncident(t *testing.T) {
	h := newHarness(t, 2)
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, h.detector.Process(ctx, result(1, base.Add(time.Duration(i)*10*time.Second), false, "down")))
	}

	var count int64
	require.NoError(t, h.db.Model(&models.Incident{}).Where("monitor_id = ? AND resolved_at IS NULL", 1).Count(&count).Error)
	assert.LessOrEqual(t, count, int64(1))
}
