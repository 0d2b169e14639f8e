package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// HistoryStore persists per-(monitor, day) uptime summary rows.
type HistoryStore interface {
	// Upsert writes or replaces the summary row for (row.MonitorID, row.Date).
	Upsert(ctx context.Context, row models.StatusHistoryDay) error
	Get(ctx context.Context, monitorID uint, date time.Time) (*models.StatusHistoryDay, error)
	ListRange(ctx context.Context, monitorID uint, from, to time.Time) ([]models.StatusHistoryDay, error)
	DeleteOlderThan(ctx context.Context, days int) error
	DistinctMonitorsWithChecksOn(ctx context.Context, date time.Time) ([]uint, error)
}

type historyStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) HistoryStore {
	return &historyStore{db: db}
}

func (s *historyStore) Upsert(ctx context.Context, row models.StatusHistoryDay) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).
		Where("monitor_id = ? AND date = ?", row.MonitorID, dateOnly(row.Date)).
		Assign(models.StatusHistoryDay{
			UptimePct:         row.UptimePct,
			AvgResponseTimeMs: row.AvgResponseTimeMs,
			TotalChecks:       row.TotalChecks,
			SuccessfulChecks:  row.SuccessfulChecks,
		}).
		FirstOrCreate(&row).Error
}

func (s *historyStore) Get(ctx context.Context, monitorID uint, date time.Time) (*models.StatusHistoryDay, error) {
	var row models.StatusHistoryDay
	err := s.db.WithContext(ctx).
		Where("monitor_id = ? AND date = ?", monitorID, dateOnly(date)).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *historyStore) ListRange(ctx context.Context, monitorID uint, from, to time.Time) ([]models.StatusHistoryDay, error) {
	var rows []models.StatusHistoryDay
	err := s.db.WithContext(ctx).
		Where("monitor_id = ? AND date >= ? AND date <= ?", monitorID, dateOnly(from), dateOnly(to)).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

func (s *historyStore) DeleteOlderThan(ctx context.Context, days int) error {
	cutoff := dateOnly(time.Now().UTC().AddDate(0, 0, -days))
	return s.db.WithContext(ctx).Where("date < ?", cutoff).Delete(&models.StatusHistoryDay{}).Error
}

func (s *historyStore) DistinctMonitorsWithChecksOn(ctx context.Context, date time.Time) ([]uint, error) {
	start := dateOnly(date)
	end := start.AddDate(0, 0, 1)
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&models.Check{}).
		Where("checked_at >= ? AND checked_at < ?", start, end).
		Distinct().
		Pluck("monitor_id", &ids).Error
	return ids, err
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
