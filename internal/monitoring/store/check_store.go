// Package store is the relational persistence layer for checks, incidents,
// maintenance windows, and status history — the single source of truth all
// writers share via one connection pool.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// HistoryBucket is one bucketed row of ResponseTimeHistory.
type HistoryBucket struct {
	Bucket time.Time
	AvgMs  float64
	MinMs  int
	MaxMs  int
}

// CheckStore is the append-only check row store plus its read-side
// aggregate queries. All queries are parameterized by monitor id and time
// window; the (monitor_id, checked_at) composite index is mandatory.
type CheckStore interface {
	Save(ctx context.Context, check models.Check) error
	Recent(ctx context.Context, monitorID uint, n int) ([]models.Check, error)
	Latest(ctx context.Context, monitorID uint) (*models.Check, error)
	UptimePct(ctx context.Context, monitorID uint, days int) (float64, error)
	AvgResponseTime(ctx context.Context, monitorID uint, days int) (float64, error)
	ResponseTimeHistory(ctx context.Context, monitorID uint, days int, granularity string) ([]HistoryBucket, error)
	StateTransitionsInWindow(ctx context.Context, monitorID uint, minutes int) (int, error)
	RecentBulk(ctx context.Context, monitorIDs []uint, n int) (map[uint][]models.Check, error)
	UptimePctBulk(ctx context.Context, monitorIDs []uint, days int) (map[uint]float64, error)
	CountInRange(ctx context.Context, monitorID uint, since time.Time) (total, successful int64, err error)
	DeleteOlderThan(ctx context.Context, days int) error
}

type checkStore struct {
	db *gorm.DB
}

func NewCheckStore(db *gorm.DB) CheckStore {
	return &checkStore{db: db}
}

func (s *checkStore) Save(ctx context.Context, check models.Check) error {
	return s.db.WithContext(ctx).Create(&check).Error
}

func (s *checkStore) Recent(ctx context.Context, monitorID uint, n int) ([]models.Check, error) {
	if n <= 0 {
		n = 20
	}
	var checks []models.Check
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		Limit(n).
		Find(&checks).Error
	return checks, err
}

func (s *checkStore) Latest(ctx context.Context, monitorID uint) (*models.Check, error) {
	var check models.Check
	err := s.db.WithContext(ctx).
		Where("monitor_id = ?", monitorID).
		Order("checked_at DESC").
		First(&check).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (s *checkStore) UptimePct(ctx context.Context, monitorID uint, days int) (float64, error) {
	total, successful, err := s.CountInRange(ctx, monitorID, windowStart(days))
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 100, nil
	}
	return float64(successful) / float64(total) * 100, nil
}

func (s *checkStore) AvgResponseTime(ctx context.Context, monitorID uint, days int) (float64, error) {
	var avg float64
	err := s.db.WithContext(ctx).
		Model(&models.Check{}).
		Where("monitor_id = ? AND checked_at >= ? AND status = ?", monitorID, windowStart(days), models.StatusUp).
		Select("COALESCE(AVG(response_time_ms), 0)").
		Row().Scan(&avg)
	return avg, err
}

func (s *checkStore) ResponseTimeHistory(ctx context.Context, monitorID uint, days int, granularity string) ([]HistoryBucket, error) {
	bucketExpr := bucketExprFor(s.db.Dialector.Name(), granularity)

	rows, err := s.db.WithContext(ctx).
		Model(&models.Check{}).
		Where("monitor_id = ? AND checked_at >= ? AND status = ?", monitorID, windowStart(days), models.StatusUp).
		Select(bucketExpr+" as bucket, AVG(response_time_ms) as avg_ms, MIN(response_time_ms) as min_ms, MAX(response_time_ms) as max_ms").
		Group("bucket").
		Order("bucket ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []HistoryBucket
	for rows.Next() {
		var bucketStr string
		var b HistoryBucket
		if err := rows.Scan(&bucketStr, &b.AvgMs, &b.MinMs, &b.MaxMs); err != nil {
			return nil, err
		}
		layout := "2006-01-02 15:00:00"
		if granularity == "day" {
			layout = "2006-01-02"
		}
		if t, err := time.Parse(layout, bucketStr); err == nil {
			b.Bucket = t
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// bucketExprFor returns the dialect-specific SQL expression that truncates
// checked_at to an hour or day bucket, rendered as a string column so the
// caller can parse it with a single fixed layout.
func bucketExprFor(dialect, granularity string) string {
	switch dialect {
	case "postgres":
		if granularity == "day" {
			return "to_char(checked_at, 'YYYY-MM-DD')"
		}
		return "to_char(checked_at, 'YYYY-MM-DD HH24:00:00')"
	case "mysql":
		if granularity == "day" {
			return "DATE_FORMAT(checked_at, '%Y-%m-%d')"
		}
		return "DATE_FORMAT(checked_at, '%Y-%m-%d %H:00:00')"
	default: // sqlite
		if granularity == "day" {
			return "strftime('%Y-%m-%d', checked_at)"
		}
		return "strftime('%Y-%m-%d %H:00:00', checked_at)"
	}
}

func (s *checkStore) StateTransitionsInWindow(ctx context.Context, monitorID uint, minutes int) (int, error) {
	var checks []models.Check
	err := s.db.WithContext(ctx).
		Where("monitor_id = ? AND checked_at >= ?", monitorID, time.Now().UTC().Add(-time.Duration(minutes)*time.Minute)).
		Order("checked_at ASC").
		Find(&checks).Error
	if err != nil {
		return 0, err
	}

	transitions := 0
	for i := 1; i < len(checks); i++ {
		if checks[i].Status != checks[i-1].Status {
			transitions++
		}
	}
	return transitions, nil
}

func (s *checkStore) RecentBulk(ctx context.Context, monitorIDs []uint, n int) (map[uint][]models.Check, error) {
	if n <= 0 {
		n = 20
	}
	result := make(map[uint][]models.Check, len(monitorIDs))
	for _, id := range monitorIDs {
		checks, err := s.Recent(ctx, id, n)
		if err != nil {
			return nil, err
		}
		result[id] = checks
	}
	return result, nil
}

func (s *checkStore) UptimePctBulk(ctx context.Context, monitorIDs []uint, days int) (map[uint]float64, error) {
	result := make(map[uint]float64, len(monitorIDs))
	for _, id := range monitorIDs {
		pct, err := s.UptimePct(ctx, id, days)
		if err != nil {
			return nil, err
		}
		result[id] = pct
	}
	return result, nil
}

func (s *checkStore) CountInRange(ctx context.Context, monitorID uint, since time.Time) (total, successful int64, err error) {
	query := s.db.WithContext(ctx).Model(&models.Check{}).Where("monitor_id = ? AND checked_at >= ?", monitorID, since)
	if err = query.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = query.Where("status = ?", models.StatusUp).Count(&successful).Error; err != nil {
		return 0, 0, err
	}
	return total, successful, nil
}

func (s *checkStore) DeleteOlderThan(ctx context.Context, days int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	return s.db.WithContext(ctx).Where("checked_at < ?", cutoff).Delete(&models.Check{}).Error
}

func windowStart(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
