package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// MaintenanceStore queries persisted fixed maintenance windows.
type MaintenanceStore interface {
	// FirstMatching returns the first fixed window (monitor-specific or
	// global) that contains now, or nil if none applies.
	FirstMatching(ctx context.Context, monitorID uint, now time.Time) (*models.FixedWindow, error)
}

type maintenanceStore struct {
	db *gorm.DB
}

func NewMaintenanceStore(db *gorm.DB) MaintenanceStore {
	return &maintenanceStore{db: db}
}

func (s *maintenanceStore) FirstMatching(ctx context.Context, monitorID uint, now time.Time) (*models.FixedWindow, error) {
	var window models.FixedWindow
	err := s.db.WithContext(ctx).
		Where("(monitor_id = ? OR monitor_id IS NULL) AND start_time <= ? AND end_time >= ?", monitorID, now, now).
		Order("monitor_id IS NULL"). // monitor-specific rows sort before NULL
		First(&window).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &window, nil
}
