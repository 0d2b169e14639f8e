package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// MonitorStore persists the monitor list and its fixed maintenance windows,
// and implements the reload contract's upsert/delete-absent semantics.
type MonitorStore interface {
	List(ctx context.Context) ([]models.Monitor, error)
	GetByID(ctx context.Context, id uint) (*models.Monitor, error)
	// Reload replaces the monitor list wholesale inside a single
	// transaction: upsert every monitor in the new list by id, delete any
	// monitor absent from it (cascading its checks and incidents), and
	// replace each monitor's fixed maintenance windows.
	Reload(ctx context.Context, monitors []models.Monitor, fixedWindows []models.FixedWindow) error
	ListFixedWindows(ctx context.Context, monitorID uint) ([]models.FixedWindow, error)
	ListGlobalFixedWindows(ctx context.Context) ([]models.FixedWindow, error)
}

type monitorStore struct {
	db *gorm.DB
}

func NewMonitorStore(db *gorm.DB) MonitorStore {
	return &monitorStore{db: db}
}

func (s *monitorStore) List(ctx context.Context) ([]models.Monitor, error) {
	var monitors []models.Monitor
	err := s.db.WithContext(ctx).Order("id ASC").Find(&monitors).Error
	return monitors, err
}

func (s *monitorStore) GetByID(ctx context.Context, id uint) (*models.Monitor, error) {
	var m models.Monitor
	err := s.db.WithContext(ctx).First(&m, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *monitorStore) Reload(ctx context.Context, monitors []models.Monitor, fixedWindows []models.FixedWindow) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]uint, 0, len(monitors))
		for _, m := range monitors {
			if err := tx.Where("id = ?", m.ID).
				Assign(m).
				FirstOrCreate(&m).Error; err != nil {
				return err
			}
			keep = append(keep, m.ID)
		}

		deleteQuery := tx.Model(&models.Monitor{})
		if len(keep) > 0 {
			deleteQuery = deleteQuery.Where("id NOT IN ?", keep)
		}
		var stale []models.Monitor
		if err := deleteQuery.Find(&stale).Error; err != nil {
			return err
		}
		for _, m := range stale {
			if err := tx.Where("monitor_id = ?", m.ID).Delete(&models.Check{}).Error; err != nil {
				return err
			}
			if err := tx.Where("monitor_id = ?", m.ID).Delete(&models.Incident{}).Error; err != nil {
				return err
			}
			if err := tx.Where("monitor_id = ?", m.ID).Delete(&models.FixedWindow{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&m).Error; err != nil {
				return err
			}
		}

		for _, w := range fixedWindows {
			if err := tx.Where("monitor_id = ? AND start_time = ?", w.MonitorID, w.StartTime).
				Assign(w).
				FirstOrCreate(&w).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *monitorStore) ListFixedWindows(ctx context.Context, monitorID uint) ([]models.FixedWindow, error) {
	var windows []models.FixedWindow
	err := s.db.WithContext(ctx).Where("monitor_id = ?", monitorID).Find(&windows).Error
	return windows, err
}

func (s *monitorStore) ListGlobalFixedWindows(ctx context.Context) ([]models.FixedWindow, error) {
	var windows []models.FixedWindow
	err := s.db.WithContext(ctx).Where("monitor_id IS NULL").Find(&windows).Error
	return windows, err
}
