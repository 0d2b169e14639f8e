package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// IncidentStore persists incidents. ActiveFor/Create together implement the
// "at most one active incident per monitor" invariant's storage half; the
// concurrency-safety half lives in the incident package's advisory lock.
type IncidentStore interface {
	ActiveFor(ctx context.Context, monitorID uint) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident) error
	Resolve(ctx context.Context, incidentID string, resolvedAt time.Time) error
}

type incidentStore struct {
	db *gorm.DB
}

func NewIncidentStore(db *gorm.DB) IncidentStore {
	return &incidentStore{db: db}
}

func (s *incidentStore) ActiveFor(ctx context.Context, monitorID uint) (*models.Incident, error) {
	var incident models.Incident
	err := s.db.WithContext(ctx).
		Where("monitor_id = ? AND resolved_at IS NULL", monitorID).
		First(&incident).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (s *incidentStore) Create(ctx context.Context, incident *models.Incident) error {
	return s.db.WithContext(ctx).Create(incident).Error
}

func (s *incidentStore) Resolve(ctx context.Context, incidentID string, resolvedAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Incident{}).
		Where("id = ?", incidentID).
		Updates(map[string]interface{}{
			"status":      models.IncidentResolved,
			"resolved_at": resolvedAt,
		}).Error
}
