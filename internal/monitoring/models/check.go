package models

import "time"

// CheckStatus is the persisted up/down outcome of a single check row.
type CheckStatus string

const (
	StatusUp   CheckStatus = "up"
	StatusDown CheckStatus = "down"
)

// Check is one append-only row produced by the incident detector path.
// Ordered by CheckedAt; the (monitor_id, checked_at) composite index is
// mandatory since every aggregate query filters on both.
type Check struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	MonitorID      uint        `gorm:"index:idx_check_monitor_time,priority:1;not null" json:"monitor_id"`
	Status         CheckStatus `gorm:"type:varchar(8);not null" json:"status"`
	ResponseTimeMs int         `gorm:"not null" json:"response_time_ms"`
	Error          string      `gorm:"type:text" json:"error,omitempty"`
	CheckedAt      time.Time   `gorm:"index:idx_check_monitor_time,priority:2;not null" json:"checked_at"`
}

func (Check) TableName() string { return "checks" }
