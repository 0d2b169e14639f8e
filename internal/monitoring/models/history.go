package models

import "time"

// StatusHistoryDay is a per-(monitor, day) uptime summary row produced by
// the daily aggregator. Unique on (monitor_id, date).
type StatusHistoryDay struct {
	ID                string    `gorm:"type:char(36);primaryKey" json:"id"`
	MonitorID         uint      `gorm:"uniqueIndex:idx_history_monitor_date,priority:1;not null" json:"monitor_id"`
	Date              time.Time `gorm:"uniqueIndex:idx_history_monitor_date,priority:2;type:date;not null" json:"date"`
	UptimePct         float64   `gorm:"not null" json:"uptime_pct"`
	AvgResponseTimeMs int       `gorm:"not null" json:"avg_response_time_ms"`
	TotalChecks       int       `gorm:"not null" json:"total_checks"`
	SuccessfulChecks  int       `gorm:"not null" json:"successful_checks"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (StatusHistoryDay) TableName() string { return "status_history" }
