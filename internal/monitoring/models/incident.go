package models

import "time"

// IncidentStatus is the lifecycle stage of an incident record.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

// IncidentSeverity classifies how bad a sustained failure looks, derived
// from the triggering check's error string.
type IncidentSeverity string

const (
	SeverityMinor    IncidentSeverity = "minor"
	SeverityMajor    IncidentSeverity = "major"
	SeverityCritical IncidentSeverity = "critical"
)

// Incident is a persisted record of a sustained failing period for a
// monitor. It is "active" iff ResolvedAt is nil; at most one active
// incident may exist per monitor at any time (enforced outside this type).
type Incident struct {
	ID          string           `gorm:"type:char(36);primaryKey" json:"id"`
	MonitorID   uint             `gorm:"index:idx_incident_monitor,priority:1;not null" json:"monitor_id"`
	Status      IncidentStatus   `gorm:"type:varchar(16);not null" json:"status"`
	Severity    IncidentSeverity `gorm:"type:varchar(16);not null" json:"severity"`
	Title       string           `gorm:"type:varchar(255);not null" json:"title"`
	Description string           `gorm:"type:text" json:"description,omitempty"`
	StartedAt   time.Time        `gorm:"not null" json:"started_at"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Incident) TableName() string { return "incidents" }

// IsActive reports whether the incident has not yet been resolved.
func (i *Incident) IsActive() bool { return i.ResolvedAt == nil }

// LifecycleEvent is the in-process notification a notifier would subscribe
// to; the detector only emits it, it is never responsible for delivery.
type LifecycleEvent struct {
	Kind       string // "opened" | "resolved"
	MonitorID  uint
	IncidentID string
	Timestamp  time.Time
	Severity   IncidentSeverity
	Title      string
}
