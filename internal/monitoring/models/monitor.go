package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON-encoded string slice stored as TEXT, mirroring the
// ambient StringArray convention used for other list-valued columns.
type StringList []string

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	return json.Unmarshal(bytes, s)
}

func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// MonitorType is the closed set of protocols the scheduler knows how to probe.
type MonitorType string

const (
	MonitorHTTP      MonitorType = "http"
	MonitorTCP       MonitorType = "tcp"
	MonitorWebSocket MonitorType = "websocket"
	MonitorDNS       MonitorType = "dns"
	MonitorPing      MonitorType = "ping"
)

// MinIntervalSeconds is the lowest interval a monitor may be scheduled at.
const MinIntervalSeconds = 10

// Monitor is immutable within a scheduling epoch and reloaded wholesale on
// config change (see the reload contract). The ID is a stable integer
// primary key across restarts.
type Monitor struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string      `gorm:"type:varchar(255);not null" json:"name"`
	Group           string      `gorm:"type:varchar(255)" json:"group,omitempty"`
	Type            MonitorType `gorm:"type:varchar(32);not null" json:"type"`
	URL             string      `gorm:"type:text;not null" json:"url"`
	IntervalSeconds int         `gorm:"not null" json:"interval_seconds"`
	Public          bool        `gorm:"not null;default:true" json:"public"`
	Conditions      StringList  `gorm:"type:text" json:"conditions"`
	DNSQueryName    string      `gorm:"type:varchar(255)" json:"dns_query_name,omitempty"`
	DNSQueryType    string      `gorm:"type:varchar(16)" json:"dns_query_type,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Monitor) TableName() string { return "monitors" }

// RecurringWindow is a daily maintenance window kept only in process memory,
// replaced wholesale for a monitor on every reload.
type RecurringWindow struct {
	StartTime string // "HH:MM", in Timezone
	EndTime   string
	Timezone  string
}

// FixedWindow is a one-off maintenance window, persisted. MonitorID nil means
// the window is global (applies to every monitor).
type FixedWindow struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	MonitorID   *uint      `gorm:"index" json:"monitor_id,omitempty"`
	StartTime   time.Time  `gorm:"index:idx_fixed_window_range,priority:1;not null" json:"start_time"`
	EndTime     time.Time  `gorm:"index:idx_fixed_window_range,priority:2;not null" json:"end_time"`
	Timezone    string     `gorm:"type:varchar(64);not null" json:"timezone"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (FixedWindow) TableName() string { return "maintenance_windows" }

// MaintenanceWindows bundles the two window kinds a monitor config carries;
// it is never persisted as a single table since the kinds have different
// storage lifetimes (recurring stays in memory, fixed is durable).
type MaintenanceWindows struct {
	Recurring []RecurringWindow
	Fixed     []FixedWindow
}
