package models

import "time"

// ConditionResult pairs a condition's source text with whether it passed,
// preserving the order of monitor.Conditions.
type ConditionResult struct {
	Condition string `json:"condition"`
	Passed    bool   `json:"passed"`
}

// CheckResult is what the monitor runner produces for a single invocation.
// Success is probe-level success AND every condition passing.
type CheckResult struct {
	MonitorID        uint              `json:"monitor_id"`
	MonitorName      string            `json:"monitor_name"`
	Timestamp        time.Time         `json:"timestamp"`
	Success          bool              `json:"success"`
	ResponseTimeMs   int               `json:"response_time_ms"`
	Error            string            `json:"error,omitempty"`
	ConditionResults []ConditionResult `json:"condition_results"`
}

// ToCheck converts a CheckResult into the persisted Check row shape.
func (r CheckResult) ToCheck() Check {
	status := StatusUp
	if !r.Success {
		status = StatusDown
	}
	return Check{
		MonitorID:      r.MonitorID,
		Status:         status,
		ResponseTimeMs: r.ResponseTimeMs,
		Error:          r.Error,
		CheckedAt:      r.Timestamp,
	}
}
