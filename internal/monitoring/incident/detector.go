// Package incident turns a time-ordered stream of per-monitor CheckResults
// into open/resolve incident transitions, with hysteresis and maintenance
// suppression. State lives entirely in the incident table; the detector
// itself is stateless per call.
package incident

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/monitoring/maintenance"
	"github.com/statusbeacon/engine/internal/monitoring/metrics"
	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/store"
)

// DefaultFailureThreshold is the number of consecutive failing checks
// required to open a new incident, absent an explicit override.
const DefaultFailureThreshold = 2

// Detector consumes new CheckResults and maintains per-monitor incident
// state.
type Detector struct {
	checks           store.CheckStore
	incidents        store.IncidentStore
	oracle           *maintenance.Oracle
	lock             Locker
	events           chan models.LifecycleEvent
	failureThreshold int
	metrics          *metrics.Collectors
}

func NewDetector(checks store.CheckStore, incidents store.IncidentStore, oracle *maintenance.Oracle, lock Locker, failureThreshold int) *Detector {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	return &Detector{
		checks:           checks,
		incidents:        incidents,
		oracle:           oracle,
		lock:             lock,
		events:           make(chan models.LifecycleEvent, 256),
		failureThreshold: failureThreshold,
	}
}

// SetMetrics attaches a Prometheus collector set; the incidents_open gauge
// is kept in sync with every open/resolve transition from then on. Nil is
// the default and simply disables the gauge updates.
func (d *Detector) SetMetrics(m *metrics.Collectors) {
	d.metrics = m
}

// Events returns the channel incident lifecycle events are published on. An
// external notifier may range over it; delivery, retry, and templating are
// not this package's responsibility.
func (d *Detector) Events() <-chan models.LifecycleEvent {
	return d.events
}

// Process persists r, then opens/resolves incidents per §4.7's algorithm.
func (d *Detector) Process(ctx context.Context, r models.CheckResult) error {
	if err := d.checks.Save(ctx, r.ToCheck()); err != nil {
		return err
	}

	status, err := d.oracle.InMaintenance(ctx, r.MonitorID, r.Timestamp)
	if err != nil {
		return err
	}
	if status.InMaintenance {
		return nil
	}

	return d.lock.WithLock(ctx, r.MonitorID, func() error {
		return d.transition(ctx, r)
	})
}

func (d *Detector) transition(ctx context.Context, r models.CheckResult) error {
	active, err := d.incidents.ActiveFor(ctx, r.MonitorID)
	if err != nil {
		return err
	}

	if r.Success {
		if active == nil {
			return nil
		}
		now := time.Now().UTC()
		if err := d.incidents.Resolve(ctx, active.ID, now); err != nil {
			return err
		}
		if d.metrics != nil {
			d.metrics.IncidentResolved(string(active.Severity))
		}
		d.emit(models.LifecycleEvent{
			Kind:       "resolved",
			MonitorID:  r.MonitorID,
			IncidentID: active.ID,
			Timestamp:  now,
			Severity:   active.Severity,
			Title:      active.Title,
		})
		return nil
	}

	if active != nil {
		return nil
	}

	runLength, err := d.consecutiveFailures(ctx, r.MonitorID)
	if err != nil {
		return err
	}
	if runLength < d.failureThreshold {
		return nil
	}

	newIncident := &models.Incident{
		ID:        uuid.New().String(),
		MonitorID: r.MonitorID,
		Status:    models.IncidentInvestigating,
		Severity:  classifySeverity(r.Error),
		Title:     r.MonitorName + " is down",
		StartedAt: r.Timestamp,
	}
	if err := d.incidents.Create(ctx, newIncident); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.IncidentOpened(string(newIncident.Severity))
	}

	d.emit(models.LifecycleEvent{
		Kind:       "opened",
		MonitorID:  r.MonitorID,
		IncidentID: newIncident.ID,
		Timestamp:  r.Timestamp,
		Severity:   newIncident.Severity,
		Title:      newIncident.Title,
	})
	return nil
}

// consecutiveFailures walks newest-first through recent checks and stops at
// the first success, returning the length of the leading failing run.
func (d *Detector) consecutiveFailures(ctx context.Context, monitorID uint) (int, error) {
	recent, err := d.checks.Recent(ctx, monitorID, d.failureThreshold+8)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, c := range recent {
		if c.Status != models.StatusDown {
			break
		}
		count++
	}
	return count, nil
}

func classifySeverity(errMsg string) models.IncidentSeverity {
	lower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(lower, "dns") || strings.Contains(lower, "certificate"):
		return models.SeverityCritical
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "econnrefused"):
		return models.SeverityMajor
	default:
		return models.SeverityMinor
	}
}

func (d *Detector) emit(e models.LifecycleEvent) {
	select {
	case d.events <- e:
	default:
		logrus.WithField("component", "incident").Warn("lifecycle event channel full, dropping event")
	}
}

// Flapping reports whether a monitor's recent history alternates frequently.
// It is a standalone query, available for an external consumer, and is not
// consulted by Process/transition above — see the open-question decision
// recorded in DESIGN.md.
func Flapping(ctx context.Context, checks store.CheckStore, monitorID uint) (bool, error) {
	recent, err := checks.Recent(ctx, monitorID, 20)
	if err != nil {
		return false, err
	}
	if len(recent) < 10 {
		return false, nil
	}
	transitions := 0
	for i := 1; i < len(recent); i++ {
		if recent[i].Status != recent[i-1].Status {
			transitions++
		}
	}
	return transitions > 5, nil
}
