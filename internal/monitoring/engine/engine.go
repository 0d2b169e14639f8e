// Package engine wires the monitoring subsystem's components together and
// exposes the reload/start/stop lifecycle a long-running process embeds.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/statusbeacon/engine/internal/config"
	"github.com/statusbeacon/engine/internal/monitoring/aggregator"
	"github.com/statusbeacon/engine/internal/monitoring/alertrule"
	"github.com/statusbeacon/engine/internal/monitoring/condition"
	"github.com/statusbeacon/engine/internal/monitoring/incident"
	"github.com/statusbeacon/engine/internal/monitoring/maintenance"
	"github.com/statusbeacon/engine/internal/monitoring/metrics"
	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/probe"
	"github.com/statusbeacon/engine/internal/monitoring/runner"
	"github.com/statusbeacon/engine/internal/monitoring/scheduler"
	"github.com/statusbeacon/engine/internal/monitoring/store"
)

// Engine owns every monitoring component and is the single entry point an
// embedding process starts, reloads, and stops.
type Engine struct {
	cfg config.MonitoringConfig

	monitorStore     store.MonitorStore
	checkStore       store.CheckStore
	incidentStore    store.IncidentStore
	historyStore     store.HistoryStore
	maintenanceStore store.MaintenanceStore

	oracle    *maintenance.Oracle
	evaluator *condition.Evaluator
	registry  *probe.Registry
	run       *runner.Runner
	detector  *incident.Detector
	scheduler *scheduler.Scheduler
	aggregator *aggregator.Aggregator
	alertEngine *alertrule.Engine

	mu             sync.RWMutex
	conditionsByID map[uint][]condition.Condition
}

// New constructs every component from a shared gorm connection. redisClient
// may be nil, in which case the in-process locker is used for the
// one-active-incident invariant instead of the redis advisory lock.
func New(db *gorm.DB, redisClient *redis.Client, cfg config.MonitoringConfig) *Engine {
	monitorStore := store.NewMonitorStore(db)
	checkStore := store.NewCheckStore(db)
	incidentStore := store.NewIncidentStore(db)
	historyStore := store.NewHistoryStore(db)
	maintenanceStore := store.NewMaintenanceStore(db)

	oracle := maintenance.NewOracle(maintenanceStore)
	evaluator := condition.NewEvaluator()
	registry := probe.NewRegistry()
	run := runner.New(registry, evaluator)

	var locker incident.Locker
	if redisClient != nil {
		locker = incident.NewRedisLocker(redisClient)
	} else {
		locker = incident.NewInProcessLocker()
	}

	detector := incident.NewDetector(checkStore, incidentStore, oracle, locker, cfg.FailureThreshold)
	agg := aggregator.New(checkStore, historyStore, cfg.RetentionDays)
	alertEngine := alertrule.NewEngine()

	collectors := metrics.New()
	detector.SetMetrics(collectors)

	e := &Engine{
		cfg:              cfg,
		monitorStore:     monitorStore,
		checkStore:       checkStore,
		incidentStore:    incidentStore,
		historyStore:     historyStore,
		maintenanceStore: maintenanceStore,
		oracle:           oracle,
		evaluator:        evaluator,
		registry:         registry,
		run:              run,
		detector:         detector,
		aggregator:       agg,
		alertEngine:      alertEngine,
		conditionsByID:   make(map[uint][]condition.Condition),
	}

	sched := scheduler.New(run, e, e.conditionsFor, scheduler.Options{
		PoolSize: cfg.WorkerPoolSize,
		Retries:  cfg.RetryAttempts,
		Metrics:  collectors,
	})
	e.scheduler = sched
	return e
}

// Process implements scheduler.Sink: every completed check is forwarded to
// the incident detector, and any resulting lifecycle event is fanned out to
// the supplemental alert-rule engine.
func (e *Engine) Process(ctx context.Context, result models.CheckResult) error {
	return e.detector.Process(ctx, result)
}

func (e *Engine) conditionsFor(monitorID uint) []condition.Condition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.conditionsByID[monitorID]
}

// Start brings up the scheduler, the aggregator's background loops, and the
// lifecycle-event-to-alertrule bridge. Call Reload beforehand (or after) to
// populate the monitor list.
func (e *Engine) Start(ctx context.Context) {
	e.scheduler.Start()
	e.aggregator.Start(ctx)
	go e.bridgeLifecycleEvents(ctx)
}

// Stop drains in-flight workers within grace, then stops the aggregator.
func (e *Engine) Stop(grace time.Duration) {
	e.scheduler.Stop(grace)
	e.aggregator.Stop()
}

// Reload replaces the monitor list, maintenance windows, and condition ASTs
// wholesale: store upsert/delete-cascade, then oracle recurring-window
// replacement, then scheduler re-add — the order the reload contract in
// §6 of the requirements requires, so a monitor is never scheduled before
// its row and conditions exist.
func (e *Engine) Reload(ctx context.Context, monitors []models.Monitor, windows map[uint]models.MaintenanceWindows) error {
	fixed := make([]models.FixedWindow, 0)
	for _, w := range windows {
		fixed = append(fixed, w.Fixed...)
	}

	if err := e.monitorStore.Reload(ctx, monitors, fixed); err != nil {
		return err
	}

	conditionsByID := make(map[uint][]condition.Condition, len(monitors))
	for _, m := range monitors {
		parsed := make([]condition.Condition, 0, len(m.Conditions))
		for _, src := range m.Conditions {
			parsed = append(parsed, condition.Parse(src))
		}
		conditionsByID[m.ID] = parsed

		if w, ok := windows[m.ID]; ok {
			e.oracle.ReplaceRecurring(m.ID, w.Recurring)
		} else {
			e.oracle.ReplaceRecurring(m.ID, nil)
		}
	}

	e.mu.Lock()
	e.conditionsByID = conditionsByID
	e.mu.Unlock()

	return e.scheduler.Reload(monitors)
}

// SetAlertRules replaces the supplemental expr-lang escalation rule set.
func (e *Engine) SetAlertRules(rules []alertrule.Rule) {
	e.alertEngine.SetRules(rules)
}

// bridgeLifecycleEvents forwards every incident lifecycle event into the
// alert-rule engine, logging any escalation that fires. The alert-rule
// engine never feeds back into incident state; it only annotates.
func (e *Engine) bridgeLifecycleEvents(ctx context.Context) {
	for {
		select {
		case ev, ok := <-e.detector.Events():
			if !ok {
				return
			}
			for _, esc := range e.alertEngine.Evaluate(ctx, ev) {
				logrus.WithField("component", "engine").
					Infof("alert rule %s escalated incident %s to severity %s", esc.RuleName, esc.IncidentID, esc.Severity)
			}
		case <-ctx.Done():
			return
		}
	}
}

// TriggerCheck runs one monitor immediately, outside its cron schedule.
func (e *Engine) TriggerCheck(ctx context.Context, monitorID uint) (models.CheckResult, error) {
	monitor, err := e.monitorStore.GetByID(ctx, monitorID)
	if err != nil {
		return models.CheckResult{}, err
	}
	if monitor == nil {
		return models.CheckResult{}, gorm.ErrRecordNotFound
	}
	return e.scheduler.TriggerNow(ctx, *monitor), nil
}

// History returns the uptime summary for one monitor and day, falling back
// to a fresh re-aggregation when no cached row exists yet.
func (e *Engine) History(ctx context.Context, monitorID uint, day time.Time) (models.StatusHistoryDay, error) {
	return e.aggregator.GetHistoryWithFallback(ctx, monitorID, day)
}

// RecentChecks returns the most recent n checks for a monitor.
func (e *Engine) RecentChecks(ctx context.Context, monitorID uint, n int) ([]models.Check, error) {
	return e.checkStore.Recent(ctx, monitorID, n)
}

// ActiveIncident returns the open incident for a monitor, or nil.
func (e *Engine) ActiveIncident(ctx context.Context, monitorID uint) (*models.Incident, error) {
	return e.incidentStore.ActiveFor(ctx, monitorID)
}
