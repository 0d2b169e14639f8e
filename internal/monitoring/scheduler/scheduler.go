// Package scheduler drives periodic probing: one cron entry per monitor,
// fanning invocations out through a bounded worker pool.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/monitoring/condition"
	"github.com/statusbeacon/engine/internal/monitoring/metrics"
	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/runner"
)

// Sink receives every completed check result, regardless of whether the
// probe succeeded. The incident detector is the usual sink.
type Sink interface {
	Process(ctx context.Context, result models.CheckResult) error
}

// ConditionLookup returns the parsed conditions for a monitor, so the
// scheduler never reparses condition text on the hot path.
type ConditionLookup func(monitorID uint) []condition.Condition

// entry tracks one monitor's cron registration.
type entry struct {
	monitor   models.Monitor
	cronEntry cron.EntryID
}

// Scheduler owns the cron instance and a bounded worker pool. Retries and
// overlap are both permitted per monitor; no tick is skipped — a tick that
// finds every pool slot taken waits until one frees.
type Scheduler struct {
	cron    *cron.Cron
	sink    Sink
	run     *runner.Runner
	lookup  ConditionLookup
	sem     chan struct{}
	retries int
	metrics *metrics.Collectors

	mu      sync.Mutex
	entries map[uint]*entry

	wg sync.WaitGroup
}

// Options configures the worker pool and retry policy.
type Options struct {
	// PoolSize bounds the number of concurrently in-flight probes across
	// all monitors. Zero uses the default of 10.
	PoolSize int
	// Retries is how many additional attempts a failed probe gets before
	// the failure is reported to the sink as final. Zero means no retry.
	Retries int
	// Metrics receives per-check Prometheus observations. Nil disables it.
	Metrics *metrics.Collectors
}

func New(run *runner.Runner, sink Sink, lookup ConditionLookup, opts Options) *Scheduler {
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sink:    sink,
		run:     run,
		lookup:  lookup,
		sem:     make(chan struct{}, poolSize),
		retries: opts.Retries,
		metrics: opts.Metrics,
		entries: make(map[uint]*entry),
	}
}

// Start starts the cron driver. Call Reload afterward (or before) to
// populate entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron driver and waits, up to grace, for in-flight workers
// to drain.
func (s *Scheduler) Stop(grace time.Duration) {
	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		logrus.WithField("component", "scheduler").Warn("shutdown grace period elapsed with workers still running")
	}
}

// Reload replaces every cron entry: remove all current registrations, then
// add one entry per monitor in the new list. Monitors absent from the list
// are simply not re-added.
func (s *Scheduler) Reload(monitors []models.Monitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		s.cron.Remove(e.cronEntry)
	}
	s.entries = make(map[uint]*entry)

	for _, m := range monitors {
		m := m
		expr := cronExpression(m.IntervalSeconds)
		id, err := s.cron.AddFunc(expr, func() { s.dispatch(m) })
		if err != nil {
			return fmt.Errorf("schedule monitor %d: %w", m.ID, err)
		}
		s.entries[m.ID] = &entry{monitor: m, cronEntry: id}
	}
	return nil
}

// cronExpression converts an interval in seconds into a robfig/cron
// seconds-precision expression.
func cronExpression(intervalSeconds int) string {
	if intervalSeconds < models.MinIntervalSeconds {
		intervalSeconds = models.MinIntervalSeconds
	}
	switch {
	case intervalSeconds < 60:
		return fmt.Sprintf("*/%d * * * * *", intervalSeconds)
	case intervalSeconds < 3600:
		return fmt.Sprintf("0 */%d * * * *", intervalSeconds/60)
	default:
		return fmt.Sprintf("0 0 */%d * * *", intervalSeconds/3600)
	}
}

// dispatch acquires a worker slot and runs one monitor invocation, with
// panic recovery and bounded retry on failure.
func (s *Scheduler) dispatch(monitor models.Monitor) {
	s.sem <- struct{}{}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()
		defer func() {
			if p := recover(); p != nil {
				logrus.WithField("component", "scheduler").
					Errorf("panic dispatching monitor %d: %v\n%s", monitor.ID, p, debug.Stack())
			}
		}()

		ctx := context.Background()
		conditions := s.lookup(monitor.ID)

		var result models.CheckResult
		attempts := s.retries + 1
		for i := 0; i < attempts; i++ {
			result = s.run.RunCheck(ctx, monitor, conditions)
			if result.Success {
				break
			}
		}
		s.recordMetrics(monitor.ID, result)

		if err := s.sink.Process(ctx, result); err != nil {
			logrus.WithField("component", "scheduler").
				Errorf("sink failed to process result for monitor %d: %v", monitor.ID, err)
		}
	}()
}

// TriggerNow runs one monitor immediately, outside its cron schedule, and
// reports the result through the same sink. Used for an on-demand check
// triggered via the external interface.
func (s *Scheduler) TriggerNow(ctx context.Context, monitor models.Monitor) models.CheckResult {
	conditions := s.lookup(monitor.ID)
	result := s.run.RunCheck(ctx, monitor, conditions)
	s.recordMetrics(monitor.ID, result)
	if err := s.sink.Process(ctx, result); err != nil {
		logrus.WithField("component", "scheduler").
			Errorf("sink failed to process manual result for monitor %d: %v", monitor.ID, err)
	}
	return result
}

// recordMetrics publishes a completed check's outcome and latency. A nil
// collector (metrics disabled) makes this a no-op.
func (s *Scheduler) recordMetrics(monitorID uint, result models.CheckResult) {
	if s.metrics == nil {
		return
	}
	status := "up"
	if !result.Success {
		status = "down"
	}
	s.metrics.ObserveCheck(strconv.FormatUint(uint64(monitorID), 10), status, time.Duration(result.ResponseTimeMs)*time.Millisecond)
}
