// Package runner dispatches a monitor to its probe, evaluates conditions
// against the resulting context, and produces a CheckResult — never
// propagating a probe panic out to the caller.
package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/monitoring/condition"
	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/probe"
)

const defaultTimeout = 30 * time.Second
const defaultBatchConcurrency = 20

// ConditionSet pairs a monitor's parsed conditions with its id, so the
// caller only needs to parse once at load time (see §4.2's redesign note)
// and reuse the parsed AST on every run.
type ConditionSet struct {
	MonitorID  uint
	Conditions []condition.Condition
}

// Runner executes monitors against a probe registry and condition
// evaluator.
type Runner struct {
	registry  *probe.Registry
	evaluator *condition.Evaluator
}

func New(registry *probe.Registry, evaluator *condition.Evaluator) *Runner {
	return &Runner{registry: registry, evaluator: evaluator}
}

// RunCheck dispatches a single monitor invocation. A probe panic is caught
// and converted into a failing CheckResult — a failing probe must never
// abort the run.
func (r *Runner) RunCheck(ctx context.Context, monitor models.Monitor, conditions []condition.Condition) (result models.CheckResult) {
	start := time.Now().UTC()
	result = models.CheckResult{
		MonitorID:   monitor.ID,
		MonitorName: monitor.Name,
		Timestamp:   start,
	}

	defer func() {
		if p := recover(); p != nil {
			logrus.WithField("component", "runner").
				Errorf("panic running check for monitor %d: %v\n%s", monitor.ID, p, debug.Stack())
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", p)
		}
	}()

	prober, ok := r.registry.Lookup(monitor.Type)
	if !ok {
		result.Error = "unknown type"
		return result
	}

	params := probe.Params{DNSQueryName: monitor.DNSQueryName, DNSQueryType: monitor.DNSQueryType}
	probeResult := prober.Probe(ctx, monitor.URL, params, defaultTimeout)

	conditionResults := r.evaluator.EvaluateAll(conditions, probeResult.Context)
	allPassed := true
	for _, cr := range conditionResults {
		if !cr.Passed {
			allPassed = false
			break
		}
	}

	result.ResponseTimeMs = probeResult.ResponseTimeMs
	result.Error = probeResult.Error
	result.ConditionResults = conditionResults
	result.Success = probeResult.Success && allPassed
	return result
}

// RunChecks runs run_check for every monitor with a bounded fan-out,
// collecting all results even when individual probes panic or error.
func (r *Runner) RunChecks(ctx context.Context, monitors []models.Monitor, conditionsByID map[uint][]condition.Condition, concurrency int) []models.CheckResult {
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	results := make([]models.CheckResult, len(monitors))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, m := range monitors {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, m models.Monitor) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.RunCheck(ctx, m, conditionsByID[m.ID])
		}(i, m)
	}
	wg.Wait()
	return results
}
