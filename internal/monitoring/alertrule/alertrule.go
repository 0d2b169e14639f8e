// Package alertrule evaluates user-defined expr-lang rules against incident
// lifecycle events, to escalate or annotate notifications. It is purely
// supplemental: the incident package's open/resolve decision never consults
// this package, so a broken or overly strict rule can never suppress a real
// incident.
package alertrule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// Rule escalates or annotates a lifecycle event when Condition evaluates
// true against the event's environment (see env()).
type Rule struct {
	ID        string
	Name      string
	Condition string
	Severity  string // copied onto the Escalation when the rule fires; incident state is unchanged
}

// Escalation is what firing a rule produces: a note for the outbound
// notifier, not a mutation of incident state.
type Escalation struct {
	RuleID     string
	RuleName   string
	IncidentID string
	Severity   string
	FiredAt    time.Time
}

// Engine compiles rules once and evaluates them against every lifecycle
// event it is given.
type Engine struct {
	mu    sync.RWMutex
	rules map[string]compiledRule
}

type compiledRule struct {
	rule    Rule
	program *vm.Program
}

func NewEngine() *Engine {
	return &Engine{rules: make(map[string]compiledRule)}
}

// SetRules replaces the whole rule set, compiling each condition once so
// Evaluate never recompiles on the hot path. A rule whose expression fails
// to compile is dropped and logged, not fatal to the others.
func (e *Engine) SetRules(rules []Rule) {
	compiled := make(map[string]compiledRule, len(rules))
	for _, r := range rules {
		program, err := expr.Compile(r.Condition, expr.Env(sampleEnv()))
		if err != nil {
			logrus.WithField("component", "alertrule").
				Errorf("rule %s: compile error: %v", r.Name, err)
			continue
		}
		compiled[r.ID] = compiledRule{rule: r, program: program}
	}

	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
}

// Evaluate runs every compiled rule against ev and returns the escalations
// that fired. A rule whose expression errors at runtime is skipped for this
// event; it does not stop the rest from evaluating.
func (e *Engine) Evaluate(ctx context.Context, ev models.LifecycleEvent) []Escalation {
	e.mu.RLock()
	rules := make([]compiledRule, 0, len(e.rules))
	for _, cr := range e.rules {
		rules = append(rules, cr)
	}
	e.mu.RUnlock()

	env := envFor(ev)
	var fired []Escalation
	for _, cr := range rules {
		output, err := expr.Run(cr.program, env)
		if err != nil {
			logrus.WithField("component", "alertrule").
				Errorf("rule %s: eval error: %v", cr.rule.Name, err)
			continue
		}
		triggered, ok := output.(bool)
		if !ok || !triggered {
			continue
		}
		fired = append(fired, Escalation{
			RuleID:     cr.rule.ID,
			RuleName:   cr.rule.Name,
			IncidentID: ev.IncidentID,
			Severity:   firstNonEmpty(cr.rule.Severity, string(ev.Severity)),
			FiredAt:    ev.Timestamp,
		})
	}
	return fired
}

// envFor builds the expr-lang evaluation environment for one lifecycle
// event — the monitoring-domain analogue of prepareEnv's type-switch, but
// with a single source type since every rule here evaluates incident
// events, never host or availability snapshots.
func envFor(ev models.LifecycleEvent) map[string]interface{} {
	return map[string]interface{}{
		"kind":       ev.Kind,
		"monitor_id": ev.MonitorID,
		"severity":   string(ev.Severity),
		"title":      ev.Title,
		"hour_utc":   ev.Timestamp.UTC().Hour(),
	}
}

// sampleEnv gives expr.Compile a representative environment shape to
// type-check rule conditions against, without requiring a real event.
func sampleEnv() map[string]interface{} {
	return envFor(models.LifecycleEvent{Timestamp: time.Now().UTC()})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ErrInvalidCondition is returned by ValidateCondition when a condition
// string fails to compile against the standard environment shape.
var ErrInvalidCondition = fmt.Errorf("alert rule condition failed to compile")

// ValidateCondition compiles cond against the standard environment without
// registering it, for use in a rule-authoring API.
func ValidateCondition(cond string) error {
	if _, err := expr.Compile(cond, expr.Env(sampleEnv())); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	return nil
}
