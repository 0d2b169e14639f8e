package alertrule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

func TestEngine_EvaluateFiresMatchingRule(t *testing.T) {
	e := NewEngine()
	e.SetRules([]Rule{
		{ID: "r1", Name: "critical-at-night", Condition: `severity == "critical" && hour_utc < 6`, Severity: "page"},
		{ID: "r2", Name: "never-fires", Condition: `kind == "nonexistent-kind"`},
	})

	ev := models.LifecycleEvent{
		Kind:      "opened",
		MonitorID: 1,
		Severity:  models.SeverityCritical,
		Title:     "db is down",
		Timestamp: time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC),
	}

	escalations := e.Evaluate(context.Background(), ev)
	require.Len(t, escalations, 1)
	assert.Equal(t, "r1", escalations[0].RuleID)
	assert.Equal(t, "page", escalations[0].Severity)
}

func TestEngine_BadRuleIsDroppedNotFatal(t *testing.T) {
	e := NewEngine()
	e.SetRules([]Rule{
		{ID: "bad", Name: "bad", Condition: "this is not valid expr ((("},
		{ID: "good", Name: "good", Condition: `kind == "resolved"`},
	})

	ev := models.LifecycleEvent{Kind: "resolved", Timestamp: time.Now().UTC()}
	escalations := e.Evaluate(context.Background(), ev)
	require.Len(t, escalations, 1)
	assert.Equal(t, "good", escalations[0].RuleID)
}

func TestValidateCondition(t *testing.T) {
	assert.NoError(t, ValidateCondition(`severity == "critical"`))
	assert.ErrorIs(t, ValidateCondition("not ( valid"), ErrInvalidCondition)
}
