package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusbeacon/engine/internal/monitoring/probe"
)

// TestEvaluateAll_S4 is the literal S4 scenario from the testable-properties
// scenarios: four conditions against one context, all expected to pass.
func TestEvaluateAll_S4(t *testing.T) {
	ctx := probe.Context{
		probe.KeyStatus:       float64(200),
		probe.KeyResponseTime: float64(120),
		probe.KeyBody: map[string]interface{}{
			"status": "healthy",
			"v":      []interface{}{float64(1), float64(2), float64(3)},
		},
	}

	conditions := []string{
		"[STATUS] == 200",
		"[RESPONSE_TIME] < 500",
		"[BODY].status == 'healthy'",
		"[BODY].v[0] == 1",
	}

	evaluator := NewEvaluator()
	var parsed []Condition
	for _, c := range conditions {
		parsed = append(parsed, Parse(c))
	}

	results := evaluator.EvaluateAll(parsed, ctx)
	require.Len(t, results, len(conditions))

	allPassed := true
	for i, r := range results {
		assert.Truef(t, r.Passed, "condition %q expected to pass", conditions[i])
		assert.Equal(t, conditions[i], r.Condition)
		if !r.Passed {
			allPassed = false
		}
	}
	assert.True(t, allPassed)
}

// TestEvaluate_NeverPanics is invariant 5: evaluate(s, ctx) returns a bool
// and never raises, for any input string including garbage and conditions
// that reference missing context keys.
func TestEvaluate_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"[",
		"[STATUS",
		"[STATUS] ==",
		"[MISSING_KEY] == 1",
		"[BODY].nonexistent.path == 1",
		"[BODY].v[99] == 1",
		"not json at all !! ==",
		"[STATUS] matches (((",
		"true",
		"false",
		"banana",
	}

	evaluator := NewEvaluator()
	ctx := probe.Context{probe.KeyStatus: float64(200)}

	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			assert.NotPanics(t, func() {
				c := Parse(in)
				results := evaluator.EvaluateAll([]Condition{c}, ctx)
				require.Len(t, results, 1)
			})
		})
	}
}

func TestParse_BoolLiteral(t *testing.T) {
	c := Parse("true")
	assert.True(t, c.IsBool)
	assert.True(t, c.BoolVal)

	c = Parse("false")
	assert.True(t, c.IsBool)
	assert.False(t, c.BoolVal)
}

func TestParse_OperatorPrecedenceGtVsGte(t *testing.T) {
	c := Parse("[RESPONSE_TIME] >= 100")
	assert.Equal(t, OpGte, c.Operator)
}
