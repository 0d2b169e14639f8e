package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/probe"
)

// Evaluator evaluates a list of pre-parsed Conditions against a probe
// Context, producing a boolean per condition. It never panics: any
// resolution or comparison fault yields false for that condition alone.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// EvaluateAll evaluates every condition against ctx, preserving order.
func (e *Evaluator) EvaluateAll(conditions []Condition, ctx probe.Context) []models.ConditionResult {
	results := make([]models.ConditionResult, 0, len(conditions))
	for _, c := range conditions {
		results = append(results, models.ConditionResult{
			Condition: c.Source,
			Passed:    e.evaluate(c, ctx),
		})
	}
	return results
}

func (e *Evaluator) evaluate(c Condition, ctx probe.Context) (passed bool) {
	defer func() {
		if r := recover(); r != nil {
			passed = false
		}
	}()

	if c.IsBool {
		return c.BoolVal
	}

	left := e.resolve(c.Left, ctx)
	right := e.resolve(c.Right, ctx)

	switch c.Operator {
	case OpEq:
		return looseEqual(left, right)
	case OpNeq:
		return !looseEqual(left, right)
	case OpGt, OpGte, OpLt, OpLte:
		return compareOrdered(c.Operator, left, right)
	case OpContains:
		return strings.Contains(toDisplayString(left), toDisplayString(right))
	case OpMatches:
		re, err := regexp.Compile(toDisplayString(right))
		if err != nil {
			return false
		}
		return re.MatchString(toDisplayString(left))
	default:
		return false
	}
}

func (e *Evaluator) resolve(op Operand, ctx probe.Context) interface{} {
	if op.Kind == OperandLiteral {
		return op.Literal
	}

	value := ctx.Get(op.Key)
	if op.Key == probe.KeyBody && op.Path != "" {
		return resolveJSONPath(value, op.Path)
	}
	return value
}

// resolveJSONPath resolves a dotted/bracketed path like "status" or
// "v[0]" against a decoded JSON value, returning nil (undefined) when the
// path does not match.
func resolveJSONPath(value interface{}, path string) interface{} {
	segments := splitPath(path)
	current := value
	for _, seg := range segments {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			current = arr[idx]
			continue
		}
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		v, exists := m[seg]
		if !exists {
			return nil
		}
		current = v
	}
	return current
}

var pathSegmentRe = regexp.MustCompile(`[^.\[\]]+`)

func splitPath(path string) []string {
	return pathSegmentRe.FindAllString(path, -1)
}

func looseEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	af, aIsNum := toFloat(a)
	bf, bIsNum := toFloat(b)

	switch {
	case aIsNum && bIsNum:
		return af == bf
	case aIsStr && bIsStr:
		return as == bs
	case aIsNum && bIsStr:
		bf2, ok := toFloat(bs)
		return ok && af == bf2
	case aIsStr && bIsNum:
		af2, ok := toFloat(as)
		return ok && af2 == bf
	default:
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
}

func compareOrdered(op Operator, a, b interface{}) bool {
	af, aIsNum := toFloat(a)
	bf, bIsNum := toFloat(b)
	if aIsNum && bIsNum {
		return numericCompare(op, af, bf)
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return lexicalCompare(op, as, bs)
	}
	return false
}

func numericCompare(op Operator, a, b float64) bool {
	switch op {
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	default:
		return false
	}
}

func lexicalCompare(op Operator, a, b string) bool {
	switch op {
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toDisplayString(v interface{}) string {
	if v == nil {
		return "undefined"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
