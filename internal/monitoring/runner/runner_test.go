package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusbeacon/engine/internal/monitoring/condition"
	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/probe"
)

// fakeProber is a configurable Prober used to drive the runner deterministically.
type fakeProber struct {
	sleep   time.Duration
	result  probe.Result
	panics  bool
	current *int32
	peak    *int32
}

func (f *fakeProber) Probe(ctx context.Context, target string, params probe.Params, timeout time.Duration) probe.Result {
	if f.current != nil {
		n := atomic.AddInt32(f.current, 1)
		defer atomic.AddInt32(f.current, -1)
		for {
			p := atomic.LoadInt32(f.peak)
			if n <= p || atomic.CompareAndSwapInt32(f.peak, p, n) {
				break
			}
		}
	}
	if f.sleep > 0 {
		time.Sleep(f.sleep)
	}
	if f.panics {
		panic("simulated probe panic")
	}
	return f.result
}

func TestRunCheck_ProbePanicBecomesFailingResult(t *testing.T) {
	registry := probe.NewRegistry()
	registry.Register(models.MonitorHTTP, &fakeProber{panics: true})

	r := New(registry, condition.NewEvaluator())
	monitor := models.Monitor{ID: 1, Name: "m1", Type: models.MonitorHTTP}

	result := r.RunCheck(context.Background(), monitor, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panic")
}

func TestRunCheck_UnknownType(t *testing.T) {
	registry := probe.NewRegistry()
	r := New(registry, condition.NewEvaluator())
	monitor := models.Monitor{ID: 1, Name: "m1", Type: models.MonitorType("carrier-pigeon")}

	result := r.RunCheck(context.Background(), monitor, nil)
	assert.False(t, result.Success)
	assert.Equal(t, "unknown type", result.Error)
}

func TestRunCheck_ConditionFailureOverridesProbeSuccess(t *testing.T) {
	registry := probe.NewRegistry()
	registry.Register(models.MonitorHTTP, &fakeProber{
		result: probe.Result{Success: true, Context: probe.Context{probe.KeyStatus: float64(500)}},
	})

	r := New(registry, condition.NewEvaluator())
	monitor := models.Monitor{ID: 1, Name: "m1", Type: models.MonitorHTTP}
	conditions := []condition.Condition{condition.Parse("[STATUS] == 200")}

	result := r.RunCheck(context.Background(), monitor, conditions)
	assert.False(t, result.Success)
	require.Len(t, result.ConditionResults, 1)
	assert.False(t, result.ConditionResults[0].Passed)
}

// TestRunChecks_S6 is the literal S6 scenario: 50 monitors, a probe that
// sleeps 10ms then succeeds, concurrency=5. Peak in-flight probes must
// never exceed 5, and all 50 results must come back with no duplicates.
func TestRunChecks_S6(t *testing.T) {
	var current, peak int32
	prober := &fakeProber{
		sleep:   10 * time.Millisecond,
		result:  probe.Result{Success: true},
		current: &current,
		peak:    &peak,
	}

	registry := probe.NewRegistry()
	registry.Register(models.MonitorHTTP, prober)
	r := New(registry, condition.NewEvaluator())

	monitors := make([]models.Monitor, 50)
	for i := range monitors {
		monitors[i] = models.Monitor{ID: uint(i + 1), Name: "m", Type: models.MonitorHTTP}
	}

	results := r.RunChecks(context.Background(), monitors, nil, 5)

	require.Len(t, results, 50)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&peak)), 5)

	seen := make(map[uint]bool, 50)
	for _, res := range results {
		assert.True(t, res.Success)
		assert.False(t, seen[res.MonitorID], "duplicate result for monitor %d", res.MonitorID)
		seen[res.MonitorID] = true
	}
}

// TestRunChecks_PanicsDoNotDropResults is invariant 7: N-1 panicking probes
// must not prevent N results from coming back.
func TestRunChecks_PanicsDoNotDropResults(t *testing.T) {
	registry := probe.NewRegistry()
	registry.Register(models.MonitorHTTP, &fakeProber{panics: true})
	registry.Register(models.MonitorTCP, &fakeProber{result: probe.Result{Success: true}})

	r := New(registry, condition.NewEvaluator())

	const n = 10
	monitors := make([]models.Monitor, n)
	for i := range monitors {
		typ := models.MonitorHTTP
		if i == n-1 {
			typ = models.MonitorTCP // the one monitor that doesn't panic
		}
		monitors[i] = models.Monitor{ID: uint(i + 1), Type: typ}
	}

	results := r.RunChecks(context.Background(), monitors, nil, 4)
	require.Len(t, results, n)

	successes := 0
	for _, res := range results {
		if res.Success {
			successes++
		} else {
			assert.Contains(t, res.Error, "panic")
		}
	}
	assert.Equal(t, 1, successes)
}
