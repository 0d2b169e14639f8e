package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusbeacon/engine/internal/monitoring/condition"
	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/probe"
	"github.com/statusbeacon/engine/internal/monitoring/runner"
)

type recordingSink struct {
	mu      sync.Mutex
	results []models.CheckResult
}

func (s *recordingSink) Process(ctx context.Context, result models.CheckResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

type succeedingProber struct{}

func (succeedingProber) Probe(ctx context.Context, target string, params probe.Params, timeout time.Duration) probe.Result {
	return probe.Result{Success: true}
}

func TestCronExpression(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{5, "*/10 * * * * *"}, // clamped to MinIntervalSeconds
		{10, "*/10 * * * * *"},
		{30, "*/30 * * * * *"},
		{120, "0 */2 * * * *"},
		{7200, "0 0 */2 * * *"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cronExpression(tc.seconds))
	}
}

func TestScheduler_ReloadReplacesEntries(t *testing.T) {
	registry := probe.NewRegistry()
	registry.Register(models.MonitorHTTP, succeedingProber{})
	run := runner.New(registry, condition.NewEvaluator())
	sink := &recordingSink{}

	s := New(run, sink, func(uint) []condition.Condition { return nil }, Options{PoolSize: 4})

	monitors := []models.Monitor{
		{ID: 1, Type: models.MonitorHTTP, IntervalSeconds: 10},
		{ID: 2, Type: models.MonitorHTTP, IntervalSeconds: 10},
	}
	require.NoError(t, s.Reload(monitors))
	assert.Len(t, s.entries, 2)

	require.NoError(t, s.Reload(monitors[:1]))
	assert.Len(t, s.entries, 1)
	_, ok := s.entries[2]
	assert.False(t, ok, "monitor 2 must be removed after reload drops it")
}

func TestScheduler_TriggerNow(t *testing.T) {
	registry := probe.NewRegistry()
	registry.Register(models.MonitorHTTP, succeedingProber{})
	run := runner.New(registry, condition.NewEvaluator())
	sink := &recordingSink{}

	s := New(run, sink, func(uint) []condition.Condition { return nil }, Options{PoolSize: 2})
	monitor := models.Monitor{ID: 1, Type: models.MonitorHTTP}

	result := s.TriggerNow(context.Background(), monitor)
	assert.True(t, result.Success)
	assert.Equal(t, 1, sink.count())
}
