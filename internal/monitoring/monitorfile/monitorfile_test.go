package monitorfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesMonitorsAndWindows(t *testing.T) {
	path := writeFile(t, `
monitors:
  - id: 1
    name: homepage
    type: http
    url: https://example.com
    interval_seconds: 30
    conditions:
      - "[STATUS] == 200"
    maintenance:
      recurring:
        - start_time: "09:00"
          end_time: "09:15"
          timezone: "UTC"
      fixed:
        - start_time: 2025-01-01T00:00:00Z
          end_time: 2025-01-01T02:00:00Z
          timezone: "UTC"
          description: "planned upgrade"
  - id: 2
    name: api
    type: tcp
    url: "example.com:443"
    interval_seconds: 10
    public: false
`)

	monitors, windows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, monitors, 2)

	m1 := monitors[0]
	assert.Equal(t, uint(1), m1.ID)
	assert.Equal(t, models.MonitorHTTP, m1.Type)
	assert.True(t, m1.Public)
	assert.Equal(t, models.StringList{"[STATUS] == 200"}, m1.Conditions)

	m2 := monitors[1]
	assert.Equal(t, uint(2), m2.ID)
	assert.False(t, m2.Public)

	w, ok := windows[1]
	require.True(t, ok)
	require.Len(t, w.Recurring, 1)
	assert.Equal(t, "09:00", w.Recurring[0].StartTime)
	require.Len(t, w.Fixed, 1)
	assert.Equal(t, "planned upgrade", w.Fixed[0].Description)

	_, ok = windows[2]
	assert.False(t, ok, "monitor 2 declared no maintenance windows")
}

func TestLoad_RejectsZeroID(t *testing.T) {
	path := writeFile(t, `
monitors:
  - name: bad
    type: http
    url: https://example.com
    interval_seconds: 30
`)
	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsIntervalBelowMinimum(t *testing.T) {
	path := writeFile(t, `
monitors:
  - id: 1
    name: too-fast
    type: http
    url: https://example.com
    interval_seconds: 1
`)
	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
