// Package monitorfile loads the monitor list the engine's reload contract
// consumes from a YAML file. Parsing the monitor list is explicitly outside
// the core (it stays an external input per the reload contract); this is
// the ambient glue that owns the file and turns it into a Reload call.
package monitorfile

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/statusbeacon/engine/internal/monitoring/models"
)

// Document is the on-disk shape of the monitor list file.
type Document struct {
	Monitors []monitorEntry `yaml:"monitors"`
}

type monitorEntry struct {
	ID              uint     `yaml:"id"`
	Name            string   `yaml:"name"`
	Group           string   `yaml:"group"`
	Type            string   `yaml:"type"`
	URL             string   `yaml:"url"`
	IntervalSeconds int      `yaml:"interval_seconds"`
	Public          *bool    `yaml:"public"`
	Conditions      []string `yaml:"conditions"`
	DNSQueryName    string   `yaml:"dns_query_name"`
	DNSQueryType    string   `yaml:"dns_query_type"`

	Maintenance struct {
		Recurring []recurringEntry `yaml:"recurring"`
		Fixed     []fixedEntry     `yaml:"fixed"`
	} `yaml:"maintenance"`
}

type recurringEntry struct {
	StartTime string `yaml:"start_time"`
	EndTime   string `yaml:"end_time"`
	Timezone  string `yaml:"timezone"`
}

type fixedEntry struct {
	StartTime   time.Time `yaml:"start_time"`
	EndTime     time.Time `yaml:"end_time"`
	Timezone    string    `yaml:"timezone"`
	Description string    `yaml:"description"`
}

// Load reads and parses path into the Monitor list and per-monitor
// maintenance windows Engine.Reload expects.
func Load(path string) ([]models.Monitor, map[uint]models.MaintenanceWindows, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read monitor file %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse monitor file %s: %w", path, err)
	}

	monitors := make([]models.Monitor, 0, len(doc.Monitors))
	windows := make(map[uint]models.MaintenanceWindows, len(doc.Monitors))

	for _, e := range doc.Monitors {
		if e.ID == 0 {
			return nil, nil, fmt.Errorf("monitor %q: id must be a non-zero positive integer", e.Name)
		}
		if e.IntervalSeconds < models.MinIntervalSeconds {
			return nil, nil, fmt.Errorf("monitor %q: interval_seconds must be >= %d", e.Name, models.MinIntervalSeconds)
		}

		public := true
		if e.Public != nil {
			public = *e.Public
		}

		monitors = append(monitors, models.Monitor{
			ID:              e.ID,
			Name:            e.Name,
			Group:           e.Group,
			Type:            models.MonitorType(e.Type),
			URL:             e.URL,
			IntervalSeconds: e.IntervalSeconds,
			Public:          public,
			Conditions:      models.StringList(e.Conditions),
			DNSQueryName:    e.DNSQueryName,
			DNSQueryType:    e.DNSQueryType,
		})

		w := models.MaintenanceWindows{}
		for _, r := range e.Maintenance.Recurring {
			w.Recurring = append(w.Recurring, models.RecurringWindow{
				StartTime: r.StartTime,
				EndTime:   r.EndTime,
				Timezone:  r.Timezone,
			})
		}
		for _, f := range e.Maintenance.Fixed {
			monitorID := e.ID
			w.Fixed = append(w.Fixed, models.FixedWindow{
				ID:          uuid.New().String(),
				MonitorID:   &monitorID,
				StartTime:   f.StartTime,
				EndTime:     f.EndTime,
				Timezone:    f.Timezone,
				Description: f.Description,
			})
		}
		if len(w.Recurring) > 0 || len(w.Fixed) > 0 {
			windows[e.ID] = w
		}
	}

	return monitors, windows, nil
}
