// Package metrics exposes Prometheus collectors for the monitoring engine.
// This is ambient observability, not a spec operation: nothing in the
// scheduler or incident detector reads these values back, they only ever
// flow outward to a scrape.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors holds every Prometheus metric the engine publishes.
type Collectors struct {
	ChecksTotal   *prometheus.CounterVec
	CheckDuration *prometheus.HistogramVec
	IncidentsOpen *prometheus.GaugeVec
}

// New registers the engine's collectors under the "statusbeacon_monitoring"
// namespace/subsystem. Safe to call once per process; promauto panics on a
// duplicate registration, same as the rest of this namespace does.
func New() *Collectors {
	return &Collectors{
		ChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "statusbeacon",
				Subsystem: "monitoring",
				Name:      "checks_total",
				Help:      "Total number of probe checks executed, by monitor and outcome.",
			},
			[]string{"monitor_id", "status"},
		),
		CheckDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "statusbeacon",
				Subsystem: "monitoring",
				Name:      "check_duration_seconds",
				Help:      "Probe check latency in seconds, by monitor.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"monitor_id"},
		),
		IncidentsOpen: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "statusbeacon",
				Subsystem: "monitoring",
				Name:      "incidents_open",
				Help:      "Number of currently open incidents, by severity.",
			},
			[]string{"severity"},
		),
	}
}

// ObserveCheck records one completed probe's outcome and latency.
func (c *Collectors) ObserveCheck(monitorID string, status string, duration time.Duration) {
	c.ChecksTotal.WithLabelValues(monitorID, status).Inc()
	c.CheckDuration.WithLabelValues(monitorID).Observe(duration.Seconds())
}

// IncidentOpened increments the open-incident gauge for a severity.
func (c *Collectors) IncidentOpened(severity string) {
	c.IncidentsOpen.WithLabelValues(severity).Inc()
}

// IncidentResolved decrements the open-incident gauge for a severity.
func (c *Collectors) IncidentResolved(severity string) {
	c.IncidentsOpen.WithLabelValues(severity).Dec()
}
