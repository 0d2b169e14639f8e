// Package aggregator rolls up raw checks into daily uptime summaries and
// enforces retention, the way service_sentinel.go rotates its in-memory
// 30-day arrays at midnight — except here the roll-up is persisted per
// monitor-day rather than kept in a ring buffer.
package aggregator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/store"
)

// Aggregator periodically summarizes a day's checks into a StatusHistoryDay
// row and trims data older than RetentionDays.
type Aggregator struct {
	checks  store.CheckStore
	history store.HistoryStore

	retentionDays int

	stopCh chan struct{}
}

func New(checks store.CheckStore, history store.HistoryStore, retentionDays int) *Aggregator {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &Aggregator{
		checks:        checks,
		history:       history,
		retentionDays: retentionDays,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the hourly roll-up loop, the daily finalize+retention loop,
// and runs a startup backfill bounded by RetentionDays.
func (a *Aggregator) Start(ctx context.Context) {
	if err := a.Backfill(ctx); err != nil {
		logrus.WithField("component", "aggregator").Errorf("startup backfill failed: %v", err)
	}

	go a.hourlyLoop(ctx)
	go a.midnightLoop(ctx)
}

func (a *Aggregator) Stop() {
	close(a.stopCh)
}

// hourlyLoop upserts today's summary row for every monitor with checks
// recorded today, so dashboards reflect the partial day without waiting for
// midnight finalize.
func (a *Aggregator) hourlyLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.rollUpDay(ctx, time.Now().UTC()); err != nil {
				logrus.WithField("component", "aggregator").Errorf("hourly roll-up failed: %v", err)
			}
		case <-a.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// midnightLoop finalizes yesterday's summary and trims retention once a day.
func (a *Aggregator) midnightLoop(ctx context.Context) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 5, 0, 0, time.UTC)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			yesterday := time.Now().UTC().AddDate(0, 0, -1)
			if err := a.rollUpDay(ctx, yesterday); err != nil {
				logrus.WithField("component", "aggregator").Errorf("daily finalize failed: %v", err)
			}
			if err := a.trimRetention(ctx); err != nil {
				logrus.WithField("component", "aggregator").Errorf("retention trim failed: %v", err)
			}
		case <-a.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Backfill re-aggregates every day within the retention window (today and
// the retentionDays-1 days before it), bounded so a long-down engine doesn't
// spend unbounded startup time re-aggregating ancient history. Days that
// already have a summary row are recomputed and overwritten, not skipped.
func (a *Aggregator) Backfill(ctx context.Context) error {
	for d := 0; d < a.retentionDays; d++ {
		day := time.Now().UTC().AddDate(0, 0, -d)
		if err := a.rollUpDay(ctx, day); err != nil {
			return err
		}
	}
	return nil
}

// rollUpDay recomputes the summary row for every monitor with checks on
// day, from raw check rows.
func (a *Aggregator) rollUpDay(ctx context.Context, day time.Time) error {
	monitorIDs, err := a.history.DistinctMonitorsWithChecksOn(ctx, day)
	if err != nil {
		return err
	}

	since := dayStart(day)
	for _, monitorID := range monitorIDs {
		total, successful, err := a.checks.CountInRange(ctx, monitorID, since)
		if err != nil {
			return err
		}
		avgMs, err := a.checks.AvgResponseTime(ctx, monitorID, 1)
		if err != nil {
			return err
		}

		uptimePct := float64(100)
		if total > 0 {
			uptimePct = float64(successful) / float64(total) * 100
		}

		row := models.StatusHistoryDay{
			MonitorID:         monitorID,
			Date:              since,
			UptimePct:         uptimePct,
			AvgResponseTimeMs: int(avgMs),
			TotalChecks:       int(total),
			SuccessfulChecks:  int(successful),
		}
		if err := a.history.Upsert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// trimRetention deletes check and history rows past RetentionDays.
func (a *Aggregator) trimRetention(ctx context.Context) error {
	if err := a.checks.DeleteOlderThan(ctx, a.retentionDays); err != nil {
		return err
	}
	return a.history.DeleteOlderThan(ctx, a.retentionDays)
}

// GetHistoryWithFallback returns the persisted summary for (monitorID, day)
// when present, or a freshly computed one from raw checks when it is not —
// e.g. for "today", whose summary row may not exist yet since the hourly
// loop hasn't run.
func (a *Aggregator) GetHistoryWithFallback(ctx context.Context, monitorID uint, day time.Time) (models.StatusHistoryDay, error) {
	cached, err := a.history.Get(ctx, monitorID, day)
	if err != nil {
		return models.StatusHistoryDay{}, err
	}
	if cached != nil {
		return *cached, nil
	}

	since := dayStart(day)
	total, successful, err := a.checks.CountInRange(ctx, monitorID, since)
	if err != nil {
		return models.StatusHistoryDay{}, err
	}
	avgMs, err := a.checks.AvgResponseTime(ctx, monitorID, 1)
	if err != nil {
		return models.StatusHistoryDay{}, err
	}

	uptimePct := float64(100)
	if total > 0 {
		uptimePct = float64(successful) / float64(total) * 100
	}

	return models.StatusHistoryDay{
		MonitorID:         monitorID,
		Date:              since,
		UptimePct:         uptimePct,
		AvgResponseTimeMs: int(avgMs),
		TotalChecks:       int(total),
		SuccessfulChecks:  int(successful),
	}, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
