// Package maintenance answers "is this monitor in a maintenance window?"
// for both in-memory recurring-daily windows and persisted fixed windows.
package maintenance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/statusbeacon/engine/internal/monitoring/models"
	"github.com/statusbeacon/engine/internal/monitoring/store"
)

// Status is the answer to an in_maintenance query.
type Status struct {
	InMaintenance bool
	Description   string
	EndsAt        *time.Time
}

// Oracle holds the in-memory recurring-window map (replaced wholesale per
// monitor on reload) and consults the fixed-window store for persisted
// one-off windows. Daily windows take precedence over fixed when both
// apply simultaneously.
type Oracle struct {
	mu        sync.RWMutex
	recurring map[uint][]models.RecurringWindow
	fixed     store.MaintenanceStore
}

func NewOracle(fixed store.MaintenanceStore) *Oracle {
	return &Oracle{
		recurring: make(map[uint][]models.RecurringWindow),
		fixed:     fixed,
	}
}

// ReplaceRecurring atomically replaces the recurring-window set for one
// monitor, as the reload path requires.
func (o *Oracle) ReplaceRecurring(monitorID uint, windows []models.RecurringWindow) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(windows) == 0 {
		delete(o.recurring, monitorID)
		return
	}
	o.recurring[monitorID] = windows
}

// InMaintenance evaluates recurring windows first, then falls back to
// persisted fixed windows.
func (o *Oracle) InMaintenance(ctx context.Context, monitorID uint, now time.Time) (Status, error) {
	if status, ok := o.matchRecurring(monitorID, now); ok {
		return status, nil
	}

	window, err := o.fixed.FirstMatching(ctx, monitorID, now)
	if err != nil {
		return Status{}, err
	}
	if window == nil {
		return Status{}, nil
	}
	return Status{
		InMaintenance: true,
		Description:   window.Description,
		EndsAt:        &window.EndTime,
	}, nil
}

func (o *Oracle) matchRecurring(monitorID uint, now time.Time) (Status, bool) {
	o.mu.RLock()
	windows := o.recurring[monitorID]
	o.mu.RUnlock()

	for _, w := range windows {
		loc, err := time.LoadLocation(w.Timezone)
		if err != nil {
			loc = time.UTC
		}
		local := now.In(loc)
		nowMinutes := local.Hour()*60 + local.Minute()

		startMinutes, err1 := parseHHMM(w.StartTime)
		endMinutes, err2 := parseHHMM(w.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}

		active := false
		if startMinutes <= endMinutes {
			active = nowMinutes >= startMinutes && nowMinutes < endMinutes
		} else {
			active = nowMinutes >= startMinutes || nowMinutes < endMinutes
		}
		if !active {
			continue
		}

		endsAt := nextOccurrence(local, endMinutes, startMinutes > endMinutes)
		return Status{
			InMaintenance: true,
			Description:   fmt.Sprintf("recurring window %s-%s %s", w.StartTime, w.EndTime, w.Timezone),
			EndsAt:        &endsAt,
		}, true
	}
	return Status{}, false
}

// nextOccurrence computes the next wall-clock time the window's end_time
// occurs in loc. For an overnight window whose current moment is past
// midnight, the end occurs later today; otherwise (or for a same-day
// window already past midnight boundary) it occurs tomorrow is handled by
// the overnight flag from the caller.
func nextOccurrence(local time.Time, endMinutes int, overnight bool) time.Time {
	h, m := endMinutes/60, endMinutes%60
	candidate := time.Date(local.Year(), local.Month(), local.Day(), h, m, 0, 0, local.Location())
	if overnight && local.Hour()*60+local.Minute() >= endMinutes {
		candidate = candidate.AddDate(0, 0, 1)
	} else if !overnight && candidate.Before(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate.UTC()
}

func parseHHMM(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}
