package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/twmarket/chips-cli/internal/model"
	"github.com/twmarket/chips-cli/internal/store"
)

// streakLookback bounds how many prior snapshots a streak walk reads.
const streakLookback = 60

// Tracker computes day-over-day changes from stored snapshots.
type Tracker struct {
	st store.Store
}

// NewTracker builds a tracker.
func NewTracker(st store.Store) *Tracker {
	return &Tracker{st: st}
}

// Changes diffs the snapshot for a trading date against the most recent
// earlier one. A missing previous snapshot is not an error: every delta
// is zero and the condition is logged once.
func (t *Tracker) Changes(ctx context.Context, tradingDate string) ([]model.ChangeRecord, error) {
	today, err := t.st.GetSnapshot(ctx, tradingDate)
	if err != nil {
		return nil, eris.Wrapf(err, "changes: load %s", tradingDate)
	}
	if today == nil {
		return nil, eris.Errorf("changes: no snapshot for %s", tradingDate)
	}

	prev, err := t.st.GetLatestBefore(ctx, tradingDate)
	if err != nil {
		return nil, eris.Wrapf(err, "changes: load previous of %s", tradingDate)
	}
	if prev == nil {
		zap.L().Info("no earlier snapshot, reporting zero deltas",
			zap.String("trading_date", tradingDate))
	}

	records := make([]model.ChangeRecord, 0, len(today.Metrics)+len(today.Derived))
	for name, ev := range today.Metrics {
		rec := model.ChangeRecord{FieldName: name, Today: ev.Value}
		if prev != nil {
			rec.Previous = prev.MetricValue(name)
			rec.Delta = rec.Today - rec.Previous
		}
		records = append(records, rec)
	}
	for name, v := range today.Derived {
		rec := model.ChangeRecord{FieldName: name, Today: v}
		if prev != nil {
			rec.Previous = prev.Derived[name]
			rec.Delta = rec.Today - rec.Previous
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].FieldName < records[j].FieldName })
	return records, nil
}

// Streak counts consecutive trading days, ending at the given date, on
// which the field kept today's sign. A field at exactly zero has no
// streak. Walks at most streakLookback days back.
func (t *Tracker) Streak(ctx context.Context, tradingDate, field string) (int, error) {
	snap, err := t.st.GetSnapshot(ctx, tradingDate)
	if err != nil {
		return 0, eris.Wrapf(err, "streak: load %s", tradingDate)
	}
	if snap == nil {
		return 0, eris.Errorf("streak: no snapshot for %s", tradingDate)
	}

	dir := sign(fieldValue(snap, field))
	if dir == 0 {
		return 0, nil
	}

	count := 1
	cursor := snap
	for range streakLookback {
		prev, err := t.st.GetLatestBefore(ctx, cursor.TradingDate)
		if err != nil {
			return 0, eris.Wrapf(err, "streak: load previous of %s", cursor.TradingDate)
		}
		if prev == nil || sign(fieldValue(prev, field)) != dir {
			break
		}
		count++
		cursor = prev
	}
	return count, nil
}

func fieldValue(snap *model.Snapshot, field string) float64 {
	if ev, ok := snap.Metrics[field]; ok {
		return ev.Value
	}
	return snap.Derived[field]
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
