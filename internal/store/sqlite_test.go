package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/chips-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSnapshot(date string) *model.Snapshot {
	return &model.Snapshot{
		TradingDate: date,
		Metrics: map[string]model.ExtractedValue{
			"taiex_close": {
				FieldName:  "taiex_close",
				RawText:    "23,456.78",
				Value:      23456.78,
				Endpoint:   "twse_mi_index_ind",
				Strategy:   model.StrategyHeader,
				Confidence: model.ConfidenceHigh,
			},
		},
		Derived:    map[string]float64{"basis": -24.78},
		ComputedAt: time.Date(2026, 8, 25, 15, 30, 0, 0, time.UTC),
		Finalized:  true,
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.PutSnapshot(ctx, testSnapshot("2026-08-25")))

	got, err := s.GetSnapshot(ctx, "2026-08-25")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "2026-08-25", got.TradingDate)
	assert.True(t, got.Finalized)
	assert.InDelta(t, -24.78, got.Derived["basis"], 1e-9)

	ev := got.Metrics["taiex_close"]
	assert.Equal(t, model.StrategyHeader, ev.Strategy)
	assert.Equal(t, model.ConfidenceHigh, ev.Confidence)
	assert.InDelta(t, 23456.78, ev.Value, 1e-9)
}

func TestSQLiteGetMissingReturnsNil(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetSnapshot(context.Background(), "2026-08-25")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteUpsertReplacesByDate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.PutSnapshot(ctx, testSnapshot("2026-08-25")))

	updated := testSnapshot("2026-08-25")
	updated.Derived["basis"] = 12.5
	require.NoError(t, s.PutSnapshot(ctx, updated))

	got, err := s.GetSnapshot(ctx, "2026-08-25")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 12.5, got.Derived["basis"], 1e-9)

	dates, err := s.ListDates(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-25"}, dates)
}

func TestSQLiteGetLatestBefore(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, d := range []string{"2026-08-21", "2026-08-24", "2026-08-25"} {
		require.NoError(t, s.PutSnapshot(ctx, testSnapshot(d)))
	}

	prev, err := s.GetLatestBefore(ctx, "2026-08-25")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2026-08-24", prev.TradingDate)

	// Weekend gap: nearest earlier trading day wins.
	prev, err = s.GetLatestBefore(ctx, "2026-08-24")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2026-08-21", prev.TradingDate)

	none, err := s.GetLatestBefore(ctx, "2026-08-21")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteListDatesNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, d := range []string{"2026-08-21", "2026-08-25", "2026-08-24"} {
		require.NoError(t, s.PutSnapshot(ctx, testSnapshot(d)))
	}

	dates, err := s.ListDates(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-25", "2026-08-24"}, dates)
}
