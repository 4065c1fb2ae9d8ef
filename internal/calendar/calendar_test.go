package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/chips-cli/internal/model"
)

func clockAt(t *testing.T, stamp string) *TaiwanClock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	at, err := time.ParseInLocation("2006-01-02 15:04", stamp, loc)
	require.NoError(t, err)

	c, err := NewTaiwanClock(15, "Asia/Taipei", WithNow(func() time.Time { return at }))
	require.NoError(t, err)
	return c
}

func TestTradingDateAfterCutoff(t *testing.T) {
	// Tuesday 16:00, past the publication cutoff.
	c := clockAt(t, "2026-08-25 16:00")
	assert.Equal(t, "2026-08-25", c.TradingDate().Format(model.DateLayout))
}

func TestTradingDateBeforeCutoff(t *testing.T) {
	// Tuesday 09:00, figures not published yet; target Monday.
	c := clockAt(t, "2026-08-25 09:00")
	assert.Equal(t, "2026-08-24", c.TradingDate().Format(model.DateLayout))
}

func TestTradingDateSkipsWeekend(t *testing.T) {
	// Sunday afternoon targets Friday.
	c := clockAt(t, "2026-08-23 16:00")
	assert.Equal(t, "2026-08-21", c.TradingDate().Format(model.DateLayout))

	// Monday before cutoff also targets Friday.
	c = clockAt(t, "2026-08-24 09:00")
	assert.Equal(t, "2026-08-21", c.TradingDate().Format(model.DateLayout))
}

func TestIsTradingDayWeekend(t *testing.T) {
	c := clockAt(t, "2026-08-25 16:00")
	loc, _ := time.LoadLocation("Asia/Taipei")

	saturday := time.Date(2026, 8, 22, 12, 0, 0, 0, loc)
	assert.False(t, c.IsTradingDay(saturday))

	tuesday := time.Date(2026, 8, 25, 12, 0, 0, 0, loc)
	assert.True(t, c.IsTradingDay(tuesday))
}

func TestNewTaiwanClockRejectsBadZone(t *testing.T) {
	_, err := NewTaiwanClock(15, "Not/AZone")
	assert.Error(t, err)
}
