// Package calendar resolves which trading date a wall-clock instant
// belongs to. The exchanges publish the daily tables after the 13:45
// futures close; before the publication cutoff a run targets the
// previous trading day.
package calendar

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/scmhub/calendar"
	"go.uber.org/zap"
)

// Clock resolves trading dates.
type Clock interface {
	// TradingDate returns the trading date a snapshot run started now
	// should target.
	TradingDate() time.Time
	// IsTradingDay reports whether the exchange is open on the given day.
	IsTradingDay(t time.Time) bool
}

// TaiwanClock implements Clock against the Taiwan exchange calendar,
// falling back to plain weekdays when the holiday calendar is
// unavailable.
type TaiwanClock struct {
	cal        *calendar.Calendar
	loc        *time.Location
	cutoffHour int
	now        func() time.Time
}

// Option customizes a TaiwanClock.
type Option func(*TaiwanClock)

// WithNow injects the time source, used by tests.
func WithNow(now func() time.Time) Option {
	return func(c *TaiwanClock) { c.now = now }
}

// NewTaiwanClock builds a clock with the given publication cutoff hour in
// the given zone (normally Asia/Taipei).
func NewTaiwanClock(cutoffHour int, timezone string, opts ...Option) (*TaiwanClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "calendar: load location %q", timezone)
	}

	cal := calendar.GetCalendar("xtai")
	if cal == nil {
		zap.L().Warn("exchange calendar unavailable, using weekday fallback")
	}

	c := &TaiwanClock{
		cal:        cal,
		loc:        loc,
		cutoffHour: cutoffHour,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// IsTradingDay reports whether the exchange trades on the given day.
func (c *TaiwanClock) IsTradingDay(t time.Time) bool {
	t = t.In(c.loc)
	if c.cal != nil {
		return c.cal.IsBusinessDay(t)
	}
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TradingDate returns the most recent trading day whose figures are
// already published: today once past the cutoff hour, otherwise walking
// back day by day to the last trading day.
func (c *TaiwanClock) TradingDate() time.Time {
	now := c.now().In(c.loc)

	candidate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	if now.Hour() < c.cutoffHour || !c.IsTradingDay(candidate) {
		candidate = candidate.AddDate(0, 0, -1)
	}
	for !c.IsTradingDay(candidate) {
		candidate = candidate.AddDate(0, 0, -1)
	}
	return candidate
}
