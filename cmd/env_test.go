package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/chips-cli/internal/calendar"
	"github.com/twmarket/chips-cli/internal/config"
	"github.com/twmarket/chips-cli/internal/model"
)

func testClock(t *testing.T) *calendar.TaiwanClock {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	now := time.Date(2026, 8, 25, 16, 0, 0, 0, loc)

	c, err := calendar.NewTaiwanClock(15, "Asia/Taipei", calendar.WithNow(func() time.Time { return now }))
	require.NoError(t, err)
	return c
}

func TestResolveDateExplicit(t *testing.T) {
	d, err := resolveDate(testClock(t), "2026-08-21")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-21", d.Format(model.DateLayout))
}

func TestResolveDateFromCalendar(t *testing.T) {
	d, err := resolveDate(testClock(t), "")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-25", d.Format(model.DateLayout))
}

func TestResolveDateRejectsBadFormat(t *testing.T) {
	_, err := resolveDate(testClock(t), "08/25/2026")
	assert.Error(t, err)
}

func TestInitStoreSQLite(t *testing.T) {
	st, err := initStore(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, st.Close())
}

func TestInitStoreUnknownDriver(t *testing.T) {
	_, err := initStore(context.Background(), config.StoreConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "changes", "snapshots", "serve"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
