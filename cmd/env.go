package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/twmarket/chips-cli/internal/calendar"
	"github.com/twmarket/chips-cli/internal/config"
	"github.com/twmarket/chips-cli/internal/fetch"
	"github.com/twmarket/chips-cli/internal/model"
	"github.com/twmarket/chips-cli/internal/pipeline"
	"github.com/twmarket/chips-cli/internal/registry"
	"github.com/twmarket/chips-cli/internal/store"
)

// env bundles the wired subsystems a command needs.
type env struct {
	Store    store.Store
	Runner   *pipeline.Runner
	Tracker  *pipeline.Tracker
	Clock    calendar.Clock
	Registry *registry.Registry
}

func (e *env) Close() {
	_ = e.Store.Close()
}

// initEnv builds the store, registry, fetcher, clock and pipeline from
// the loaded config and runs migrations.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	clock, err := calendar.NewTaiwanClock(cfg.Calendar.CutoffHour, cfg.Calendar.Timezone)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher(fetch.HTTPOptions{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.Fetch.Retries + 1,
		BackoffBase: time.Duration(cfg.Fetch.BackoffBaseSecs * float64(time.Second)),
		RatePerHost: rate.Limit(cfg.Fetch.RatePerHost),
	})

	runner := pipeline.NewRunner(reg, fetcher, st, pipeline.Options{
		GlobalTimeout:       time.Duration(cfg.Pipeline.GlobalTimeoutSecs) * time.Second,
		MaxConcurrentGroups: cfg.Pipeline.MaxConcurrentGroups,
		HeaderScanRows:      cfg.Pipeline.HeaderScanRows,
		ConsistencyEpsilon:  cfg.Pipeline.ConsistencyEpsilon,
	})

	return &env{
		Store:    st,
		Runner:   runner,
		Tracker:  pipeline.NewTracker(st),
		Clock:    clock,
		Registry: reg,
	}, nil
}

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite", "":
		return store.NewSQLite(sc.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", sc.Driver)
	}
}

// resolveDate parses an explicit --date flag, or asks the trading
// calendar which date a run started now should target.
func resolveDate(clock calendar.Clock, flag string) (time.Time, error) {
	if flag == "" {
		return clock.TradingDate(), nil
	}
	d, err := time.Parse(model.DateLayout, flag)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "invalid date %q, want YYYY-MM-DD", flag)
	}
	return d, nil
}
