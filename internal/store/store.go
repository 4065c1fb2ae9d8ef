// Package store persists finalized snapshots. The trading date is the
// only identity key: writing the same date twice upserts. A missing
// snapshot is not an error; lookups return nil, nil.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/twmarket/chips-cli/internal/model"
)

// Store defines the persistence interface for daily snapshots.
type Store interface {
	// PutSnapshot inserts or replaces the snapshot for its trading date.
	PutSnapshot(ctx context.Context, snap *model.Snapshot) error
	// GetSnapshot returns the snapshot for the given trading date, or
	// nil when none exists.
	GetSnapshot(ctx context.Context, tradingDate string) (*model.Snapshot, error)
	// GetLatestBefore returns the most recent snapshot strictly before
	// the given trading date, or nil when none exists.
	GetLatestBefore(ctx context.Context, tradingDate string) (*model.Snapshot, error)
	// ListDates returns stored trading dates, newest first.
	ListDates(ctx context.Context, limit int) ([]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalSnapshot(snap *model.Snapshot) (string, string, error) {
	metricsJSON, err := json.Marshal(snap.Metrics)
	if err != nil {
		return "", "", err
	}
	derivedJSON, err := json.Marshal(snap.Derived)
	if err != nil {
		return "", "", err
	}
	return string(metricsJSON), string(derivedJSON), nil
}

func scanSnapshot(row rowScanner) (*model.Snapshot, error) {
	var (
		snap        model.Snapshot
		metricsJSON string
		derivedJSON string
		computedAt  time.Time
	)
	err := row.Scan(&snap.TradingDate, &metricsJSON, &derivedJSON, &computedAt, &snap.Finalized)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan snapshot")
	}
	snap.ComputedAt = computedAt

	if err := json.Unmarshal([]byte(metricsJSON), &snap.Metrics); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal metrics")
	}
	if err := json.Unmarshal([]byte(derivedJSON), &snap.Derived); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal derived")
	}
	return &snap, nil
}
