package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/twmarket/chips-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	trading_date TEXT PRIMARY KEY,
	metrics      TEXT NOT NULL,
	derived      TEXT NOT NULL,
	computed_at  DATETIME NOT NULL,
	finalized    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_snapshots_computed_at ON snapshots(computed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutSnapshot(ctx context.Context, snap *model.Snapshot) error {
	metricsJSON, derivedJSON, err := marshalSnapshot(snap)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (trading_date, metrics, derived, computed_at, finalized)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(trading_date) DO UPDATE SET
		   metrics = excluded.metrics,
		   derived = excluded.derived,
		   computed_at = excluded.computed_at,
		   finalized = excluded.finalized`,
		snap.TradingDate, metricsJSON, derivedJSON, snap.ComputedAt.UTC(), snap.Finalized,
	)
	return eris.Wrapf(err, "sqlite: upsert snapshot %s", snap.TradingDate)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, tradingDate string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT trading_date, metrics, derived, computed_at, finalized
		 FROM snapshots WHERE trading_date = ?`,
		tradingDate,
	)
	return scanSnapshot(row)
}

func (s *SQLiteStore) GetLatestBefore(ctx context.Context, tradingDate string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT trading_date, metrics, derived, computed_at, finalized
		 FROM snapshots WHERE trading_date < ?
		 ORDER BY trading_date DESC LIMIT 1`,
		tradingDate,
	)
	return scanSnapshot(row)
}

func (s *SQLiteStore) ListDates(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT trading_date FROM snapshots ORDER BY trading_date DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dates")
	}
	defer rows.Close() //nolint:errcheck

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan date")
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "sqlite: iterate dates")
}

