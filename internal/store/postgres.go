package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/twmarket/chips-cli/internal/model"
)

// Pool is the narrow pgxpool surface the store needs. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	trading_date TEXT PRIMARY KEY,
	metrics      JSONB NOT NULL,
	derived      JSONB NOT NULL,
	computed_at  TIMESTAMPTZ NOT NULL,
	finalized    BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_snapshots_computed_at ON snapshots(computed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) PutSnapshot(ctx context.Context, snap *model.Snapshot) error {
	metricsJSON, derivedJSON, err := marshalSnapshot(snap)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (trading_date, metrics, derived, computed_at, finalized)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (trading_date) DO UPDATE SET
		   metrics = EXCLUDED.metrics,
		   derived = EXCLUDED.derived,
		   computed_at = EXCLUDED.computed_at,
		   finalized = EXCLUDED.finalized`,
		snap.TradingDate, metricsJSON, derivedJSON, snap.ComputedAt.UTC(), snap.Finalized,
	)
	return eris.Wrapf(err, "postgres: upsert snapshot %s", snap.TradingDate)
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, tradingDate string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT trading_date, metrics, derived, computed_at, finalized
		 FROM snapshots WHERE trading_date = $1`,
		tradingDate,
	)
	return scanSnapshot(row)
}

func (s *PostgresStore) GetLatestBefore(ctx context.Context, tradingDate string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT trading_date, metrics, derived, computed_at, finalized
		 FROM snapshots WHERE trading_date < $1
		 ORDER BY trading_date DESC LIMIT 1`,
		tradingDate,
	)
	return scanSnapshot(row)
}

func (s *PostgresStore) ListDates(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT trading_date FROM snapshots ORDER BY trading_date DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dates")
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "postgres: scan date")
		}
		dates = append(dates, d)
	}
	return dates, eris.Wrap(rows.Err(), "postgres: iterate dates")
}
