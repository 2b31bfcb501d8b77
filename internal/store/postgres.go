package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/db"
)

// PostgresStore implements ModelStore using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
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
	if err := retry(ctx, DefaultRetryConfig(), "postgres ping", pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS risk_models (
	id         TEXT PRIMARY KEY,
	classifier BYTEA NOT NULL,
	metadata   JSONB NOT NULL,
	stats      JSONB NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_risk_models_one_active ON risk_models(active) WHERE active;
CREATE INDEX IF NOT EXISTS idx_risk_models_created_at ON risk_models(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveModel(ctx context.Context, rec ModelRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE risk_models SET active = false WHERE active`); err != nil {
			return eris.Wrap(err, "postgres: deactivate models")
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO risk_models (id, classifier, metadata, stats, active, created_at) VALUES ($1, $2, $3, $4, true, $5)`,
			rec.ID, rec.Classifier, rawOrNull(rec.Metadata), rawOrNull(rec.Stats), rec.CreatedAt,
		)
		return eris.Wrapf(err, "postgres: insert model %s", rec.ID)
	})
	return err
}

func (s *PostgresStore) ActiveModel(ctx context.Context) (*ModelRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, classifier, metadata, stats, active, created_at FROM risk_models WHERE active ORDER BY created_at DESC LIMIT 1`)
	rec, err := scanPgModel(row)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: active model")
	}
	return rec, nil
}

func (s *PostgresStore) GetModel(ctx context.Context, id string) (*ModelRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, classifier, metadata, stats, active, created_at FROM risk_models WHERE id = $1`, id)
	rec, err := scanPgModel(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get model %s", id)
	}
	return rec, nil
}

func (s *PostgresStore) ListModels(ctx context.Context, limit int) ([]ModelSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, stats, active, created_at FROM risk_models ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list models")
	}
	defer rows.Close()

	var out []ModelSummary
	for rows.Next() {
		var m ModelSummary
		var stats []byte
		if err := rows.Scan(&m.ID, &stats, &m.Active, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan model summary")
		}
		m.Stats = stats
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate models")
}

func scanPgModel(row pgx.Row) (*ModelRecord, error) {
	var rec ModelRecord
	var metadata, stats []byte
	err := row.Scan(&rec.ID, &rec.Classifier, &metadata, &stats, &rec.Active, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Metadata = metadata
	rec.Stats = stats
	return &rec, nil
}
