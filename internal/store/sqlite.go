package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements ModelStore using modernc.org/sqlite.
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
CREATE TABLE IF NOT EXISTS risk_models (
	id         TEXT PRIMARY KEY,
	classifier BLOB NOT NULL,
	metadata   TEXT NOT NULL,
	stats      TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_risk_models_active ON risk_models(active);
CREATE INDEX IF NOT EXISTS idx_risk_models_created_at ON risk_models(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveModel(ctx context.Context, rec ModelRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE risk_models SET active = 0 WHERE active = 1`); err != nil {
		return eris.Wrap(err, "sqlite: deactivate models")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO risk_models (id, classifier, metadata, stats, active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
		rec.ID, rec.Classifier, string(rawOrNull(rec.Metadata)), string(rawOrNull(rec.Stats)), rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert model %s", rec.ID)
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit model")
	}
	return nil
}

func (s *SQLiteStore) ActiveModel(ctx context.Context) (*ModelRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, classifier, metadata, stats, active, created_at FROM risk_models WHERE active = 1 ORDER BY created_at DESC LIMIT 1`)
	rec, err := scanModel(row)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: active model")
	}
	return rec, nil
}

func (s *SQLiteStore) GetModel(ctx context.Context, id string) (*ModelRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, classifier, metadata, stats, active, created_at FROM risk_models WHERE id = ?`, id)
	rec, err := scanModel(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get model %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListModels(ctx context.Context, limit int) ([]ModelSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stats, active, created_at FROM risk_models ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list models")
	}
	defer rows.Close() //nolint:errcheck

	var out []ModelSummary
	for rows.Next() {
		var m ModelSummary
		var stats string
		if err := rows.Scan(&m.ID, &stats, &m.Active, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan model summary")
		}
		m.Stats = []byte(stats)
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate models")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanModel(row scannable) (*ModelRecord, error) {
	var rec ModelRecord
	var metadata, stats string
	err := row.Scan(&rec.ID, &rec.Classifier, &metadata, &stats, &rec.Active, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Metadata = []byte(metadata)
	rec.Stats = []byte(stats)
	return &rec, nil
}
