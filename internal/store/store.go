// Package store persists fitted risk models. Saving a model and making it
// the active one happen in a single transaction so readers never observe
// a half-replaced artifact.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/config"
)

// ErrNotFound is returned when no matching model exists.
var ErrNotFound = eris.New("store: model not found")

// ModelRecord is a serialized model artifact.
type ModelRecord struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Classifier []byte          `json:"-"`
	Metadata   json.RawMessage `json:"metadata"`
	Stats      json.RawMessage `json:"stats"`
	Active     bool            `json:"active"`
}

// ModelSummary is a listing row without the classifier blob.
type ModelSummary struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Stats     json.RawMessage `json:"stats"`
	Active    bool            `json:"active"`
}

// ModelStore defines durable storage for model artifacts.
type ModelStore interface {
	// SaveModel inserts rec and makes it the only active model.
	SaveModel(ctx context.Context, rec ModelRecord) error
	// ActiveModel returns the active model or ErrNotFound.
	ActiveModel(ctx context.Context) (*ModelRecord, error)
	// GetModel returns a model by id or ErrNotFound.
	GetModel(ctx context.Context, id string) (*ModelRecord, error)
	// ListModels returns the newest models first.
	ListModels(ctx context.Context, limit int) ([]ModelSummary, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (ModelStore, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "riskroute.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

func validateRecord(rec ModelRecord) error {
	if rec.ID == "" {
		return eris.New("store: model id is required")
	}
	if len(rec.Classifier) == 0 {
		return eris.New("store: classifier blob is empty")
	}
	return nil
}

func rawOrNull(b json.RawMessage) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
