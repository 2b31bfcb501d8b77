// Package risk turns (locality, coordinates, hour, weekday) queries into
// risk scores. Prediction strategies share one RiskModel interface and are
// tried in a fixed order by Chain; the trained model lives behind an
// atomically swapped Handle.
package risk

import (
	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/model"
)

var (
	// ErrModelUnavailable means no fitted model is loaded.
	ErrModelUnavailable = eris.New("risk: model unavailable")
	// ErrUnknownLocality means a locality name could not be resolved and
	// no coordinates were supplied.
	ErrUnknownLocality = eris.New("risk: unknown locality")
	// ErrInvalidQuery means the hour or weekday is out of range.
	ErrInvalidQuery = eris.New("risk: invalid query")
)

// Query is a single prediction request. Day runs 0=Monday .. 6=Sunday.
type Query struct {
	Locality string
	Lat      float64
	Lng      float64
	Hour     int
	Day      int
}

// Validate checks the time fields.
func (q Query) Validate() error {
	if q.Hour < 0 || q.Hour > 23 {
		return eris.Wrapf(ErrInvalidQuery, "hour %d out of [0, 23]", q.Hour)
	}
	if q.Day < 0 || q.Day > 6 {
		return eris.Wrapf(ErrInvalidQuery, "day %d out of [0, 6]", q.Day)
	}
	return nil
}

// RiskModel is a prediction strategy.
type RiskModel interface {
	Name() string
	Predict(q Query) (float64, error)
}

// Heuristic is the fixed-rule fallback used when no trained model is ready.
type Heuristic struct{}

// Name implements RiskModel.
func (Heuristic) Name() string { return "heuristic" }

// Predict returns 0.3 plus 0.15 at night (22:00–05:59) and 0.05 on weekends.
func (Heuristic) Predict(q Query) (float64, error) {
	score := 0.3
	if q.Hour >= 22 || q.Hour <= 5 {
		score += 0.15
	}
	if model.IsWeekendDay(q.Day) {
		score += 0.05
	}
	return model.Clamp01(score), nil
}
