package risk

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/forest"
	"github.com/realgroute/riskroute/internal/store"
	"github.com/realgroute/riskroute/internal/zone"
)

// Metadata is everything besides the classifier needed to rebuild the
// prediction pipeline of a persisted model.
type Metadata struct {
	LocalityToID   map[string]int     `json:"locality_to_id"`
	IDToLocality   map[string]string  `json:"id_to_locality"`
	FeatureColumns []string           `json:"feature_columns"`
	Tiers          []zone.Tier        `json:"tiers"`
	CrimeRates     map[string]float64 `json:"crime_rates"`
}

// NewMetadata builds metadata and derives the inverse locality map.
// JSON object keys are strings, so ids are stored in decimal.
func NewMetadata(ids map[string]int, columns []string, classifier *zone.Classifier) Metadata {
	inverse := make(map[string]string, len(ids))
	for name, id := range ids {
		inverse[strconv.Itoa(id)] = name
	}
	return Metadata{
		LocalityToID:   ids,
		IDToLocality:   inverse,
		FeatureColumns: columns,
		Tiers:          classifier.Tiers(),
		CrimeRates:     classifier.CrimeRates(),
	}
}

// TrainingStats records how a model was fitted.
type TrainingStats struct {
	Points          int                      `json:"points"`
	Examples        int                      `json:"examples"`
	TrainRows       int                      `json:"train_rows"`
	HoldoutRows     int                      `json:"holdout_rows"`
	HoldoutAccuracy float64                  `json:"holdout_accuracy"`
	TierPoints      map[zone.TierName]int    `json:"tier_points"`
	ClassCounts     map[zone.TierName][3]int `json:"class_counts"`
	Importances     map[string]float64       `json:"importances"`
	Synthetic       bool                     `json:"synthetic"`
	DurationMS      int64                    `json:"duration_ms"`
}

// Artifact is a fitted model with its metadata.
type Artifact struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Forest    *forest.Forest `json:"-"`
	Metadata  Metadata       `json:"metadata"`
	Stats     TrainingStats  `json:"stats"`
}

// Record serializes the artifact for storage.
func (a *Artifact) Record() (store.ModelRecord, error) {
	blob, err := json.Marshal(a.Forest)
	if err != nil {
		return store.ModelRecord{}, eris.Wrap(err, "risk: marshal classifier")
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return store.ModelRecord{}, eris.Wrap(err, "risk: marshal metadata")
	}
	stats, err := json.Marshal(a.Stats)
	if err != nil {
		return store.ModelRecord{}, eris.Wrap(err, "risk: marshal stats")
	}
	return store.ModelRecord{
		ID:         a.ID,
		CreatedAt:  a.CreatedAt,
		Classifier: blob,
		Metadata:   meta,
		Stats:      stats,
		Active:     true,
	}, nil
}

// ArtifactFromRecord decodes a stored model.
func ArtifactFromRecord(rec *store.ModelRecord) (*Artifact, error) {
	a := &Artifact{ID: rec.ID, CreatedAt: rec.CreatedAt}
	var f forest.Forest
	if err := json.Unmarshal(rec.Classifier, &f); err != nil {
		return nil, eris.Wrapf(err, "risk: decode classifier %s", rec.ID)
	}
	a.Forest = &f
	if err := json.Unmarshal(rec.Metadata, &a.Metadata); err != nil {
		return nil, eris.Wrapf(err, "risk: decode metadata %s", rec.ID)
	}
	if len(rec.Stats) > 0 {
		if err := json.Unmarshal(rec.Stats, &a.Stats); err != nil {
			return nil, eris.Wrapf(err, "risk: decode stats %s", rec.ID)
		}
	}
	return a, nil
}
