package risk

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/dataset"
	"github.com/realgroute/riskroute/internal/features"
	"github.com/realgroute/riskroute/internal/forest"
	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/store"
	"github.com/realgroute/riskroute/internal/zone"
)

// TrainerConfig controls a training run.
type TrainerConfig struct {
	Forest               forest.Params
	PointsPerTier        int
	HoldoutFraction      float64
	SyntheticPerLocality int
}

// Trainer fits, persists and activates tier models. Runs are serialized.
type Trainer struct {
	mu         sync.Mutex
	classifier *zone.Classifier
	centroids  *geo.Centroids
	store      store.ModelStore
	handle     *Handle
	cfg        TrainerConfig
	now        func() time.Time
}

// NewTrainer returns a trainer. A nil store keeps models in memory only.
func NewTrainer(classifier *zone.Classifier, centroids *geo.Centroids, st store.ModelStore, handle *Handle, cfg TrainerConfig) *Trainer {
	if cfg.SyntheticPerLocality <= 0 {
		cfg.SyntheticPerLocality = 40
	}
	return &Trainer{
		classifier: classifier,
		centroids:  centroids,
		store:      st,
		handle:     handle,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Train synthesizes examples from points, fits a forest, saves it as the
// active model and swaps it into the handle. When points yield no usable
// examples the run falls back to synthetic points around each centroid.
// On any failure the store and the handle are left untouched.
func (t *Trainer) Train(ctx context.Context, points []model.GeoPoint) (*Artifact, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := t.now()
	log := zap.L().With(zap.String("component", "trainer"))

	synth := features.NewSynthesizer(t.classifier, features.Config{
		PointsPerTier: t.cfg.PointsPerTier,
		Seed:          t.cfg.Forest.Seed,
	})

	synthetic := false
	examples, summary, err := synth.Synthesize(points)
	if eris.Is(err, features.ErrNoTrainingData) {
		log.Warn("no usable training points, falling back to synthetic data", zap.Int("input_points", len(points)))
		synthetic = true
		points = dataset.Synthetic(t.centroids, t.classifier, t.cfg.SyntheticPerLocality, t.cfg.Forest.Seed)
		examples, summary, err = synth.Synthesize(points)
	}
	if err != nil {
		return nil, eris.Wrap(err, "risk: synthesize training data")
	}

	trainX, trainY, testX, testY := split(examples, t.cfg.HoldoutFraction, t.cfg.Forest.Seed)

	f, err := forest.Fit(ctx, trainX, trainY, model.NumLabels, t.cfg.Forest)
	if err != nil {
		return nil, eris.Wrap(err, "risk: fit classifier")
	}
	acc, err := f.Accuracy(testX, testY)
	if err != nil {
		return nil, eris.Wrap(err, "risk: evaluate classifier")
	}

	importances := make(map[string]float64, len(model.FeatureColumns))
	for i, name := range model.FeatureColumns {
		importances[name] = f.Importances[i]
	}

	a := &Artifact{
		ID:        uuid.NewString(),
		CreatedAt: t.now().UTC(),
		Forest:    f,
		Metadata:  NewMetadata(summary.LocalityToID, model.FeatureColumns, t.classifier),
		Stats: TrainingStats{
			Points:          summary.Points,
			Examples:        summary.Examples,
			TrainRows:       len(trainX),
			HoldoutRows:     len(testX),
			HoldoutAccuracy: acc,
			TierPoints:      summary.TierPoints,
			ClassCounts:     summary.ClassCounts,
			Importances:     importances,
			Synthetic:       synthetic,
		},
	}

	tm, err := NewTierModel(a)
	if err != nil {
		return nil, err
	}
	a.Stats.DurationMS = t.now().Sub(start).Milliseconds()

	if t.store != nil {
		rec, err := a.Record()
		if err != nil {
			return nil, err
		}
		if err := t.store.SaveModel(ctx, rec); err != nil {
			return nil, eris.Wrap(err, "risk: save model")
		}
	}
	t.handle.Swap(tm)

	for _, tier := range t.classifier.Tiers() {
		counts := summary.ClassCounts[tier.Name]
		log.Info("tier class distribution",
			zap.String("tier", string(tier.Name)),
			zap.Int("points", summary.TierPoints[tier.Name]),
			zap.Int("low", counts[model.LabelLow]),
			zap.Int("medium", counts[model.LabelMedium]),
			zap.Int("high", counts[model.LabelHigh]),
		)
	}
	log.Info("model trained",
		zap.String("model_id", a.ID),
		zap.Int("examples", summary.Examples),
		zap.Int("holdout_rows", len(testX)),
		zap.Float64("holdout_accuracy", acc),
		zap.Strings("top_features", TopFeatures(importances, 5)),
		zap.Bool("synthetic", synthetic),
		zap.Int64("duration_ms", a.Stats.DurationMS),
	)
	return a, nil
}

// LoadActive installs the stored active model into the handle.
func (t *Trainer) LoadActive(ctx context.Context) (*Artifact, error) {
	if t.store == nil {
		return nil, eris.Wrap(store.ErrNotFound, "risk: no store configured")
	}
	rec, err := t.store.ActiveModel(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "risk: load active model")
	}
	a, err := ArtifactFromRecord(rec)
	if err != nil {
		return nil, err
	}
	tm, err := NewTierModel(a)
	if err != nil {
		return nil, err
	}
	t.handle.Swap(tm)
	zap.L().Info("active model loaded", zap.String("model_id", a.ID), zap.Time("created_at", a.CreatedAt))
	return a, nil
}

// TopFeatures returns the n feature names with the largest importance.
// Ties break by name.
func TopFeatures(importances map[string]float64, n int) []string {
	names := make([]string, 0, len(importances))
	for name := range importances {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importances[names[i]] != importances[names[j]] {
			return importances[names[i]] > importances[names[j]]
		}
		return names[i] < names[j]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}

// split shuffles examples with a seed and holds out a fraction for
// evaluation. At least one row always stays in the training set.
func split(examples []model.TrainingExample, fraction float64, seed uint64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	idx := make([]int, len(examples))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, uint64(len(examples))))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	holdout := 0
	if fraction > 0 && fraction < 1 {
		holdout = int(float64(len(examples)) * fraction)
	}
	if holdout >= len(examples) {
		holdout = len(examples) - 1
	}
	for n, i := range idx {
		row, label := examples[i].Vector(), examples[i].Label
		if n < holdout {
			testX = append(testX, row)
			testY = append(testY, label)
			continue
		}
		trainX = append(trainX, row)
		trainY = append(trainY, label)
	}
	return trainX, trainY, testX, testY
}
