package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/config"
	"github.com/realgroute/riskroute/internal/dataset"
	"github.com/realgroute/riskroute/internal/forest"
	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
	"github.com/realgroute/riskroute/internal/router"
	"github.com/realgroute/riskroute/internal/store"
	"github.com/realgroute/riskroute/internal/zone"
)

// riskEnv holds the services shared by the subcommands.
type riskEnv struct {
	Config     *config.Config
	Store      store.ModelStore
	Classifier *zone.Classifier
	Centroids  *geo.Centroids
	Handle     *risk.Handle
	Chain      *risk.Chain
	Assessor   *risk.Assessor
	Router     *router.Router
	Trainer    *risk.Trainer
}

// Close releases resources held by the environment.
func (e *riskEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates c for mode, opens and migrates the store and wires
// the prediction services. No model is loaded; see ensureModel.
// Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, mode string) (*riskEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	classifier, err := initClassifier(c.Data)
	if err != nil {
		return nil, err
	}
	centroids, err := initCentroids(c.Data)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	handle := risk.NewHandle()
	chain := risk.NewChain(handle)
	assessor := risk.NewAssessor(chain, classifier, centroids)

	return &riskEnv{
		Config:     c,
		Store:      st,
		Classifier: classifier,
		Centroids:  centroids,
		Handle:     handle,
		Chain:      chain,
		Assessor:   assessor,
		Router:     router.New(assessor, router.FromConfig(c.Router)),
		Trainer:    risk.NewTrainer(classifier, centroids, st, handle, trainerConfig(c)),
	}, nil
}

func initClassifier(d config.DataConfig) (*zone.Classifier, error) {
	if d.TiersFile == "" {
		return zone.Default(), nil
	}
	c, err := zone.LoadYAML(d.TiersFile)
	if err != nil {
		return nil, eris.Wrap(err, "load tier table")
	}
	return c, nil
}

func initCentroids(d config.DataConfig) (*geo.Centroids, error) {
	if d.LocalitiesShapefile == "" {
		return geo.BogotaCentroids(), nil
	}
	c, err := geo.LoadShapefileCentroids(d.LocalitiesShapefile, d.LocalityField)
	if err != nil {
		return nil, eris.Wrap(err, "load locality shapefile")
	}
	return c, nil
}

func trainerConfig(c *config.Config) risk.TrainerConfig {
	p := forest.DefaultParams()
	p.Trees = c.Model.Trees
	p.MaxDepth = c.Model.MaxDepth
	p.MinSamplesSplit = c.Model.MinSamplesSplit
	p.MinSamplesLeaf = c.Model.MinSamplesLeaf
	p.Seed = c.Model.Seed
	p.Workers = c.Model.Workers
	return risk.TrainerConfig{
		Forest:               p,
		PointsPerTier:        c.Model.PointsPerTier,
		HoldoutFraction:      c.Model.HoldoutFraction,
		SyntheticPerLocality: c.Data.SyntheticPerLocality,
	}
}

// loadPoints reads the configured security points. An unset path yields
// no points, which makes the trainer use synthetic data.
func (e *riskEnv) loadPoints(ctx context.Context) ([]model.GeoPoint, error) {
	path := e.Config.Data.SecurityPoints
	if path == "" {
		return nil, nil
	}
	points, _, err := dataset.Load(ctx, path, e.Centroids)
	if err != nil {
		return nil, eris.Wrapf(err, "load security points %s", path)
	}
	return points, nil
}

// ensureModel loads the active model, training one when none is stored
// and train is set. Failures leave the handle empty so predictions use
// the heuristic.
func (e *riskEnv) ensureModel(ctx context.Context, train bool) {
	log := zap.L().With(zap.String("component", "startup"))

	_, err := e.Trainer.LoadActive(ctx)
	if err == nil {
		return
	}
	if !eris.Is(err, store.ErrNotFound) {
		log.Warn("could not load active model", zap.Error(err))
	}
	if !train {
		log.Warn("no trained model, using heuristic predictions")
		return
	}

	points, err := e.loadPoints(ctx)
	if err != nil {
		log.Warn("training dataset unavailable, using synthetic points", zap.Error(err))
	}
	if _, err := e.Trainer.Train(ctx, points); err != nil {
		log.Warn("training failed, using heuristic predictions", zap.Error(err))
	}
}
