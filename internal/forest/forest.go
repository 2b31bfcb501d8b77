// Package forest implements a random-forest classifier over dense float
// features: bootstrapped CART trees split on weighted Gini impurity with
// per-split feature subsampling and optional balanced class weights.
package forest

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Params are the training hyperparameters.
type Params struct {
	Trees           int    `json:"trees"`
	MaxDepth        int    `json:"max_depth"`
	MinSamplesSplit int    `json:"min_samples_split"`
	MinSamplesLeaf  int    `json:"min_samples_leaf"`
	MaxFeatures     int    `json:"max_features"` // 0 selects floor(sqrt(features))
	Balanced        bool   `json:"balanced"`
	Seed            uint64 `json:"seed"`
	Workers         int    `json:"-"`
}

// DefaultParams mirrors the production model settings.
func DefaultParams() Params {
	return Params{
		Trees:           100,
		MaxDepth:        12,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Balanced:        true,
		Seed:            42,
		Workers:         4,
	}
}

// Forest is a fitted ensemble. It is immutable after Fit and safe for
// concurrent prediction.
type Forest struct {
	Classes     int       `json:"classes"`
	Features    int       `json:"features"`
	Params      Params    `json:"params"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"importances"`
}

// Fit trains a forest on rows X with labels y in [0, classes).
func Fit(ctx context.Context, X [][]float64, y []int, classes int, p Params) (*Forest, error) {
	if len(X) == 0 {
		return nil, eris.New("forest: empty training set")
	}
	if len(X) != len(y) {
		return nil, eris.Errorf("forest: %d rows but %d labels", len(X), len(y))
	}
	if classes < 2 {
		return nil, eris.Errorf("forest: need at least 2 classes, got %d", classes)
	}
	if p.Trees < 1 || p.MaxDepth < 1 {
		return nil, eris.New("forest: trees and max_depth must be >= 1")
	}
	features := len(X[0])
	for i, row := range X {
		if len(row) != features {
			return nil, eris.Errorf("forest: row %d has %d features, want %d", i, len(row), features)
		}
	}
	for i, label := range y {
		if label < 0 || label >= classes {
			return nil, eris.Errorf("forest: label %d at row %d out of range", label, i)
		}
	}

	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	mtry := p.MaxFeatures
	if mtry <= 0 || mtry > features {
		mtry = max(1, int(math.Sqrt(float64(features))))
	}
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	weights := classWeights(y, classes, p.Balanced)

	f := &Forest{
		Classes:  classes,
		Features: features,
		Params:   p,
		Trees:    make([]Tree, p.Trees),
	}
	treeImportances := make([][]float64, p.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < p.Trees; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "forest: fit cancelled")
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(i)))
			b := &builder{
				X:          X,
				y:          y,
				weights:    weights,
				classes:    classes,
				mtry:       mtry,
				params:     p,
				rng:        rng,
				importance: make([]float64, features),
			}
			f.Trees[i] = b.build(bootstrap(len(X), rng))
			treeImportances[i] = normalize(b.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.Importances = make([]float64, features)
	for _, imp := range treeImportances {
		for j, v := range imp {
			f.Importances[j] += v / float64(p.Trees)
		}
	}
	return f, nil
}

// PredictProba averages the leaf class distributions of every tree.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.Features {
		return nil, eris.Errorf("forest: got %d features, want %d", len(x), f.Features)
	}
	if len(f.Trees) == 0 {
		return nil, eris.New("forest: no trees")
	}
	out := make([]float64, f.Classes)
	for i := range f.Trees {
		for c, v := range f.Trees[i].leaf(x) {
			out[c] += v
		}
	}
	n := float64(len(f.Trees))
	for c := range out {
		out[c] /= n
	}
	return out, nil
}

// Predict returns the most probable class. Ties go to the lower class.
func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

// Accuracy is the fraction of rows predicted correctly.
func (f *Forest) Accuracy(X [][]float64, y []int) (float64, error) {
	if len(X) == 0 {
		return 0, nil
	}
	var correct int
	for i, row := range X {
		pred, err := f.Predict(row)
		if err != nil {
			return 0, err
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X)), nil
}

// classWeights returns n/(k*n_c) per class when balanced, else 1.
// Classes absent from y get weight 0.
func classWeights(y []int, classes int, balanced bool) []float64 {
	w := make([]float64, classes)
	if !balanced {
		for c := range w {
			w[c] = 1
		}
		return w
	}
	counts := make([]int, classes)
	for _, label := range y {
		counts[label]++
	}
	var present int
	for _, n := range counts {
		if n > 0 {
			present++
		}
	}
	for c, n := range counts {
		if n > 0 {
			w[c] = float64(len(y)) / (float64(present) * float64(n))
		}
	}
	return w
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
