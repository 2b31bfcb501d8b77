package risk

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/features"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/zone"
)

// Class-probability blend that maps the three risk classes onto a
// continuous score. Fixed for comparability across call sites.
const (
	blendLow    = 0.1
	blendMedium = 0.5
	blendHigh   = 0.9
)

// TierModel predicts with a fitted forest using the tier table and
// locality ids persisted alongside it.
type TierModel struct {
	artifact   *Artifact
	classifier *zone.Classifier
	synth      *features.Synthesizer
}

// NewTierModel validates an artifact and prepares it for prediction.
func NewTierModel(a *Artifact) (*TierModel, error) {
	if a == nil || a.Forest == nil {
		return nil, eris.New("risk: artifact has no classifier")
	}
	if !slices.Equal(a.Metadata.FeatureColumns, model.FeatureColumns) {
		return nil, eris.Errorf("risk: artifact %s feature columns %v do not match %v",
			a.ID, a.Metadata.FeatureColumns, model.FeatureColumns)
	}
	if a.Forest.Features != len(model.FeatureColumns) || a.Forest.Classes != model.NumLabels {
		return nil, eris.Errorf("risk: artifact %s classifier shape %dx%d invalid", a.ID, a.Forest.Features, a.Forest.Classes)
	}
	classifier, err := zone.NewClassifier(a.Metadata.Tiers, a.Metadata.CrimeRates)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: artifact %s tier table", a.ID)
	}
	return &TierModel{
		artifact:   a,
		classifier: classifier,
		synth:      features.NewSynthesizer(classifier, features.Config{}),
	}, nil
}

// Name implements RiskModel.
func (m *TierModel) Name() string { return "tier_forest" }

// Artifact returns the underlying artifact.
func (m *TierModel) Artifact() *Artifact { return m.artifact }

// Predict implements RiskModel. Unknown localities use id 0.
func (m *TierModel) Predict(q Query) (float64, error) {
	key := zone.Normalize(q.Locality)
	id := m.artifact.Metadata.LocalityToID[key]
	row := m.synth.Query(key, q.Lat, q.Lng, q.Hour, q.Day, id)

	proba, err := m.artifact.Forest.PredictProba(row.Vector())
	if err != nil {
		return 0, eris.Wrap(err, "risk: predict")
	}
	score := proba[model.LabelLow]*blendLow + proba[model.LabelMedium]*blendMedium + proba[model.LabelHigh]*blendHigh
	return model.Clamp01(score), nil
}
