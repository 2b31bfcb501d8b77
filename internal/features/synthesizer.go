// Package features turns security observation points into labeled
// training examples and builds query-time feature vectors.
package features

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/zone"
)

// ErrNoTrainingData is returned when no point survives validation.
var ErrNoTrainingData = eris.New("features: no usable training points")

// Neutral environmental scores used when a point or query has none.
const (
	DefaultLighting    = 0.7
	DefaultFootTraffic = 0.6
)

// TrainingMonth is the fixed month feature. The source data carries no
// dates, so every example is stamped with the same month.
const TrainingMonth = 7

// Config controls sampling.
type Config struct {
	PointsPerTier int
	Seed          uint64
}

// Summary describes a synthesis run.
type Summary struct {
	Points       int                      `json:"points"`
	Skipped      int                      `json:"skipped"`
	Examples     int                      `json:"examples"`
	TierPoints   map[zone.TierName]int    `json:"tier_points"`
	ClassCounts  map[zone.TierName][3]int `json:"class_counts"`
	LocalityToID map[string]int           `json:"-"`
}

// Synthesizer expands points into per-scenario training examples.
type Synthesizer struct {
	classifier *zone.Classifier
	cfg        Config
}

// NewSynthesizer returns a synthesizer. A non-positive PointsPerTier
// disables the per-tier cap.
func NewSynthesizer(classifier *zone.Classifier, cfg Config) *Synthesizer {
	return &Synthesizer{classifier: classifier, cfg: cfg}
}

// Synthesize samples at most PointsPerTier points from each tier and emits
// one labeled example per tier scenario. Points with a missing risk score
// or coordinate are skipped. Locality ids are assigned over all valid
// points in name order starting at 1; 0 is reserved for unknown names.
func (s *Synthesizer) Synthesize(points []model.GeoPoint) ([]model.TrainingExample, Summary, error) {
	summary := Summary{
		TierPoints:  make(map[zone.TierName]int),
		ClassCounts: make(map[zone.TierName][3]int),
	}

	byTier := make(map[zone.TierName][]model.GeoPoint)
	names := make(map[string]struct{})
	for _, p := range points {
		if math.IsNaN(p.RiskScore) || math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
			summary.Skipped++
			continue
		}
		p.Locality = zone.Normalize(p.Locality)
		tier := s.classifier.TierOf(p.Locality)
		byTier[tier.Name] = append(byTier[tier.Name], p)
		names[p.Locality] = struct{}{}
		summary.Points++
	}
	if summary.Points == 0 {
		return nil, summary, ErrNoTrainingData
	}
	summary.LocalityToID = InternLocalities(names)

	var examples []model.TrainingExample
	for _, tier := range s.classifier.Tiers() {
		sampled := s.sample(byTier[tier.Name], tier.Name.ID())
		summary.TierPoints[tier.Name] = len(sampled)

		counts := summary.ClassCounts[tier.Name]
		for _, p := range sampled {
			for _, sc := range tier.Scenarios {
				ex := s.example(p, tier, sc, summary.LocalityToID[p.Locality])
				ex.Label = s.label(p, tier, sc)
				counts[ex.Label]++
				examples = append(examples, ex)
			}
		}
		summary.ClassCounts[tier.Name] = counts
	}
	summary.Examples = len(examples)
	return examples, summary, nil
}

// Query builds the feature row for a prediction. The normalized base risk
// is the midpoint of the tier band and environmental scores are neutral.
func (s *Synthesizer) Query(locality string, lat, lng float64, hour, day, localityID int) model.TrainingExample {
	tier := s.classifier.TierOf(locality)
	p := model.GeoPoint{
		Latitude:    lat,
		Longitude:   lng,
		Locality:    zone.Normalize(locality),
		RiskScore:   0.5,
		Lighting:    DefaultLighting,
		FootTraffic: DefaultFootTraffic,
	}
	return s.example(p, tier, zone.Scenario{Hour: hour, Day: day}, localityID)
}

func (s *Synthesizer) example(p model.GeoPoint, tier zone.Tier, sc zone.Scenario, localityID int) model.TrainingExample {
	rate := s.classifier.CrimeRate(p.Locality)
	return model.TrainingExample{
		Hour:               sc.Hour,
		DayOfWeek:          sc.Day,
		Month:              TrainingMonth,
		IsWeekend:          model.IsWeekendDay(sc.Day),
		IsNight:            model.IsNightHour(sc.Hour),
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		LocalityID:         localityID,
		Lighting:           p.LightingOr(DefaultLighting),
		FootTraffic:        p.FootTrafficOr(DefaultFootTraffic),
		CrimeRate:          rate,
		CrimeDensity:       rate * 100,
		TierID:             tier.Name.ID(),
		TimeSensitivity:    tier.TimeSensitivity,
		NormalizedBaseRisk: tier.NormalizeBase(p.RiskScore),
	}
}

func (s *Synthesizer) label(p model.GeoPoint, tier zone.Tier, sc zone.Scenario) int {
	base := tier.NormalizeBase(p.RiskScore)
	risk := CombinedRisk(
		base,
		TimeFactor(sc.Hour, sc.Day, tier.TimeSensitivity),
		CrimeFactor(s.classifier.CrimeRate(p.Locality), tier.CrimeImpact),
		EnvironmentalFactor(p.LightingOr(DefaultLighting), p.FootTrafficOr(DefaultFootTraffic)),
	)
	return tier.Label(tier.Smoothing.Apply(risk))
}

// sample draws a seeded subset of at most PointsPerTier points.
func (s *Synthesizer) sample(points []model.GeoPoint, stream int) []model.GeoPoint {
	if s.cfg.PointsPerTier <= 0 || len(points) <= s.cfg.PointsPerTier {
		return points
	}
	out := make([]model.GeoPoint, len(points))
	copy(out, points)
	rng := rand.New(rand.NewPCG(s.cfg.Seed, uint64(stream)))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:s.cfg.PointsPerTier]
}

// InternLocalities assigns ids 1..n to names in sorted order.
func InternLocalities(names map[string]struct{}) map[string]int {
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	ids := make(map[string]int, len(sorted))
	for i, n := range sorted {
		ids[n] = i + 1
	}
	return ids
}
