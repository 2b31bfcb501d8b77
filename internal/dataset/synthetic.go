package dataset

import (
	"math/rand/v2"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/zone"
)

// jitterDeg bounds how far a synthetic point strays from its centroid.
const jitterDeg = 0.01

// Synthetic generates perLocality points around every centroid. Risk
// scores follow the locality crime rate with uniform noise; lighting and
// foot traffic are drawn uniformly. The output is deterministic for a seed.
func Synthetic(centroids *geo.Centroids, classifier *zone.Classifier, perLocality int, seed uint64) []model.GeoPoint {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	all := centroids.All()
	points := make([]model.GeoPoint, 0, len(all)*perLocality)

	for _, c := range all {
		rate := classifier.CrimeRate(c.Name)
		for i := 0; i < perLocality; i++ {
			points = append(points, model.GeoPoint{
				Latitude:    c.Lat + (rng.Float64()*2-1)*jitterDeg,
				Longitude:   c.Lng + (rng.Float64()*2-1)*jitterDeg,
				Locality:    c.Name,
				RiskScore:   model.Clamp01(rate + (rng.Float64()-0.5)*0.3),
				Lighting:    0.3 + rng.Float64()*0.7,
				FootTraffic: 0.2 + rng.Float64()*0.8,
			})
		}
	}
	return points
}
