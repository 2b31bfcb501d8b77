package risk

import (
	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/zone"
)

// Assessment is a scored location.
type Assessment struct {
	Risk     float64         `json:"risk_score"`
	Level    model.RiskLevel `json:"risk_level"`
	Tier     zone.TierName   `json:"zone_tier"`
	Locality string          `json:"locality"`
	Source   string          `json:"source"`
	Lat      float64         `json:"lat"`
	Lng      float64         `json:"lng"`
}

// Request asks for the risk of a locality, a coordinate, or both.
// Point is optional.
type Request struct {
	Locality string
	Point    *geo.LatLng
	Hour     int
	Day      int
}

// Assessor resolves locations to localities and scores them through a Chain.
type Assessor struct {
	chain      *Chain
	classifier *zone.Classifier
	centroids  *geo.Centroids
}

// NewAssessor returns an assessor.
func NewAssessor(chain *Chain, classifier *zone.Classifier, centroids *geo.Centroids) *Assessor {
	return &Assessor{chain: chain, classifier: classifier, centroids: centroids}
}

// Assess scores a request. A known locality name wins; an unknown name
// is scored as given when coordinates are present and rejected with
// ErrUnknownLocality otherwise. Without a name the nearest centroid's
// locality is used.
func (a *Assessor) Assess(req Request) (Assessment, error) {
	name := zone.Normalize(req.Locality)
	if req.Point != nil && !req.Point.Valid() {
		return Assessment{}, eris.Wrapf(ErrInvalidQuery, "coordinate (%v, %v) out of range", req.Point.Lat, req.Point.Lng)
	}

	var p geo.LatLng
	switch {
	case name == "" && req.Point == nil:
		return Assessment{}, eris.Wrap(ErrUnknownLocality, "locality or coordinates required")
	case name == "":
		p = *req.Point
		name = a.centroids.Nearest(p)
	default:
		c, ok := a.centroids.Lookup(name)
		switch {
		case req.Point != nil:
			p = *req.Point
		case ok:
			p = c.LatLng
		default:
			return Assessment{}, eris.Wrapf(ErrUnknownLocality, "%q", req.Locality)
		}
	}
	return a.score(Query{Locality: name, Lat: p.Lat, Lng: p.Lng, Hour: req.Hour, Day: req.Day})
}

// AssessPoint scores a coordinate using the locality of the nearest centroid.
func (a *Assessor) AssessPoint(p geo.LatLng, hour, day int) (Assessment, error) {
	return a.Assess(Request{Point: &p, Hour: hour, Day: day})
}

// AssessLocality scores a locality at its centroid.
func (a *Assessor) AssessLocality(name string, hour, day int) (Assessment, error) {
	return a.Assess(Request{Locality: name, Hour: hour, Day: day})
}

// RiskMap scores every locality centroid, in name order.
func (a *Assessor) RiskMap(hour, day int) ([]Assessment, error) {
	all := a.centroids.All()
	out := make([]Assessment, 0, len(all))
	for _, c := range all {
		as, err := a.score(Query{Locality: c.Name, Lat: c.Lat, Lng: c.Lng, Hour: hour, Day: day})
		if err != nil {
			return nil, err
		}
		out = append(out, as)
	}
	return out, nil
}

// Centroids returns the locality table used for resolution.
func (a *Assessor) Centroids() *geo.Centroids { return a.centroids }

func (a *Assessor) score(q Query) (Assessment, error) {
	if err := q.Validate(); err != nil {
		return Assessment{}, err
	}
	risk, source := a.chain.Predict(q)
	return Assessment{
		Risk:     risk,
		Level:    model.LevelFor(risk),
		Tier:     a.classifier.TierOf(q.Locality).Name,
		Locality: q.Locality,
		Source:   source,
		Lat:      q.Lat,
		Lng:      q.Lng,
	}, nil
}
