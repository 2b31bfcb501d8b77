// Package router computes risk-aware walking routes. A straight line
// between origin and destination is split into interpolated targets and
// each target is nudged toward the lowest-scoring point of a small radial
// grid around it.
package router

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/realgroute/riskroute/internal/config"
	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
)

// ErrInvalidRequest is returned for malformed route requests.
var ErrInvalidRequest = eris.New("router: invalid request")

// neutralRisk substitutes for waypoints that could not be assessed.
const neutralRisk = 0.5

// Scorer assesses a coordinate. risk.Assessor implements it.
type Scorer interface {
	AssessPoint(p geo.LatLng, hour, day int) (risk.Assessment, error)
}

// Config tunes the grid search.
type Config struct {
	Weights         model.Weights
	SearchRadiusDeg float64
	Bearings        int
	RadiusFractions []float64
	Workers         int
	Bounds          geo.Bounds
}

// DefaultConfig returns the production search settings.
func DefaultConfig() Config {
	return Config{
		Weights:         model.Weights{Safety: 0.60, Distance: 0.30, Time: 0.10},
		SearchRadiusDeg: 0.008,
		Bearings:        16,
		RadiusFractions: []float64{0.3, 0.6, 1.0},
		Workers:         4,
		Bounds:          geo.BogotaBounds(),
	}
}

// FromConfig converts the application configuration.
func FromConfig(c config.RouterConfig) Config {
	return Config{
		Weights:         model.Weights{Safety: c.SafetyWeight, Distance: c.DistanceWeight, Time: c.TimeWeight},
		SearchRadiusDeg: c.SearchRadiusDeg,
		Bearings:        c.Bearings,
		RadiusFractions: c.RadiusFractions,
		Workers:         c.Workers,
		Bounds:          geo.NewBounds(c.Bounds.North, c.Bounds.South, c.Bounds.East, c.Bounds.West),
	}
}

// Request describes a route between two coordinates. Day runs
// 0=Monday .. 6=Sunday. Weights overrides the configured weights; a
// non-empty Preference overrides both.
type Request struct {
	Origin          geo.LatLng
	Destination     geo.LatLng
	Hour            int
	Day             int
	Weights         *model.Weights
	Preference      Preference
	RiskSensitivity *float64
}

// Router computes routes. It is safe for concurrent use.
type Router struct {
	scorer Scorer
	cfg    Config
}

// New returns a router.
func New(scorer Scorer, cfg Config) *Router {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Router{scorer: scorer, cfg: cfg}
}

// Config returns the router settings.
func (r *Router) Config() Config { return r.cfg }

// WaypointCount returns the number of intermediate waypoints for a direct
// distance in km.
func WaypointCount(km float64) int {
	switch {
	case km < 5:
		return 3
	case km < 15:
		return 5
	default:
		return 7
	}
}

// Route computes a route. Assessment failures never abort the route; the
// affected waypoint gets a neutral risk and an unknown tier.
func (r *Router) Route(ctx context.Context, req Request) (*model.Route, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	w, err := r.weights(req)
	if err != nil {
		return nil, err
	}

	direct := geo.Haversine(req.Origin, req.Destination)
	n := WaypointCount(direct)
	log := zap.L().With(zap.String("component", "router"))
	log.Debug("computing route",
		zap.Float64("direct_km", direct),
		zap.Int("waypoints", n),
		zap.Int("hour", req.Hour),
		zap.Int("day", req.Day),
	)

	points := make([]model.RoutePoint, 0, n+2)
	points = append(points, r.point(req.Origin, req.Hour, req.Day))
	for _, target := range geo.Interpolate(req.Origin, req.Destination, n) {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "router: route cancelled")
		}
		best, err := r.search(ctx, target, req.Hour, req.Day, w)
		if err != nil {
			return nil, err
		}
		points = append(points, r.point(best, req.Hour, req.Day))
	}
	points = append(points, r.point(req.Destination, req.Hour, req.Day))

	segments := buildSegments(points, req.Hour)
	stats := summarize(segments, len(points))
	route := &model.Route{
		Points:          points,
		Segments:        segments,
		Stats:           stats,
		Recommendations: Recommendations(stats),
		Origin:          endpoint(points[0]),
		Destination:     endpoint(points[len(points)-1]),
		Weights:         w,
		Hour:            req.Hour,
		DayOfWeek:       req.Day,
	}
	log.Info("route computed",
		zap.Float64("distance_km", stats.TotalDistanceKM),
		zap.Float64("avg_risk", stats.AvgRisk),
		zap.String("route_type", string(stats.RouteType)),
	)
	return route, nil
}

// candidate is a grid point with its distance to the search target.
type candidate struct {
	p  geo.LatLng
	km float64
}

// candidates returns the target followed by every in-bounds grid point,
// bearings outermost and radii innermost.
func (r *Router) candidates(target geo.LatLng) []candidate {
	out := make([]candidate, 0, 1+r.cfg.Bearings*len(r.cfg.RadiusFractions))
	out = append(out, candidate{p: target})
	for i := 0; i < r.cfg.Bearings; i++ {
		theta := 2 * math.Pi * float64(i) / float64(r.cfg.Bearings)
		for _, f := range r.cfg.RadiusFractions {
			p := geo.Offset(target, r.cfg.SearchRadiusDeg*f, theta)
			if !r.cfg.Bounds.Contains(p) {
				continue
			}
			out = append(out, candidate{p: p, km: geo.Haversine(p, target)})
		}
	}
	return out
}

// search scores every candidate and returns the first strict minimum.
// Scores are computed concurrently; the selection scans in candidate order.
func (r *Router) search(ctx context.Context, target geo.LatLng, hour, day int, w model.Weights) (geo.LatLng, error) {
	cands := r.candidates(target)
	risks := make([]float64, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, c := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "router: search cancelled")
			}
			risks[i] = r.risk(c.p, hour, day)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return geo.LatLng{}, err
	}
	return cands[pick(cands, risks, w)].p, nil
}

// pick returns the index of the first candidate with the lowest score
// safety·risk + distance·(km/10).
func pick(cands []candidate, risks []float64, w model.Weights) int {
	best := 0
	bestScore := score(risks[0], cands[0].km, w)
	for i := 1; i < len(cands); i++ {
		if s := score(risks[i], cands[i].km, w); s < bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

func score(risk, km float64, w model.Weights) float64 {
	return w.Safety*risk + w.Distance*(km/10)
}

func (r *Router) risk(p geo.LatLng, hour, day int) float64 {
	a, err := r.scorer.AssessPoint(p, hour, day)
	if err != nil {
		zap.L().Warn("router: waypoint assessment failed, using neutral risk",
			zap.Float64("lat", p.Lat),
			zap.Float64("lng", p.Lng),
			zap.Error(err),
		)
		return neutralRisk
	}
	return a.Risk
}

func (r *Router) point(p geo.LatLng, hour, day int) model.RoutePoint {
	a, err := r.scorer.AssessPoint(p, hour, day)
	if err != nil {
		zap.L().Warn("router: waypoint assessment failed, using neutral risk",
			zap.Float64("lat", p.Lat),
			zap.Float64("lng", p.Lng),
			zap.Error(err),
		)
		return model.RoutePoint{Lat: p.Lat, Lng: p.Lng, Risk: neutralRisk, Tier: model.Unknown, Locality: model.Unknown}
	}
	return model.RoutePoint{Lat: p.Lat, Lng: p.Lng, Risk: a.Risk, Tier: string(a.Tier), Locality: a.Locality}
}

func (r *Router) weights(req Request) (model.Weights, error) {
	if req.Preference != "" {
		s := 0.5
		if req.RiskSensitivity != nil {
			s = *req.RiskSensitivity
		}
		return PreferenceWeights(req.Preference, s)
	}
	if req.Weights != nil {
		w := *req.Weights
		if w.Safety < 0 || w.Distance < 0 || w.Time < 0 {
			return model.Weights{}, eris.Wrap(ErrInvalidRequest, "weights must be non-negative")
		}
		return w, nil
	}
	return r.cfg.Weights, nil
}

func validate(req Request) error {
	if !req.Origin.Valid() || !req.Destination.Valid() {
		return eris.Wrap(ErrInvalidRequest, "coordinates out of range")
	}
	if req.Hour < 0 || req.Hour > 23 {
		return eris.Wrapf(ErrInvalidRequest, "hour %d out of [0, 23]", req.Hour)
	}
	if req.Day < 0 || req.Day > 6 {
		return eris.Wrapf(ErrInvalidRequest, "day %d out of [0, 6]", req.Day)
	}
	return nil
}

func endpoint(p model.RoutePoint) model.Endpoint {
	return model.Endpoint{Locality: p.Locality, Tier: p.Tier, Risk: p.Risk, Lat: p.Lat, Lng: p.Lng}
}
