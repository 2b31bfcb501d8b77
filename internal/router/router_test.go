package router

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
	"github.com/realgroute/riskroute/internal/zone"
)

// funcScorer scores a coordinate with fn.
type funcScorer struct {
	fn    func(p geo.LatLng) (float64, error)
	calls atomic.Int64
}

func (s *funcScorer) AssessPoint(p geo.LatLng, _, _ int) (risk.Assessment, error) {
	s.calls.Add(1)
	r, err := s.fn(p)
	if err != nil {
		return risk.Assessment{}, err
	}
	return risk.Assessment{Risk: r, Tier: zone.Medium, Locality: "KENNEDY", Lat: p.Lat, Lng: p.Lng}, nil
}

func constant(r float64) *funcScorer {
	return &funcScorer{fn: func(geo.LatLng) (float64, error) { return r, nil }}
}

func TestWaypointCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		km   float64
		want int
	}{
		{0, 3}, {4.99, 3}, {5, 5}, {14.99, 5}, {15, 7}, {40, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WaypointCount(tt.km), "km=%v", tt.km)
	}
}

func TestRouteWaypointBands(t *testing.T) {
	t.Parallel()

	r := New(constant(0.2), DefaultConfig())
	tests := []struct {
		name   string
		origin geo.LatLng
		dest   geo.LatLng
		points int
	}{
		{"3 km", geo.LatLng{Lat: 4.600, Lng: -74.10}, geo.LatLng{Lat: 4.627, Lng: -74.10}, 5},
		{"10 km", geo.LatLng{Lat: 4.600, Lng: -74.10}, geo.LatLng{Lat: 4.690, Lng: -74.10}, 7},
		{"20 km", geo.LatLng{Lat: 4.500, Lng: -74.10}, geo.LatLng{Lat: 4.680, Lng: -74.10}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := r.Route(context.Background(), Request{Origin: tt.origin, Destination: tt.dest, Hour: 12, Day: 1})
			require.NoError(t, err)
			assert.Len(t, route.Points, tt.points)
			assert.Len(t, route.Segments, tt.points-1)
			assert.Equal(t, tt.points, route.Stats.Waypoints)
			assert.Equal(t, tt.origin.Lat, route.Points[0].Lat)
			assert.Equal(t, tt.dest.Lat, route.Points[len(route.Points)-1].Lat)
		})
	}
}

func TestRouteTotalDistanceIsSumOfSegments(t *testing.T) {
	t.Parallel()

	s := &funcScorer{fn: func(p geo.LatLng) (float64, error) {
		// Riskier toward the west.
		return model.Clamp01((-74.05 - p.Lng) * 5), nil
	}}
	route, err := New(s, DefaultConfig()).Route(context.Background(), Request{
		Origin:      geo.LatLng{Lat: 4.55, Lng: -74.15},
		Destination: geo.LatLng{Lat: 4.70, Lng: -74.05},
		Hour:        21,
		Day:         4,
	})
	require.NoError(t, err)

	var sum, minutes float64
	for i := 0; i+1 < len(route.Points); i++ {
		a, b := route.Points[i], route.Points[i+1]
		sum += geo.Haversine(geo.LatLng{Lat: a.Lat, Lng: a.Lng}, geo.LatLng{Lat: b.Lat, Lng: b.Lng})
		minutes += route.Segments[i].TimeMinutes
		assert.InDelta(t, (a.Risk+b.Risk)/2, route.Segments[i].Risk, 1e-12)
	}
	assert.InDelta(t, sum, route.Stats.TotalDistanceKM, 1e-9)
	assert.InDelta(t, minutes, route.Stats.TotalTimeMinutes, 1e-9)
	assert.InDelta(t, 1-route.Stats.AvgRisk, route.Stats.SafetyScore, 1e-12)
}

func TestRouteSearchPrefersLowerRisk(t *testing.T) {
	t.Parallel()

	// Risk falls off to the north of each target.
	s := &funcScorer{fn: func(p geo.LatLng) (float64, error) {
		return model.Clamp01(0.9 - (p.Lat-4.60)*20), nil
	}}
	origin := geo.LatLng{Lat: 4.60, Lng: -74.12}
	dest := geo.LatLng{Lat: 4.60, Lng: -74.10}
	route, err := New(s, DefaultConfig()).Route(context.Background(), Request{Origin: origin, Destination: dest, Hour: 12, Day: 1})
	require.NoError(t, err)

	for _, p := range route.Points[1 : len(route.Points)-1] {
		assert.Greater(t, p.Lat, origin.Lat)
	}
}

func TestRouteDeterministicAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	noise := func(p geo.LatLng) (float64, error) {
		v := math.Sin(p.Lat*12.9898+p.Lng*78.233) * 43758.5453
		return v - math.Floor(v), nil
	}
	req := Request{Origin: geo.LatLng{Lat: 4.60, Lng: -74.12}, Destination: geo.LatLng{Lat: 4.66, Lng: -74.06}, Hour: 9, Day: 2}

	serial := DefaultConfig()
	serial.Workers = 1
	first, err := New(&funcScorer{fn: noise}, serial).Route(context.Background(), req)
	require.NoError(t, err)

	parallel := DefaultConfig()
	parallel.Workers = 8
	second, err := New(&funcScorer{fn: noise}, parallel).Route(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRouteAbsorbsAssessmentFailures(t *testing.T) {
	t.Parallel()

	s := &funcScorer{fn: func(geo.LatLng) (float64, error) { return 0, errors.New("classifier not ready") }}
	route, err := New(s, DefaultConfig()).Route(context.Background(), Request{
		Origin:      geo.LatLng{Lat: 4.60, Lng: -74.10},
		Destination: geo.LatLng{Lat: 4.62, Lng: -74.10},
		Hour:        12,
		Day:         1,
	})
	require.NoError(t, err)
	for _, p := range route.Points {
		assert.Equal(t, 0.5, p.Risk)
		assert.Equal(t, model.Unknown, p.Tier)
		assert.Equal(t, model.Unknown, p.Locality)
	}
	assert.Equal(t, 0.5, route.Stats.AvgRisk)
	assert.Equal(t, model.Unknown, route.Origin.Locality)
	// Target plus 48 grid points per waypoint, plus one lookup per route point.
	assert.Equal(t, int64(3*49+5), s.calls.Load())
}

func TestRouteInvalidRequest(t *testing.T) {
	t.Parallel()

	r := New(constant(0.1), DefaultConfig())
	ok := geo.LatLng{Lat: 4.6, Lng: -74.1}
	bad := -0.1
	tests := []struct {
		name string
		req  Request
	}{
		{"bad origin", Request{Origin: geo.LatLng{Lat: 95, Lng: 0}, Destination: ok}},
		{"bad hour", Request{Origin: ok, Destination: ok, Hour: 24}},
		{"bad day", Request{Origin: ok, Destination: ok, Day: -1}},
		{"negative weight", Request{Origin: ok, Destination: ok, Weights: &model.Weights{Safety: -1}}},
		{"unknown preference", Request{Origin: ok, Destination: ok, Preference: "scenic"}},
		{"bad sensitivity", Request{Origin: ok, Destination: ok, Preference: PreferSafety, RiskSensitivity: &bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Route(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidRequest))
		})
	}
}

func TestRouteCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(constant(0.1), DefaultConfig()).Route(ctx, Request{
		Origin:      geo.LatLng{Lat: 4.60, Lng: -74.10},
		Destination: geo.LatLng{Lat: 4.62, Lng: -74.10},
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, context.Canceled))
}

func TestRouteWeightsNotNormalized(t *testing.T) {
	t.Parallel()

	r := New(constant(0.2), DefaultConfig())
	w := model.Weights{Safety: 2, Distance: 3, Time: 4}
	route, err := r.Route(context.Background(), Request{
		Origin:      geo.LatLng{Lat: 4.60, Lng: -74.10},
		Destination: geo.LatLng{Lat: 4.62, Lng: -74.10},
		Weights:     &w,
	})
	require.NoError(t, err)
	assert.Equal(t, w, route.Weights)

	route, err = r.Route(context.Background(), Request{
		Origin:      geo.LatLng{Lat: 4.60, Lng: -74.10},
		Destination: geo.LatLng{Lat: 4.62, Lng: -74.10},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Weights, route.Weights)
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	r := New(constant(0), DefaultConfig())
	target := geo.LatLng{Lat: 4.6, Lng: -74.1}
	c := r.candidates(target)
	require.Len(t, c, 49)
	assert.Equal(t, target, c[0].p)
	assert.Zero(t, c[0].km)
	// Bearing 0 moves north first, smallest radius first.
	assert.InDelta(t, 4.6+0.008*0.3, c[1].p.Lat, 1e-12)
	assert.InDelta(t, -74.1, c[1].p.Lng, 1e-12)

	// Near the northern edge the outward candidates are discarded.
	edge := r.candidates(geo.LatLng{Lat: geo.BogotaNorth - 0.001, Lng: -74.1})
	assert.Less(t, len(edge), 49)
	for _, cand := range edge {
		assert.True(t, DefaultConfig().Bounds.Contains(cand.p))
	}
}

func TestPickFirstStrictMinimum(t *testing.T) {
	t.Parallel()

	w := model.Weights{Safety: 1}
	cands := []candidate{{km: 0}, {km: 1}, {km: 2}}
	assert.Equal(t, 0, pick(cands, []float64{0.2, 0.2, 0.2}, w))
	assert.Equal(t, 1, pick(cands, []float64{0.5, 0.1, 0.1}, w))
}

func TestPickSafetyWeightMonotone(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.IntN(49)
		cands := make([]candidate, n)
		risks := make([]float64, n)
		for i := range cands {
			cands[i].km = rng.Float64() * 0.9
			risks[i] = rng.Float64()
		}
		prev := 2.0
		for ws := 0.0; ws <= 1.0001; ws += 0.05 {
			got := risks[pick(cands, risks, model.Weights{Safety: ws, Distance: 0.3})]
			assert.LessOrEqual(t, got, prev, "trial %d safety %v", trial, ws)
			prev = got
		}
	}
}

func TestRouteBetweenLocalities(t *testing.T) {
	t.Parallel()

	assessor := risk.NewAssessor(risk.NewChain(risk.NewHandle()), zone.Default(), geo.BogotaCentroids())
	r := New(assessor, DefaultConfig())

	route, err := r.RouteBetweenLocalities(context.Background(), assessor, "Chapinero", "Usaquén", Request{Hour: 23, Day: 5})
	require.NoError(t, err)
	assert.Equal(t, "CHAPINERO", route.Origin.Locality)
	assert.Equal(t, "USAQUEN", route.Destination.Locality)
	assert.InDelta(t, 4.659, route.Origin.Lat, 1e-9)
	for _, p := range route.Points {
		assert.InDelta(t, 0.5, p.Risk, 1e-12)
	}

	_, err = r.RouteBetweenLocalities(context.Background(), assessor, "Atlantis", "Suba", Request{Hour: 12})
	require.Error(t, err)
	assert.True(t, eris.Is(err, risk.ErrUnknownLocality))
}
