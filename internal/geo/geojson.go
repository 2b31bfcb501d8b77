package geo

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/realgroute/riskroute/internal/model"
)

// RouteFeatures renders a route as a GeoJSON feature collection: one
// LineString for the whole path carrying the statistics, one LineString
// per segment and one Point per route vertex.
func RouteFeatures(r model.Route) (*geojson.FeatureCollection, error) {
	if len(r.Points) < 2 {
		return nil, eris.New("geo: route needs at least two points")
	}

	coords := make([]geom.Coord, len(r.Points))
	for i, p := range r.Points {
		coords[i] = geom.Coord{p.Lng, p.Lat}
	}
	path, err := geom.NewLineString(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, eris.Wrap(err, "geo: build route line")
	}

	fc := &geojson.FeatureCollection{BBox: geom.NewBounds(geom.XY).Extend(path)}
	fc.Features = append(fc.Features, &geojson.Feature{
		ID:       "route",
		Geometry: path,
		Properties: map[string]interface{}{
			"kind":               "route",
			"route_type":         string(r.Stats.RouteType),
			"total_distance_km":  r.Stats.TotalDistanceKM,
			"total_time_minutes": r.Stats.TotalTimeMinutes,
			"avg_risk":           r.Stats.AvgRisk,
			"max_risk":           r.Stats.MaxRisk,
			"safety_score":       r.Stats.SafetyScore,
			"recommendations":    r.Recommendations,
		},
	})

	for i, s := range r.Segments {
		line := geom.NewLineStringFlat(geom.XY, []float64{s.Start.Lng, s.Start.Lat, s.End.Lng, s.End.Lat})
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("segment-%d", i),
			Geometry: line,
			Properties: map[string]interface{}{
				"kind":         "segment",
				"risk_score":   s.Risk,
				"distance_km":  s.DistanceKM,
				"time_minutes": s.TimeMinutes,
				"risk_level":   string(model.LevelFor(s.Risk)),
			},
		})
	}

	for i, p := range r.Points {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("point-%d", i),
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}),
			Properties: map[string]interface{}{
				"kind":       "waypoint",
				"risk_score": p.Risk,
				"zone_type":  p.Tier,
				"municipio":  p.Locality,
			},
		})
	}

	return fc, nil
}

// MarshalRoute encodes a route as GeoJSON bytes.
func MarshalRoute(r model.Route) ([]byte, error) {
	fc, err := RouteFeatures(r)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal route geojson")
	}
	return out, nil
}
