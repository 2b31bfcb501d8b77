package router

import (
	"slices"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
)

// Travel-time model.
const (
	baseSpeedKMH   = 30.0
	riskSpeedDrag  = 0.3
	nightSpeedRate = 0.85
)

// SegmentTime returns minutes to cover km at the given segment risk.
func SegmentTime(km, risk float64, hour int) float64 {
	speed := baseSpeedKMH * (1 - riskSpeedDrag*risk)
	if model.IsNightHour(hour) {
		speed *= nightSpeedRate
	}
	return km / speed * 60
}

func buildSegments(points []model.RoutePoint, hour int) []model.RouteSegment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]model.RouteSegment, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		km := geo.Haversine(geo.LatLng{Lat: a.Lat, Lng: a.Lng}, geo.LatLng{Lat: b.Lat, Lng: b.Lng})
		risk := (a.Risk + b.Risk) / 2
		segs = append(segs, model.RouteSegment{
			Start:       a,
			End:         b,
			DistanceKM:  km,
			TimeMinutes: SegmentTime(km, risk, hour),
			Risk:        risk,
		})
	}
	return segs
}

// summarize aggregates segments. Without segments the risk figures
// default to the neutral 0.5.
func summarize(segs []model.RouteSegment, waypoints int) model.RouteStats {
	st := model.RouteStats{Waypoints: waypoints}
	if len(segs) == 0 {
		st.AvgRisk, st.MaxRisk, st.MinRisk = neutralRisk, neutralRisk, neutralRisk
	} else {
		risks := make([]float64, len(segs))
		var sum float64
		for i, s := range segs {
			st.TotalDistanceKM += s.DistanceKM
			st.TotalTimeMinutes += s.TimeMinutes
			risks[i] = s.Risk
			sum += s.Risk
		}
		st.AvgRisk = sum / float64(len(risks))
		st.MaxRisk = slices.Max(risks)
		st.MinRisk = slices.Min(risks)
		if len(risks) > 1 {
			var ss float64
			for _, r := range risks {
				d := r - st.AvgRisk
				ss += d * d
			}
			st.RiskVariance = ss / float64(len(risks))
		}
	}
	st.SafetyScore = 1 - st.AvgRisk
	st.RouteType = Classify(st.AvgRisk, st.MaxRisk)
	return st
}

// Classify labels a route by its average and maximum segment risk.
func Classify(avg, peak float64) model.RouteType {
	switch {
	case avg <= 0.3 && peak <= 0.4:
		return model.RouteVerySafe
	case avg <= 0.5 && peak <= 0.6:
		return model.RouteSafe
	case avg <= 0.7 && peak <= 0.8:
		return model.RouteModerate
	default:
		return model.RouteDangerous
	}
}

// Recommendation texts.
const (
	RecVerySafe      = "Very safe route - excellent choice"
	RecSafe          = "Safe route - stay alert"
	RecModerate      = "Moderate route - avoid stopping"
	RecDangerous     = "Dangerous route - consider alternatives"
	RecHighRiskZones = "Crosses high-risk zones - do not stop"
	RecVariable      = "Risk varies along the route - watch for changes"
	RecLong          = "Long route - consider public transport"
	RecShort         = "Short route - consider walking during safe hours"
	RecCompany       = "Travel accompanied if possible"
	RecPhone         = "Keep your phone charged and emergency contacts at hand"
	RecVehicle       = "Prefer a private vehicle over public transport"
	RecLighting      = "Look for well-lit streets"
	RecDeserted      = "Avoid deserted streets"
)

// Recommendations returns the advice for a route in priority order,
// without duplicates.
func Recommendations(st model.RouteStats) []string {
	var out []string
	add := func(msgs ...string) {
		for _, m := range msgs {
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		}
	}

	switch st.RouteType {
	case model.RouteVerySafe:
		add(RecVerySafe)
	case model.RouteSafe:
		add(RecSafe)
	case model.RouteModerate:
		add(RecModerate)
	default:
		add(RecDangerous)
	}
	if st.MaxRisk > 0.8 {
		add(RecHighRiskZones)
	}
	if st.RiskVariance > 0.1 {
		add(RecVariable)
	}
	if st.TotalTimeMinutes > 45 {
		add(RecLong)
	} else if st.TotalTimeMinutes < 10 {
		add(RecShort)
	}
	if st.AvgRisk > 0.6 {
		add(RecCompany, RecPhone)
	}
	if st.MaxRisk > 0.7 {
		add(RecVehicle)
	}
	if st.AvgRisk > 0.5 {
		add(RecLighting, RecDeserted)
	}
	return out
}
