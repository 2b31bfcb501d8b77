package model

// RiskLevel is the coarse label attached to a risk score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// LevelFor maps a score onto Low (<0.3), Medium (<0.7) or High.
func LevelFor(score float64) RiskLevel {
	switch {
	case score < 0.3:
		return RiskLevelLow
	case score < 0.7:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// RouteType labels a route by its average and peak risk.
type RouteType string

const (
	RouteVerySafe  RouteType = "Very Safe"
	RouteSafe      RouteType = "Safe"
	RouteModerate  RouteType = "Moderate"
	RouteDangerous RouteType = "Dangerous"
)

// Unknown is used for tier and locality when a waypoint could not be assessed.
const Unknown = "unknown"

// Weights are the grid-search scoring weights. They are not normalized.
type Weights struct {
	Safety   float64 `json:"safety"`
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
}

// RoutePoint is one vertex of a computed route.
type RoutePoint struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Risk     float64 `json:"risk_score"`
	Tier     string  `json:"zone_type"`
	Locality string  `json:"municipio"`
}

// RouteSegment joins two consecutive route points.
type RouteSegment struct {
	Start       RoutePoint `json:"start"`
	End         RoutePoint `json:"end"`
	DistanceKM  float64    `json:"distance_km"`
	TimeMinutes float64    `json:"time_minutes"`
	Risk        float64    `json:"risk_score"`
}

// RouteStats aggregates segment figures.
type RouteStats struct {
	TotalDistanceKM  float64   `json:"total_distance_km"`
	TotalTimeMinutes float64   `json:"total_time_minutes"`
	AvgRisk          float64   `json:"avg_risk"`
	MaxRisk          float64   `json:"max_risk"`
	MinRisk          float64   `json:"min_risk"`
	RiskVariance     float64   `json:"risk_variance"`
	SafetyScore      float64   `json:"safety_score"`
	RouteType        RouteType `json:"route_type"`
	Waypoints        int       `json:"waypoints"`
}

// Endpoint summarizes an origin or destination.
type Endpoint struct {
	Locality string  `json:"municipio"`
	Tier     string  `json:"zone_type"`
	Risk     float64 `json:"risk_score"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Route is the full routing result.
type Route struct {
	Points          []RoutePoint   `json:"route_points"`
	Segments        []RouteSegment `json:"segments"`
	Stats           RouteStats     `json:"statistics"`
	Recommendations []string       `json:"recommendations"`
	Origin          Endpoint       `json:"origin_info"`
	Destination     Endpoint       `json:"destination_info"`
	Weights         Weights        `json:"weights"`
	Hour            int            `json:"hour"`
	DayOfWeek       int            `json:"day_of_week"`
}
