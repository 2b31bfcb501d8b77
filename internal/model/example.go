package model

// Risk class labels produced by the feature synthesizer.
const (
	LabelLow    = 0
	LabelMedium = 1
	LabelHigh   = 2

	NumLabels = 3
)

// FeatureColumns is the persisted column order of TrainingExample.Vector.
var FeatureColumns = []string{
	"hour",
	"day_of_week",
	"month",
	"is_weekend",
	"is_night",
	"latitude",
	"longitude",
	"locality_id",
	"lighting_score",
	"foot_traffic_score",
	"locality_crime_rate",
	"crime_density",
	"zone_tier_id",
	"time_sensitivity",
	"normalized_base_risk",
}

// TrainingExample is one synthesized row fed to the classifier.
type TrainingExample struct {
	Hour               int     `json:"hour"`
	DayOfWeek          int     `json:"day_of_week"`
	Month              int     `json:"month"`
	IsWeekend          bool    `json:"is_weekend"`
	IsNight            bool    `json:"is_night"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	LocalityID         int     `json:"locality_id"`
	Lighting           float64 `json:"lighting_score"`
	FootTraffic        float64 `json:"foot_traffic_score"`
	CrimeRate          float64 `json:"locality_crime_rate"`
	CrimeDensity       float64 `json:"crime_density"`
	TierID             int     `json:"zone_tier_id"`
	TimeSensitivity    float64 `json:"time_sensitivity"`
	NormalizedBaseRisk float64 `json:"normalized_base_risk"`
	Label              int     `json:"label"`
}

// Vector returns the features in FeatureColumns order.
func (e TrainingExample) Vector() []float64 {
	return []float64{
		float64(e.Hour),
		float64(e.DayOfWeek),
		float64(e.Month),
		boolFloat(e.IsWeekend),
		boolFloat(e.IsNight),
		e.Latitude,
		e.Longitude,
		float64(e.LocalityID),
		e.Lighting,
		e.FootTraffic,
		e.CrimeRate,
		e.CrimeDensity,
		float64(e.TierID),
		e.TimeSensitivity,
		e.NormalizedBaseRisk,
	}
}

// IsWeekendDay reports whether day (0=Monday .. 6=Sunday) falls on a weekend.
func IsWeekendDay(day int) bool { return day == 5 || day == 6 }

// IsNightHour reports whether hour counts as night for features and travel speed.
func IsNightHour(hour int) bool { return hour >= 20 || hour <= 6 }

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
