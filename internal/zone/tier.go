// Package zone classifies city localities into risk tiers and holds the
// per-tier parameters the feature synthesizer draws on.
package zone

// TierName identifies a risk tier.
type TierName string

// Tier names in id order.
const (
	Safe   TierName = "SAFE"
	Medium TierName = "MEDIUM"
	High   TierName = "HIGH"
)

// ID returns the numeric tier id used as a model feature.
func (n TierName) ID() int {
	switch n {
	case Safe:
		return 0
	case High:
		return 2
	default:
		return 1
	}
}

// Scenario is one (hour, day-of-week) combination a tier is sampled at.
// Days run 0=Monday .. 6=Sunday.
type Scenario struct {
	Hour int `yaml:"hour" json:"hour"`
	Day  int `yaml:"day" json:"day"`
}

// Smoothing is the affine transform score*Scale + Offset applied to a
// combined risk before labeling.
type Smoothing struct {
	Scale  float64 `yaml:"scale" json:"scale"`
	Offset float64 `yaml:"offset" json:"offset"`
}

// Apply transforms v.
func (s Smoothing) Apply(v float64) float64 { return v*s.Scale + s.Offset }

// Tier carries the behavioral parameters of a risk tier.
type Tier struct {
	Name               TierName   `yaml:"name" json:"name"`
	Localities         []string   `yaml:"localities" json:"localities"`
	BaseRiskMin        float64    `yaml:"base_risk_min" json:"base_risk_min"`
	BaseRiskMax        float64    `yaml:"base_risk_max" json:"base_risk_max"`
	TimeSensitivity    float64    `yaml:"time_sensitivity" json:"time_sensitivity"`
	CrimeImpact        float64    `yaml:"crime_impact" json:"crime_impact"`
	TargetDistribution [3]float64 `yaml:"target_distribution" json:"target_distribution"`
	LowThreshold       float64    `yaml:"low_threshold" json:"low_threshold"`
	MediumThreshold    float64    `yaml:"medium_threshold" json:"medium_threshold"`
	Smoothing          Smoothing  `yaml:"smoothing" json:"smoothing"`
	Scenarios          []Scenario `yaml:"scenarios" json:"scenarios"`
}

// NormalizeBase maps a raw risk score into the tier's base-risk band.
func (t Tier) NormalizeBase(raw float64) float64 {
	return t.BaseRiskMin + raw*(t.BaseRiskMax-t.BaseRiskMin)
}

// Label categorizes a smoothed score with the tier thresholds.
func (t Tier) Label(score float64) int {
	switch {
	case score < t.LowThreshold:
		return 0
	case score < t.MediumThreshold:
		return 1
	default:
		return 2
	}
}

// DefaultCrimeRate is used for localities missing from the crime table.
const DefaultCrimeRate = 0.5

// Crime-rate cut-offs for localities not listed in any tier.
const (
	safeCrimeCeiling = 0.3
	highCrimeFloor   = 0.6
)

// DefaultTiers returns the Bogotá tier table.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Name:               Safe,
			Localities:         []string{"USAQUEN", "CHAPINERO", "SUBA", "TEUSAQUILLO", "BARRIOS UNIDOS"},
			BaseRiskMin:        0.10,
			BaseRiskMax:        0.35,
			TimeSensitivity:    0.3,
			CrimeImpact:        0.2,
			TargetDistribution: [3]float64{0.65, 0.30, 0.05},
			LowThreshold:       0.45,
			MediumThreshold:    0.75,
			Smoothing:          Smoothing{Scale: 0.7, Offset: 0.05},
			Scenarios: []Scenario{
				{8, 1}, {10, 1}, {12, 1}, {14, 2}, {16, 3}, {18, 4}, {20, 5}, {22, 6},
			},
		},
		{
			Name:               Medium,
			Localities:         []string{"KENNEDY", "ENGATIVA", "FONTIBON", "ANTONIO NARINO", "PUENTE ARANDA", "TUNJUELITO"},
			BaseRiskMin:        0.25,
			BaseRiskMax:        0.55,
			TimeSensitivity:    0.6,
			CrimeImpact:        0.4,
			TargetDistribution: [3]float64{0.35, 0.45, 0.20},
			LowThreshold:       0.40,
			MediumThreshold:    0.70,
			Smoothing:          Smoothing{Scale: 0.75, Offset: 0.1},
			Scenarios: []Scenario{
				{9, 1}, {12, 2}, {15, 3}, {18, 4}, {20, 5}, {22, 5}, {0, 6},
			},
		},
		{
			Name: High,
			Localities: []string{
				"CIUDAD BOLIVAR", "SAN CRISTOBAL", "USME", "RAFAEL URIBE URIBE",
				"BOSA", "LOS MARTIRES", "LA CANDELARIA", "SANTA FE",
			},
			BaseRiskMin:        0.45,
			BaseRiskMax:        0.75,
			TimeSensitivity:    0.9,
			CrimeImpact:        0.6,
			TargetDistribution: [3]float64{0.15, 0.35, 0.50},
			LowThreshold:       0.35,
			MediumThreshold:    0.65,
			Smoothing:          Smoothing{Scale: 0.8, Offset: 0.15},
			Scenarios: []Scenario{
				{10, 1}, {14, 2}, {18, 4}, {20, 5}, {22, 5}, {0, 6}, {2, 6}, {23, 6}, {1, 0},
			},
		},
	}
}

// DefaultCrimeRates returns the historical crime rate per locality.
func DefaultCrimeRates() map[string]float64 {
	return map[string]float64{
		"USAQUEN":            0.05,
		"CHAPINERO":          0.10,
		"SUBA":               0.08,
		"TEUSAQUILLO":        0.12,
		"BARRIOS UNIDOS":     0.18,
		"KENNEDY":            0.35,
		"ENGATIVA":           0.25,
		"FONTIBON":           0.30,
		"ANTONIO NARINO":     0.40,
		"PUENTE ARANDA":      0.45,
		"TUNJUELITO":         0.50,
		"CIUDAD BOLIVAR":     0.85,
		"SAN CRISTOBAL":      0.75,
		"USME":               0.65,
		"RAFAEL URIBE URIBE": 0.60,
		"BOSA":               0.55,
		"LOS MARTIRES":       0.70,
		"LA CANDELARIA":      0.65,
		"SANTA FE":           0.60,
	}
}
