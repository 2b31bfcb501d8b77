package model

import "math"

// GeoPoint is one security observation from the points dataset.
// RiskScore, Lighting and FootTraffic are NaN when the source row
// left them blank.
type GeoPoint struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Locality    string  `json:"locality"`
	RiskScore   float64 `json:"risk_score"`
	Lighting    float64 `json:"lighting_score"`
	FootTraffic float64 `json:"foot_traffic_score"`
}

// LightingOr returns the lighting score, or def when missing.
func (p GeoPoint) LightingOr(def float64) float64 {
	if math.IsNaN(p.Lighting) {
		return def
	}
	return p.Lighting
}

// FootTrafficOr returns the foot traffic score, or def when missing.
func (p GeoPoint) FootTrafficOr(def float64) float64 {
	if math.IsNaN(p.FootTraffic) {
		return def
	}
	return p.FootTraffic
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
