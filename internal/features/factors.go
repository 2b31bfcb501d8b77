package features

import "github.com/realgroute/riskroute/internal/model"

// TimeFactor is the hour and weekday adjustment scaled by a tier's time
// sensitivity. Days run 0=Monday .. 6=Sunday.
func TimeFactor(hour, day int, sensitivity float64) float64 {
	var f float64
	switch {
	case hour >= 22 || hour <= 5:
		f += 0.4 * sensitivity
	case hour >= 18:
		f += 0.2 * sensitivity
	case hour >= 6 && hour <= 8:
		f += 0.1 * sensitivity
	default:
		f -= 0.1 * sensitivity
	}

	switch day {
	case 5, 6:
		f += 0.3 * sensitivity
	case 0, 4:
		f += 0.1 * sensitivity
	}
	return f
}

// CrimeFactor scales a locality's deviation from the 0.5 mean crime rate.
func CrimeFactor(rate, impact float64) float64 {
	return (rate - 0.5) * impact
}

// EnvironmentalFactor penalizes poor lighting and low foot traffic.
func EnvironmentalFactor(lighting, footTraffic float64) float64 {
	return ((1-lighting)*0.08 + (1-footTraffic)*0.06) * 0.4
}

// CombinedRisk applies the three factors multiplicatively and clamps.
func CombinedRisk(base, timeF, crimeF, envF float64) float64 {
	return model.Clamp01(base * (1 + timeF) * (1 + crimeF) * (1 + envF))
}
