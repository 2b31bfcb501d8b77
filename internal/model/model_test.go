package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorMatchesFeatureColumns(t *testing.T) {
	t.Parallel()

	e := TrainingExample{Hour: 22, DayOfWeek: 5, Month: 7, IsWeekend: true, IsNight: true, LocalityID: 3, TierID: 2}
	v := e.Vector()
	assert.Len(t, v, len(FeatureColumns))
	assert.Equal(t, 22.0, v[0])
	assert.Equal(t, 1.0, v[3])
	assert.Equal(t, 1.0, v[4])
	assert.Equal(t, 3.0, v[7])
	assert.Equal(t, 2.0, v[12])
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLevelLow},
		{0.29, RiskLevelLow},
		{0.3, RiskLevelMedium},
		{0.69, RiskLevelMedium},
		{0.7, RiskLevelHigh},
		{1, RiskLevelHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %v", tt.score)
	}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.4, Clamp01(0.4))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

func TestDefaultsForMissingScores(t *testing.T) {
	t.Parallel()

	p := GeoPoint{Lighting: math.NaN(), FootTraffic: 0.2}
	assert.Equal(t, 0.7, p.LightingOr(0.7))
	assert.Equal(t, 0.2, p.FootTrafficOr(0.6))
}

func TestCalendarHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsWeekendDay(5))
	assert.True(t, IsWeekendDay(6))
	assert.False(t, IsWeekendDay(4))
	assert.True(t, IsNightHour(20))
	assert.True(t, IsNightHour(6))
	assert.False(t, IsNightHour(7))
	assert.False(t, IsNightHour(19))
}
