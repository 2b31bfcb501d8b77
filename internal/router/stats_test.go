package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realgroute/riskroute/internal/model"
)

func TestSegmentTime(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 60, SegmentTime(30, 0, 12), 1e-9)
	assert.InDelta(t, 60/0.85, SegmentTime(30, 0, 22), 1e-9)
	assert.InDelta(t, 60/0.85, SegmentTime(30, 0, 6), 1e-9)
	assert.InDelta(t, 60/0.7, SegmentTime(30, 1, 12), 1e-9)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		avg, peak float64
		want      model.RouteType
	}{
		{0.3, 0.4, model.RouteVerySafe},
		{0.2, 0.45, model.RouteSafe},
		{0.5, 0.6, model.RouteSafe},
		{0.55, 0.6, model.RouteModerate},
		{0.7, 0.8, model.RouteModerate},
		{0.71, 0.75, model.RouteDangerous},
		{0.4, 0.81, model.RouteDangerous},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.avg, tt.peak), "avg=%v peak=%v", tt.avg, tt.peak)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	segs := []model.RouteSegment{
		{DistanceKM: 1, TimeMinutes: 2, Risk: 0.2},
		{DistanceKM: 2, TimeMinutes: 5, Risk: 0.6},
	}
	st := summarize(segs, 3)
	assert.InDelta(t, 3, st.TotalDistanceKM, 1e-12)
	assert.InDelta(t, 7, st.TotalTimeMinutes, 1e-12)
	assert.InDelta(t, 0.4, st.AvgRisk, 1e-12)
	assert.Equal(t, 0.6, st.MaxRisk)
	assert.Equal(t, 0.2, st.MinRisk)
	assert.InDelta(t, 0.04, st.RiskVariance, 1e-12)
	assert.InDelta(t, 0.6, st.SafetyScore, 1e-12)
	assert.Equal(t, model.RouteSafe, st.RouteType)

	one := summarize(segs[:1], 2)
	assert.Zero(t, one.RiskVariance)

	empty := summarize(nil, 1)
	assert.Equal(t, 0.5, empty.AvgRisk)
	assert.Equal(t, 0.5, empty.MaxRisk)
	assert.Equal(t, 0.5, empty.MinRisk)
	assert.Equal(t, model.RouteSafe, empty.RouteType)
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   model.RouteStats
		want []string
	}{
		{
			name: "very safe short",
			st:   model.RouteStats{AvgRisk: 0.2, MaxRisk: 0.3, TotalTimeMinutes: 5, RouteType: model.RouteVerySafe},
			want: []string{RecVerySafe, RecShort},
		},
		{
			name: "safe medium length",
			st:   model.RouteStats{AvgRisk: 0.4, MaxRisk: 0.5, TotalTimeMinutes: 20, RouteType: model.RouteSafe},
			want: []string{RecSafe},
		},
		{
			name: "dangerous long variable",
			st: model.RouteStats{
				AvgRisk: 0.75, MaxRisk: 0.9, RiskVariance: 0.12, TotalTimeMinutes: 60, RouteType: model.RouteDangerous,
			},
			want: []string{
				RecDangerous, RecHighRiskZones, RecVariable, RecLong,
				RecCompany, RecPhone, RecVehicle, RecLighting, RecDeserted,
			},
		},
		{
			name: "moderate",
			st:   model.RouteStats{AvgRisk: 0.55, MaxRisk: 0.75, TotalTimeMinutes: 30, RouteType: model.RouteModerate},
			want: []string{RecModerate, RecVehicle, RecLighting, RecDeserted},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommendations(tt.st))
		})
	}
}

func TestRecommendationsHighRiskAlwaysWarns(t *testing.T) {
	t.Parallel()

	for _, avg := range []float64{0.1, 0.5, 0.9} {
		st := model.RouteStats{AvgRisk: avg, MaxRisk: 0.85}
		st.RouteType = Classify(st.AvgRisk, st.MaxRisk)
		assert.Contains(t, Recommendations(st), RecHighRiskZones)
	}
}

func TestPreferenceWeights(t *testing.T) {
	t.Parallel()

	w, err := PreferenceWeights(PreferSafety, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, w.Safety, 1e-12)
	assert.InDelta(t, 0.075, w.Distance, 1e-12)
	assert.InDelta(t, 0.025, w.Time, 1e-12)

	w, err = PreferenceWeights(PreferSpeed, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, w.Safety, 1e-12)
	assert.InDelta(t, 0.6, w.Distance, 1e-12)
	assert.InDelta(t, 0.2, w.Time, 1e-12)

	_, err = PreferenceWeights("scenic", 0.5)
	assert.Error(t, err)
	_, err = PreferenceWeights(PreferSafety, 1.5)
	assert.Error(t, err)
}
