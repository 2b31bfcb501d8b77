package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realgroute/riskroute/internal/config"
	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
	"github.com/realgroute/riskroute/internal/router"
	"github.com/realgroute/riskroute/internal/store"
	"github.com/realgroute/riskroute/internal/zone"
)

const testSecret = "test-secret"

type stubTrainer struct {
	calls  int
	points int
}

func (s *stubTrainer) Train(_ context.Context, points []model.GeoPoint) (*risk.Artifact, error) {
	s.calls++
	s.points = len(points)
	return &risk.Artifact{ID: "m1", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}, nil
}

func testDeps(t *testing.T) (Deps, *stubTrainer) {
	t.Helper()
	handle := risk.NewHandle()
	chain := risk.NewChain(handle)
	assessor := risk.NewAssessor(chain, zone.Default(), geo.BogotaCentroids())
	tr := &stubTrainer{}
	return Deps{
		Assessor: assessor,
		Router:   router.New(assessor, router.DefaultConfig()),
		Handle:   handle,
		Chain:    chain,
		Trainer:  tr,
		Points: func(context.Context) ([]model.GeoPoint, error) {
			return []model.GeoPoint{{Latitude: 4.6, Longitude: -74.1, Locality: "KENNEDY", RiskScore: 0.5}}, nil
		},
	}, tr
}

func testHandler(t *testing.T, cfg config.ServerConfig) (http.Handler, *stubTrainer) {
	t.Helper()
	deps, tr := testDeps(t)
	return New(deps, cfg).Handler(), tr
}

func do(t *testing.T, h http.Handler, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{})
	rr := do(t, h, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "UNINITIALIZED", body.ModelStatus)
	assert.Empty(t, body.ModelID)
	assert.Equal(t, 19, body.Localities)
	assert.Equal(t, []string{"tier_forest", "heuristic"}, body.Strategies)
}

func TestPredictRisk(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{})

	tests := []struct {
		name     string
		body     any
		status   int
		locality string
		risk     float64
	}{
		{"locality at night", map[string]any{"locality": "Ciudad Bolívar", "hour": 23, "day_of_week": 5}, http.StatusOK, "CIUDAD BOLIVAR", 0.5},
		{"defaults", map[string]any{"locality": "suba"}, http.StatusOK, "SUBA", 0.3},
		{"coordinates only", map[string]any{"lat": 4.7031, "lng": -74.0351, "hour": 10}, http.StatusOK, "USAQUEN", 0.3},
		{"unknown locality", map[string]any{"locality": "Atlantis"}, http.StatusBadRequest, "", 0},
		{"bad hour", map[string]any{"locality": "Suba", "hour": 30}, http.StatusBadRequest, "", 0},
		{"lat without lng", map[string]any{"lat": 4.6}, http.StatusBadRequest, "", 0},
		{"invalid json", "not json", http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/predict-risk", tt.body, nil)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, rr.Body.String(), "error")
				return
			}
			var got predictResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.locality, got.Locality)
			assert.InDelta(t, tt.risk, got.Risk, 1e-12)
			assert.Equal(t, "heuristic", got.Source)
		})
	}
}

func TestRiskMap(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{})

	rr := do(t, h, http.MethodGet, "/risk-map?hour=22&day_of_week=6", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		RiskMap   []risk.Assessment `json:"risk_map"`
		Hour      int               `json:"hour"`
		DayOfWeek int               `json:"day_of_week"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.RiskMap, 19)
	assert.Equal(t, 22, body.Hour)
	assert.Equal(t, 6, body.DayOfWeek)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/risk-map?hour=abc", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/risk-map?day_of_week=9", nil, nil).Code)
}

func TestSmartRoute(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{})

	body := map[string]any{
		"origin":      map[string]float64{"lat": 4.600, "lng": -74.10},
		"destination": map[string]float64{"lat": 4.627, "lng": -74.10},
		"hour":        14,
		"day_of_week": 2,
	}
	rr := do(t, h, http.MethodPost, "/smart-route", body, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var route model.Route
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &route))
	assert.Len(t, route.Points, 5)
	assert.Len(t, route.Segments, 4)
	assert.NotEmpty(t, route.Recommendations)
	assert.Equal(t, 14, route.Hour)

	rr = do(t, h, http.MethodPost, "/smart-route?format=geojson", body, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/geo+json", rr.Header().Get("Content-Type"))
	var fc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
}

func TestSmartRouteByLocality(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/smart-route", map[string]any{
		"origin_locality":      "Chapinero",
		"destination_locality": "Teusaquillo",
		"preference":           "safety",
		"risk_sensitivity":     1.0,
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var route model.Route
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &route))
	assert.Equal(t, "CHAPINERO", route.Origin.Locality)
	assert.Equal(t, "TEUSAQUILLO", route.Destination.Locality)
	assert.InDelta(t, 0.9, route.Weights.Safety, 1e-12)

	tests := []struct {
		name string
		body any
	}{
		{"unknown locality", map[string]any{"origin_locality": "Atlantis", "destination_locality": "Suba"}},
		{"missing endpoints", map[string]any{"origin_locality": "Suba"}},
		{"bad preference", map[string]any{"origin_locality": "Suba", "destination_locality": "Bosa", "preference": "scenic"}},
		{"invalid json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/smart-route", tt.body, nil).Code)
		})
	}
}

func TestModels(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/models", nil, nil).Code)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.SaveModel(context.Background(), store.ModelRecord{
		ID:         "m1",
		CreatedAt:  time.Now().UTC(),
		Classifier: []byte(`{}`),
	}))

	deps, _ := testDeps(t)
	deps.Store = st
	h = New(deps, config.ServerConfig{}).Handler()

	rr := do(t, h, http.MethodGet, "/models?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Models []store.ModelSummary `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Models, 1)
	assert.Equal(t, "m1", body.Models[0].ID)
	assert.True(t, body.Models[0].Active)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/models?limit=0", nil, nil).Code)
}

func signed(t *testing.T, method jwt.SigningMethod, secret string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestTrainRequiresToken(t *testing.T) {
	h, tr := testHandler(t, config.ServerConfig{JWTSecret: testSecret})
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, jwt.SigningMethodHS256, "other", future), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + signed(t, jwt.SigningMethodHS384, testSecret, future), http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, jwt.SigningMethodHS256, testSecret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"valid", "Bearer " + signed(t, jwt.SigningMethodHS256, testSecret, future), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.header != "" {
				header.Set("Authorization", tt.header)
			}
			rr := do(t, h, http.MethodPost, "/train", nil, header)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, 1, tr.points)
}

func TestTrainOpenWithoutSecret(t *testing.T) {
	h, tr := testHandler(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/train", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "m1", body["model_id"])
	assert.Equal(t, 1, tr.calls)
}

func TestRateLimit(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{RateLimitRPS: 0.001, RateLimitBurst: 2})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/health", nil, nil).Code)
}

func TestIPLimiterSweepsIdleClients(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, 1)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	assert.Len(t, l.limiters, 2)

	clock = clock.Add(limiterTTL / 2)
	l.get("10.0.0.2")
	assert.Len(t, l.limiters, 2, "no sweep before ttl")

	clock = clock.Add(limiterTTL / 2)
	l.get("10.0.0.3")
	assert.Len(t, l.limiters, 2)
	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
	assert.Contains(t, l.limiters, "10.0.0.3")
}

func TestIPLimiterSweepResetsBucket(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(0.001, 1)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	assert.True(t, l.get("10.0.0.1").Allow())
	assert.False(t, l.get("10.0.0.1").Allow())

	clock = clock.Add(2 * limiterTTL)
	l.get("10.0.0.9")
	assert.NotContains(t, l.limiters, "10.0.0.1")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := testHandler(t, config.ServerConfig{AllowedOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/predict-risk", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
}
