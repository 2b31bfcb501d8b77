package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
	"github.com/realgroute/riskroute/internal/router"
)

// Query-time defaults when a request omits the hour or weekday.
const (
	defaultHour = 12
	defaultDay  = 1
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps domain errors onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, risk.ErrUnknownLocality),
		eris.Is(err, risk.ErrInvalidQuery),
		eris.Is(err, router.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("api: request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

type healthResponse struct {
	Status      string   `json:"status"`
	ModelStatus string   `json:"model_status"`
	ModelID     string   `json:"model_id,omitempty"`
	Localities  int      `json:"localities"`
	Strategies  []string `json:"strategies"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		ModelStatus: string(s.deps.Handle.Status()),
		Localities:  s.deps.Assessor.Centroids().Len(),
		Strategies:  s.deps.Chain.Strategies(),
	}
	if m := s.deps.Handle.Current(); m != nil {
		resp.ModelID = m.Artifact().ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type predictRequest struct {
	Locality  string   `json:"locality"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Hour      *int     `json:"hour"`
	DayOfWeek *int     `json:"day_of_week"`
}

type predictResponse struct {
	risk.Assessment
	Hour      int `json:"hour"`
	DayOfWeek int `json:"day_of_week"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeError(w, http.StatusBadRequest, "lat and lng must be given together")
		return
	}

	ar := risk.Request{
		Locality: req.Locality,
		Hour:     orDefault(req.Hour, defaultHour),
		Day:      orDefault(req.DayOfWeek, defaultDay),
	}
	if req.Lat != nil {
		ar.Point = &geo.LatLng{Lat: *req.Lat, Lng: *req.Lng}
	}
	a, err := s.deps.Assessor.Assess(ar)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Assessment: a, Hour: ar.Hour, DayOfWeek: ar.Day})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(risk.ErrInvalidQuery, "%s must be an integer", name)
	}
	return n, nil
}

func (s *Server) handleRiskMap(w http.ResponseWriter, r *http.Request) {
	hour, err := intParam(r, "hour", defaultHour)
	if err != nil {
		writeFailure(w, err)
		return
	}
	day, err := intParam(r, "day_of_week", defaultDay)
	if err != nil {
		writeFailure(w, err)
		return
	}
	m, err := s.deps.Assessor.RiskMap(hour, day)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"risk_map": m, "hour": hour, "day_of_week": day})
}

type routeRequest struct {
	Origin              *geo.LatLng    `json:"origin"`
	Destination         *geo.LatLng    `json:"destination"`
	OriginLocality      string         `json:"origin_locality"`
	DestinationLocality string         `json:"destination_locality"`
	Hour                *int           `json:"hour"`
	DayOfWeek           *int           `json:"day_of_week"`
	Weights             *model.Weights `json:"weights"`
	Preference          string         `json:"preference"`
	RiskSensitivity     *float64       `json:"risk_sensitivity"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rr := router.Request{
		Hour:            orDefault(req.Hour, defaultHour),
		Day:             orDefault(req.DayOfWeek, defaultDay),
		Weights:         req.Weights,
		Preference:      router.Preference(req.Preference),
		RiskSensitivity: req.RiskSensitivity,
	}

	var (
		route *model.Route
		err   error
	)
	switch {
	case req.Origin != nil && req.Destination != nil:
		rr.Origin, rr.Destination = *req.Origin, *req.Destination
		route, err = s.deps.Router.Route(r.Context(), rr)
	case req.OriginLocality != "" && req.DestinationLocality != "":
		route, err = s.deps.Router.RouteBetweenLocalities(r.Context(), s.deps.Assessor, req.OriginLocality, req.DestinationLocality, rr)
	default:
		writeError(w, http.StatusBadRequest, "origin and destination coordinates or localities are required")
		return
	}
	if err != nil {
		writeFailure(w, err)
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		fc, err := geo.RouteFeatures(*route)
		if err != nil {
			writeFailure(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			zap.L().Debug("api: write geojson", zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "model store not configured")
		return
	}
	limit, err := intParam(r, "limit", 20)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	models, err := s.deps.Store.ListModels(r.Context(), limit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if s.deps.Trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "training not configured")
		return
	}
	var points []model.GeoPoint
	if s.deps.Points != nil {
		p, err := s.deps.Points(r.Context())
		if err != nil {
			// The trainer falls back to synthetic points.
			zap.L().Warn("api: training dataset unavailable", zap.Error(err))
		}
		points = p
	}
	a, err := s.deps.Trainer.Train(r.Context(), points)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model_id":   a.ID,
		"created_at": a.CreatedAt,
		"stats":      a.Stats,
	})
}
