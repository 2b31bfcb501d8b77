// Package api exposes risk prediction and routing over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/realgroute/riskroute/internal/config"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
	"github.com/realgroute/riskroute/internal/router"
	"github.com/realgroute/riskroute/internal/store"
)

// Trainer fits and activates a model.
type Trainer interface {
	Train(ctx context.Context, points []model.GeoPoint) (*risk.Artifact, error)
}

// PointSource loads the training dataset.
type PointSource func(ctx context.Context) ([]model.GeoPoint, error)

// Deps are the services the API serves. Store, Trainer and Points may be
// nil; the endpoints that need them then answer 503.
type Deps struct {
	Assessor *risk.Assessor
	Router   *router.Router
	Handle   *risk.Handle
	Chain    *risk.Chain
	Store    store.ModelStore
	Trainer  Trainer
	Points   PointSource
}

// Server is the HTTP front end.
type Server struct {
	deps Deps
	cfg  config.ServerConfig
}

// New returns a server.
func New(deps Deps, cfg config.ServerConfig) *Server {
	return &Server{deps: deps, cfg: cfg}
}

// Handler builds the routed handler with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimitRPS > 0 {
		r.Use(newIPLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst).middleware)
	}
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Post("/predict-risk", s.handlePredict)
	r.Get("/risk-map", s.handleRiskMap)
	r.Post("/smart-route", s.handleRoute)
	r.Get("/models", s.handleModels)
	r.With(requireToken(s.cfg.JWTSecret)).Post("/train", s.handleTrain)
	return r
}
