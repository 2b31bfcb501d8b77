package router

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
)

// Preference selects a weight profile.
type Preference string

const (
	PreferSafety Preference = "safety"
	PreferSpeed  Preference = "speed"
)

// PreferenceWeights maps a preference and a risk sensitivity in [0, 1] to
// weights. Safety takes 0.5+0.4s (safety) or 0.2+0.4s (speed); the rest
// is split 3:1 between distance and time.
func PreferenceWeights(p Preference, sensitivity float64) (model.Weights, error) {
	if sensitivity < 0 || sensitivity > 1 {
		return model.Weights{}, eris.Wrapf(ErrInvalidRequest, "risk sensitivity %v out of [0, 1]", sensitivity)
	}
	var safety float64
	switch p {
	case PreferSafety:
		safety = 0.5 + 0.4*sensitivity
	case PreferSpeed:
		safety = 0.2 + 0.4*sensitivity
	default:
		return model.Weights{}, eris.Wrapf(ErrInvalidRequest, "unknown preference %q", p)
	}
	rest := 1 - safety
	return model.Weights{Safety: safety, Distance: rest * 0.75, Time: rest * 0.25}, nil
}

// Localities resolves locality names to centroids.
type Localities interface {
	AssessLocality(name string, hour, day int) (risk.Assessment, error)
}

// RouteBetweenLocalities routes between two locality centroids. Unknown
// names fail with risk.ErrUnknownLocality.
func (r *Router) RouteBetweenLocalities(ctx context.Context, loc Localities, origin, destination string, req Request) (*model.Route, error) {
	o, err := loc.AssessLocality(origin, req.Hour, req.Day)
	if err != nil {
		return nil, eris.Wrapf(err, "router: origin %q", origin)
	}
	d, err := loc.AssessLocality(destination, req.Hour, req.Day)
	if err != nil {
		return nil, eris.Wrapf(err, "router: destination %q", destination)
	}
	req.Origin = geo.LatLng{Lat: o.Lat, Lng: o.Lng}
	req.Destination = geo.LatLng{Lat: d.Lat, Lng: d.Lng}
	return r.Route(ctx, req)
}
