// Package geo provides the spatial primitives used for risk lookup and
// waypoint routing: great-circle distance, the serviceable bounding box,
// locality centroids and route geometry encoding.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusKM is the mean Earth radius used for distances.
const EarthRadiusKM = 6371.0

// DegreesPerKM approximates one kilometer in degrees of latitude.
const DegreesPerKM = 1.0 / 111.0

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between two coordinates in km.
func Haversine(a, b LatLng) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lng)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return pa.Distance(pb).Radians() * EarthRadiusKM
}

// Offset moves a coordinate by d degrees along bearing theta (radians),
// with cos(theta) applied to latitude and sin(theta) to longitude.
func Offset(p LatLng, d, theta float64) LatLng {
	return LatLng{
		Lat: p.Lat + d*math.Cos(theta),
		Lng: p.Lng + d*math.Sin(theta),
	}
}

// Interpolate returns n points evenly spaced strictly between a and b,
// the i-th at fraction i/(n+1).
func Interpolate(a, b LatLng, n int) []LatLng {
	if n <= 0 {
		return nil
	}
	out := make([]LatLng, n)
	for i := 1; i <= n; i++ {
		f := float64(i) / float64(n+1)
		out[i-1] = LatLng{
			Lat: a.Lat + f*(b.Lat-a.Lat),
			Lng: a.Lng + f*(b.Lng-a.Lng),
		}
	}
	return out
}

// Valid reports whether the coordinate is a finite WGS84 position.
func (p LatLng) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
