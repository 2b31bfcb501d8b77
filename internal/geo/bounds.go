package geo

import "github.com/twpayne/go-geom"

// Bogotá serviceable area.
const (
	BogotaNorth = 4.8353
	BogotaSouth = 4.3774
	BogotaEast  = -73.9387
	BogotaWest  = -74.2227
)

// Bounds is an axis-aligned serviceable area. X is longitude, Y latitude.
type Bounds struct {
	b *geom.Bounds
}

// NewBounds builds a box from its edges in degrees.
func NewBounds(north, south, east, west float64) Bounds {
	return Bounds{b: geom.NewBounds(geom.XY).Set(west, south, east, north)}
}

// BogotaBounds returns the default service area.
func BogotaBounds() Bounds {
	return NewBounds(BogotaNorth, BogotaSouth, BogotaEast, BogotaWest)
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p LatLng) bool {
	return b.b.OverlapsPoint(geom.XY, geom.Coord{p.Lng, p.Lat})
}

// North returns the northern edge.
func (b Bounds) North() float64 { return b.b.Max(1) }

// South returns the southern edge.
func (b Bounds) South() float64 { return b.b.Min(1) }

// East returns the eastern edge.
func (b Bounds) East() float64 { return b.b.Max(0) }

// West returns the western edge.
func (b Bounds) West() float64 { return b.b.Min(0) }
