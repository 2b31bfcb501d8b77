package geo

import (
	"math"
	"sort"

	"github.com/realgroute/riskroute/internal/zone"
)

// DefaultLocality is returned by Nearest when the table is empty.
const DefaultLocality = "CHAPINERO"

// Centroid is the representative point of a locality.
type Centroid struct {
	Name string `json:"municipio"`
	LatLng
}

// Centroids is a locality centroid table keyed by normalized name.
type Centroids struct {
	byName map[string]Centroid
	order  []string
}

// NewCentroids builds a table. Names are normalized; later duplicates win.
func NewCentroids(list []Centroid) *Centroids {
	c := &Centroids{byName: make(map[string]Centroid, len(list))}
	for _, ce := range list {
		ce.Name = zone.Normalize(ce.Name)
		if ce.Name == "" {
			continue
		}
		if _, seen := c.byName[ce.Name]; !seen {
			c.order = append(c.order, ce.Name)
		}
		c.byName[ce.Name] = ce
	}
	sort.Strings(c.order)
	return c
}

// BogotaCentroids returns the built-in table of the 19 urban localities.
func BogotaCentroids() *Centroids {
	return NewCentroids([]Centroid{
		{"USAQUEN", LatLng{4.7030, -74.0350}},
		{"CHAPINERO", LatLng{4.6590, -74.0630}},
		{"SANTA FE", LatLng{4.6080, -74.0760}},
		{"SAN CRISTOBAL", LatLng{4.5570, -74.0820}},
		{"USME", LatLng{4.4790, -74.1260}},
		{"TUNJUELITO", LatLng{4.5720, -74.1320}},
		{"BOSA", LatLng{4.6180, -74.1770}},
		{"KENNEDY", LatLng{4.6280, -74.1460}},
		{"FONTIBON", LatLng{4.6680, -74.1460}},
		{"ENGATIVA", LatLng{4.6900, -74.1180}},
		{"SUBA", LatLng{4.7560, -74.0840}},
		{"BARRIOS UNIDOS", LatLng{4.6670, -74.0840}},
		{"TEUSAQUILLO", LatLng{4.6310, -74.0920}},
		{"LOS MARTIRES", LatLng{4.6040, -74.0900}},
		{"ANTONIO NARINO", LatLng{4.5940, -74.0990}},
		{"PUENTE ARANDA", LatLng{4.6160, -74.1140}},
		{"LA CANDELARIA", LatLng{4.5970, -74.0750}},
		{"RAFAEL URIBE URIBE", LatLng{4.5580, -74.1060}},
		{"CIUDAD BOLIVAR", LatLng{4.4940, -74.1430}},
	})
}

// Lookup returns the centroid of a locality by name.
func (c *Centroids) Lookup(name string) (Centroid, bool) {
	ce, ok := c.byName[zone.Normalize(name)]
	return ce, ok
}

// Nearest returns the name of the locality whose centroid is closest to p.
// Ties go to the alphabetically first name.
func (c *Centroids) Nearest(p LatLng) string {
	best := DefaultLocality
	bestDist := math.Inf(1)
	for _, name := range c.order {
		d := Haversine(p, c.byName[name].LatLng)
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// All returns every centroid in name order.
func (c *Centroids) All() []Centroid {
	out := make([]Centroid, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Len returns the number of localities.
func (c *Centroids) Len() int { return len(c.order) }
