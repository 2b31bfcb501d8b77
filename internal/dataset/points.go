package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/zone"
)

// ErrNoPoints is returned when a dataset yields no usable rows.
var ErrNoPoints = eris.New("dataset: no usable points")

// Column aliases accepted in the header row, keyed by canonical name.
var headerAliases = map[string][]string{
	"latitude":     {"latitude", "lat", "latitud"},
	"longitude":    {"longitude", "lng", "lon", "longitud"},
	"locality":     {"localidad", "locality", "municipio"},
	"risk_score":   {"risk_score", "riesgo"},
	"lighting":     {"iluminacion_score", "lighting_score", "lighting"},
	"foot_traffic": {"personas_score", "foot_traffic_score", "foot_traffic"},
}

// Report summarizes a load.
type Report struct {
	Rows             int `json:"rows"`
	Loaded           int `json:"loaded"`
	Skipped          int `json:"skipped"`
	LocalityInferred int `json:"locality_inferred"`
}

// Load reads points from a .csv or .xlsx file. Rows without a usable
// coordinate are skipped. Rows with no locality get the nearest centroid's
// locality. Missing risk, lighting or foot-traffic cells are kept as NaN.
func Load(ctx context.Context, path string, centroids *geo.Centroids) ([]model.GeoPoint, Report, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, Report{}, eris.Wrapf(err, "dataset: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		rowCh, errCh := streamCSV(ctx, f)
		for row := range rowCh {
			rows = append(rows, row)
		}
		if err := <-errCh; err != nil {
			return nil, Report{}, err
		}
	case ".xlsx":
		var err error
		rows, err = readXLSX(path)
		if err != nil {
			return nil, Report{}, err
		}
	default:
		return nil, Report{}, eris.Errorf("dataset: unsupported file type %q", filepath.Ext(path))
	}

	points, report, err := parseRows(rows, centroids)
	if err != nil {
		return nil, report, eris.Wrapf(err, "dataset: %s", path)
	}
	zap.L().Info("dataset: loaded security points",
		zap.String("path", path),
		zap.Int("rows", report.Rows),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("locality_inferred", report.LocalityInferred),
	)
	return points, report, nil
}

func parseRows(rows [][]string, centroids *geo.Centroids) ([]model.GeoPoint, Report, error) {
	var report Report
	if len(rows) == 0 {
		return nil, report, ErrNoPoints
	}

	idx := columnIndex(rows[0])
	for _, required := range []string{"latitude", "longitude"} {
		if _, ok := idx[required]; !ok {
			return nil, report, eris.Errorf("dataset: missing %s column", required)
		}
	}

	points := make([]model.GeoPoint, 0, len(rows)-1)
	for _, row := range rows[1:] {
		report.Rows++
		lat, okLat := cellFloat(row, idx, "latitude")
		lng, okLng := cellFloat(row, idx, "longitude")
		p := geo.LatLng{Lat: lat, Lng: lng}
		if !okLat || !okLng || !p.Valid() {
			report.Skipped++
			continue
		}

		locality := zone.Normalize(cell(row, idx, "locality"))
		if locality == "" || locality == "NAN" {
			locality = centroids.Nearest(p)
			report.LocalityInferred++
		}

		gp := model.GeoPoint{
			Latitude:    lat,
			Longitude:   lng,
			Locality:    locality,
			RiskScore:   math.NaN(),
			Lighting:    math.NaN(),
			FootTraffic: math.NaN(),
		}
		if v, ok := cellFloat(row, idx, "risk_score"); ok {
			gp.RiskScore = model.Clamp01(v)
		}
		if v, ok := cellFloat(row, idx, "lighting"); ok {
			gp.Lighting = model.Clamp01(v)
		}
		if v, ok := cellFloat(row, idx, "foot_traffic"); ok {
			gp.FootTraffic = model.Clamp01(v)
		}
		points = append(points, gp)
		report.Loaded++
	}

	if len(points) == 0 {
		return nil, report, ErrNoPoints
	}
	return points, report, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		for canonical, aliases := range headerAliases {
			if _, taken := idx[canonical]; taken {
				continue
			}
			for _, a := range aliases {
				if h == a {
					idx[canonical] = i
				}
			}
		}
	}
	return idx
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func cellFloat(row []string, idx map[string]int, col string) (float64, bool) {
	s := cell(row, idx, col)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
