package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/router"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Compute a risk-aware route",
	Long: `Compute a route between two coordinates or two locality centroids.
Prints the route as JSON, or as a GeoJSON FeatureCollection with --geojson.

Examples:
  route --from-lat 4.6097 --from-lng -74.0817 --to-lat 4.7110 --to-lng -74.0721 --hour 21
  route --from Chapinero --to Kennedy --preference safety --sensitivity 0.8
  route --from Usaquén --to Bosa --geojson > route.geojson`,
	RunE: runRoute,
}

func init() {
	f := routeCmd.Flags()
	f.Float64("from-lat", 0, "origin latitude")
	f.Float64("from-lng", 0, "origin longitude")
	f.Float64("to-lat", 0, "destination latitude")
	f.Float64("to-lng", 0, "destination longitude")
	f.String("from", "", "origin locality")
	f.String("to", "", "destination locality")
	f.Int("hour", 12, "hour of day (0-23)")
	f.Int("day", 1, "day of week (0=Monday .. 6=Sunday)")
	f.String("preference", "", "weight profile: safety or speed")
	f.Float64("sensitivity", 0.5, "risk sensitivity in [0, 1] for --preference")
	f.Bool("geojson", false, "print a GeoJSON FeatureCollection")
	routeCmd.MarkFlagsRequiredTogether("from-lat", "from-lng", "to-lat", "to-lng")
	routeCmd.MarkFlagsRequiredTogether("from", "to")
	routeCmd.MarkFlagsMutuallyExclusive("from", "from-lat")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	f := cmd.Flags()
	if !f.Changed("from") && !f.Changed("from-lat") {
		return eris.New("route: give --from/--to or --from-lat/--from-lng/--to-lat/--to-lng")
	}

	env, err := initEnv(ctx, cfg, "route")
	if err != nil {
		return err
	}
	defer env.Close()
	env.ensureModel(ctx, false)

	req := router.Request{}
	req.Hour, _ = f.GetInt("hour")
	req.Day, _ = f.GetInt("day")
	if p, _ := f.GetString("preference"); p != "" {
		s, _ := f.GetFloat64("sensitivity")
		req.Preference = router.Preference(p)
		req.RiskSensitivity = &s
	}

	var route *model.Route
	if f.Changed("from") {
		from, _ := f.GetString("from")
		to, _ := f.GetString("to")
		route, err = env.Router.RouteBetweenLocalities(ctx, env.Assessor, from, to, req)
	} else {
		req.Origin.Lat, _ = f.GetFloat64("from-lat")
		req.Origin.Lng, _ = f.GetFloat64("from-lng")
		req.Destination.Lat, _ = f.GetFloat64("to-lat")
		req.Destination.Lng, _ = f.GetFloat64("to-lng")
		route, err = env.Router.Route(ctx, req)
	}
	if err != nil {
		return err
	}

	if geojson, _ := f.GetBool("geojson"); geojson {
		b, err := geo.MarshalRoute(*route)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(route)
}
