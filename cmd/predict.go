package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/realgroute/riskroute/internal/geo"
	"github.com/realgroute/riskroute/internal/risk"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict risk for a locality or coordinate",
	Long: `Predict the risk score of a locality, a coordinate, or both, at an hour
and weekday (0=Monday .. 6=Sunday). Prints JSON.

Examples:
  predict --locality "Ciudad Bolívar" --hour 22 --day 5
  predict --lat 4.6486 --lng -74.0628 --hour 8`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("locality", "", "locality name")
	f.Float64("lat", 0, "latitude")
	f.Float64("lng", 0, "longitude")
	f.Int("hour", 12, "hour of day (0-23)")
	f.Int("day", 1, "day of week (0=Monday .. 6=Sunday)")
	predictCmd.MarkFlagsRequiredTogether("lat", "lng")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	env, err := initEnv(ctx, cfg, "predict")
	if err != nil {
		return err
	}
	defer env.Close()
	env.ensureModel(ctx, false)

	f := cmd.Flags()
	req := risk.Request{}
	req.Locality, _ = f.GetString("locality")
	req.Hour, _ = f.GetInt("hour")
	req.Day, _ = f.GetInt("day")
	if f.Changed("lat") {
		lat, _ := f.GetFloat64("lat")
		lng, _ := f.GetFloat64("lng")
		req.Point = &geo.LatLng{Lat: lat, Lng: lng}
	}

	a, err := env.Assessor.Assess(req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
