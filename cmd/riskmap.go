package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/realgroute/riskroute/internal/risk"
)

var riskmapCmd = &cobra.Command{
	Use:   "riskmap",
	Short: "Score every locality at an hour and weekday",
	RunE:  runRiskMap,
}

func init() {
	f := riskmapCmd.Flags()
	f.Int("hour", 12, "hour of day (0-23)")
	f.Int("day", 1, "day of week (0=Monday .. 6=Sunday)")
	f.String("format", "table", "output format: table or csv")
	rootCmd.AddCommand(riskmapCmd)
}

func runRiskMap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" {
		return eris.Errorf("riskmap: --format must be table or csv (got %q)", format)
	}

	env, err := initEnv(ctx, cfg, "predict")
	if err != nil {
		return err
	}
	defer env.Close()
	env.ensureModel(ctx, false)

	hour, _ := cmd.Flags().GetInt("hour")
	day, _ := cmd.Flags().GetInt("day")
	m, err := env.Assessor.RiskMap(hour, day)
	if err != nil {
		return err
	}
	if format == "csv" {
		return writeRiskMapCSV(os.Stdout, m)
	}
	formatRiskMap(os.Stdout, m)
	return nil
}

// formatRiskMap writes a tabular risk map to out.
func formatRiskMap(out io.Writer, m []risk.Assessment) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LOCALITY\tTIER\tRISK\tLEVEL\tSOURCE")
	_, _ = fmt.Fprintln(w, "--------\t----\t----\t-----\t------")
	for _, a := range m {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\t%s\n", a.Locality, a.Tier, a.Risk, a.Level, a.Source)
	}
	_ = w.Flush()
}

func writeRiskMapCSV(out io.Writer, m []risk.Assessment) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"locality", "zone_tier", "lat", "lng", "risk_score", "risk_level", "source"}); err != nil {
		return eris.Wrap(err, "riskmap: write csv header")
	}
	for _, a := range m {
		row := []string{
			a.Locality,
			string(a.Tier),
			fmt.Sprintf("%.6f", a.Lat),
			fmt.Sprintf("%.6f", a.Lng),
			fmt.Sprintf("%.4f", a.Risk),
			string(a.Level),
			a.Source,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "riskmap: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "riskmap: flush csv")
}
