package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/realgroute/riskroute/internal/zone"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Show the locality tier table",
	Long: `Show the tier table in use. With --format yaml the table is printed in the
format accepted by data.tiers_file, which makes a convenient starting point
for overrides.`,
	RunE: runZones,
}

func init() {
	zonesCmd.Flags().String("format", "table", "output format: table or yaml")
	rootCmd.AddCommand(zonesCmd)
}

func runZones(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	c, err := initClassifier(cfg.Data)
	if err != nil {
		return err
	}
	switch format {
	case "table":
		formatZones(os.Stdout, c)
		return nil
	case "yaml":
		b, err := c.ExportYAML()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(b)
		return err
	default:
		return eris.Errorf("zones: --format must be table or yaml (got %q)", format)
	}
}

// formatZones writes the tier table to out.
func formatZones(out io.Writer, c *zone.Classifier) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIER\tBASE RISK\tTIME SENS\tCRIME IMPACT\tLOCALITIES")
	_, _ = fmt.Fprintln(w, "----\t---------\t---------\t------------\t----------")
	for _, t := range c.Tiers() {
		_, _ = fmt.Fprintf(w, "%s\t%.2f-%.2f\t%.2f\t%.2f\t%s\n",
			t.Name, t.BaseRiskMin, t.BaseRiskMax, t.TimeSensitivity, t.CrimeImpact,
			strings.Join(t.Localities, ", "))
	}
	_ = w.Flush()
}
