package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/realgroute/riskroute/internal/store"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List stored risk models",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, "predict")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		models, err := env.Store.ListModels(ctx, limit)
		if err != nil {
			return err
		}
		formatModels(os.Stdout, models)
		return nil
	},
}

func init() {
	modelsCmd.Flags().Int("limit", 20, "maximum number of models to list")
	rootCmd.AddCommand(modelsCmd)
}

// formatModels writes a tabular model list to out.
func formatModels(out io.Writer, models []store.ModelSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tACTIVE\tEXAMPLES\tACCURACY")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t--------\t--------")
	for _, m := range models {
		var stats struct {
			Examples        int     `json:"examples"`
			HoldoutAccuracy float64 `json:"holdout_accuracy"`
		}
		_ = json.Unmarshal(m.Stats, &stats)
		active := ""
		if m.Active {
			active = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\n",
			truncateID(m.ID),
			m.CreatedAt.Format("2006-01-02 15:04"),
			active,
			stats.Examples,
			stats.HoldoutAccuracy,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
