package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/model"
	"github.com/realgroute/riskroute/internal/risk"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a risk model and make it the active one",
	Long: `Synthesize labeled examples from the security points dataset, fit the
tier-aware random forest, persist it and mark it active.

Without a dataset (or when it has no usable rows) the model is trained on
synthetic points around each locality centroid.

Examples:
  train --data data/security_points.csv
  train --trees 200 --max-depth 14`,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.String("data", "", "security points CSV or XLSX (overrides config)")
	f.Int("trees", 0, "number of trees (overrides config)")
	f.Int("max-depth", 0, "maximum tree depth (overrides config)")
	f.Uint64("seed", 0, "random seed (overrides config)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if v, _ := cmd.Flags().GetString("data"); v != "" {
		cfg.Data.SecurityPoints = v
	}
	if v, _ := cmd.Flags().GetInt("trees"); v > 0 {
		cfg.Model.Trees = v
	}
	if v, _ := cmd.Flags().GetInt("max-depth"); v > 0 {
		cfg.Model.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetUint64("seed"); v > 0 {
		cfg.Model.Seed = v
	}

	env, err := initEnv(ctx, cfg, "train")
	if err != nil {
		return err
	}
	defer env.Close()

	points, err := env.loadPoints(ctx)
	if err != nil {
		zap.L().Warn("training dataset unavailable, using synthetic points", zap.Error(err))
	}
	a, err := env.Trainer.Train(ctx, points)
	if err != nil {
		return eris.Wrap(err, "train")
	}
	formatTrainingReport(os.Stdout, a)
	return nil
}

// formatTrainingReport writes a summary of a fitted model to out.
func formatTrainingReport(out io.Writer, a *risk.Artifact) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Model:\t%s\n", a.ID)
	_, _ = fmt.Fprintf(w, "Points:\t%d\n", a.Stats.Points)
	_, _ = fmt.Fprintf(w, "Examples:\t%d (train %d, holdout %d)\n", a.Stats.Examples, a.Stats.TrainRows, a.Stats.HoldoutRows)
	_, _ = fmt.Fprintf(w, "Holdout accuracy:\t%.3f\n", a.Stats.HoldoutAccuracy)
	if a.Stats.Synthetic {
		_, _ = fmt.Fprintln(w, "Data:\tsynthetic")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "TIER\tPOINTS\tLOW\tMEDIUM\tHIGH")
	_, _ = fmt.Fprintln(w, "----\t------\t---\t------\t----")
	for _, t := range a.Metadata.Tiers {
		c := a.Stats.ClassCounts[t.Name]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", t.Name, a.Stats.TierPoints[t.Name],
			c[model.LabelLow], c[model.LabelMedium], c[model.LabelHigh])
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "FEATURE\tIMPORTANCE")
	_, _ = fmt.Fprintln(w, "-------\t----------")
	for _, name := range risk.TopFeatures(a.Stats.Importances, 5) {
		_, _ = fmt.Fprintf(w, "%s\t%.4f\n", name, a.Stats.Importances[name])
	}
	_ = w.Flush()
}
