package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/realgroute/riskroute/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "riskroute",
	Short: "Crime-risk scoring and safe routing for Bogotá",
	Long:  "Trains a tier-aware risk classifier from security observation points, predicts risk by locality, coordinate and time, and computes risk-aware routes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
