package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adlens/creative-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "creative-intel",
	Short: "Advertising creative analysis pipeline",
	Long:  "Collects reference ads per channel and industry, extracts creative patterns with a vision model, validates them statistically, and produces actionable concept inputs.",
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
