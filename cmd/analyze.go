package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/pipeline"
)

var (
	analyzePlatform string
	analyzeIndustry string
	analyzeNoCache  bool
	analyzePretty   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one channel+industry creative analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		platform, err := model.ParsePlatform(analyzePlatform)
		if err != nil {
			return err
		}
		if analyzeIndustry == "" {
			return fmt.Errorf("--industry is required")
		}

		e := initEnv(cfg)
		defer e.Close()

		if !analyzeNoCache {
			cached, err := e.Cache.Get(ctx, platform, analyzeIndustry)
			if err != nil {
				zap.L().Warn("analyze: cache lookup failed", zap.Error(err))
			} else if cached != nil {
				zap.L().Info("analyze: serving cached result",
					zap.Time("cached_at", cached.CachedAt))
				return printResult(&cached.Result, analyzePretty)
			}
		}

		result, err := e.Runner.Run(ctx, pipeline.Request{
			Platform: platform,
			Industry: analyzeIndustry,
		})
		if err != nil {
			return err
		}

		if !analyzeNoCache {
			if err := e.Cache.Set(ctx, *result); err != nil {
				zap.L().Warn("analyze: cache store failed", zap.Error(err))
			}
		}

		return printResult(result, analyzePretty)
	},
}

func printResult(result *model.ChannelAnalysisResult, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePlatform, "platform", "", "platform to analyze (instagram, threads, facebook, tiktok)")
	analyzeCmd.Flags().StringVar(&analyzeIndustry, "industry", "", "industry keyword, e.g. cosmetics")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "bypass the result cache")
	analyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "indent JSON output")
	_ = analyzeCmd.MarkFlagRequired("platform")
	rootCmd.AddCommand(analyzeCmd)
}
