package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/pipeline"
)

// batchJob is one entry in the batch jobs file.
type batchJob struct {
	Platform string `yaml:"platform"`
	Industry string `yaml:"industry"`
}

type batchFile struct {
	Jobs []batchJob `yaml:"jobs"`
}

var (
	batchFilePath    string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run analyses for multiple channel+industry pairs",
	Long:  "Reads a YAML jobs file and runs each analysis as an independent pipeline instance with bounded concurrency.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(batchFilePath)
		if err != nil {
			return fmt.Errorf("read jobs file: %w", err)
		}
		var jobs batchFile
		if err := yaml.Unmarshal(raw, &jobs); err != nil {
			return fmt.Errorf("parse jobs file: %w", err)
		}
		if len(jobs.Jobs) == 0 {
			return fmt.Errorf("jobs file contains no jobs")
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentRuns
		}

		e := initEnv(cfg)
		defer e.Close()

		var succeeded, failed int
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		results := make([]error, len(jobs.Jobs))
		for i, job := range jobs.Jobs {
			g.Go(func() error {
				platform, err := model.ParsePlatform(job.Platform)
				if err != nil {
					results[i] = err
					return nil
				}

				result, err := e.Runner.Run(gctx, pipeline.Request{
					Platform: platform,
					Industry: job.Industry,
				})
				if err != nil {
					results[i] = err
					return nil
				}

				if cacheErr := e.Cache.Set(gctx, *result); cacheErr != nil {
					zap.L().Warn("batch: cache store failed",
						zap.String("platform", job.Platform),
						zap.String("industry", job.Industry),
						zap.Error(cacheErr),
					)
				}
				return nil
			})
		}
		_ = g.Wait()

		for i, job := range jobs.Jobs {
			if results[i] != nil {
				failed++
				zap.L().Error("batch: job failed",
					zap.String("platform", job.Platform),
					zap.String("industry", job.Industry),
					zap.Error(results[i]),
				)
				continue
			}
			succeeded++
		}

		fmt.Fprintf(os.Stdout, "batch complete: %d succeeded, %d failed\n", succeeded, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d jobs failed", failed, len(jobs.Jobs))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFilePath, "file", "jobs.yaml", "YAML file listing platform/industry jobs")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent runs (default from config)")
	rootCmd.AddCommand(batchCmd)
}
