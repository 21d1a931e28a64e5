// Package pipeline orchestrates the five-stage creative analysis: ad
// collection, vision extraction, pattern synthesis, evidence validation and
// insight generation. Stages run strictly in sequence; each stage's output
// is immutable once handed to the next. Independent runs share no mutable
// state and may execute concurrently.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adlens/creative-intel/internal/collector"
	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/evidence"
	"github.com/adlens/creative-intel/internal/insight"
	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/monitoring"
	"github.com/adlens/creative-intel/internal/pattern"
	"github.com/adlens/creative-intel/internal/vision"
)

const (
	StageCollect  = "collect"
	StageVision   = "vision"
	StagePatterns = "patterns"
	StageEvidence = "evidence"
	StageInsights = "insights"
)

// Request identifies one analysis run.
type Request struct {
	Platform model.Platform
	Industry string
}

// Runner wires the five stages together.
type Runner struct {
	collector *collector.Collector
	analyzer  *vision.Analyzer
	validator *evidence.Validator
	generator *insight.Generator
	registry  *model.DimensionRegistry
	observer  monitoring.Observer

	targetSampleSize int
	avoidGapPP       float64
}

// New creates a pipeline runner. A nil observer disables stage events.
func New(
	col *collector.Collector,
	analyzer *vision.Analyzer,
	validator *evidence.Validator,
	registry *model.DimensionRegistry,
	observer monitoring.Observer,
	sampling config.SamplingConfig,
	analysis config.AnalysisConfig,
) *Runner {
	avoidGap := analysis.AvoidGapPP
	if avoidGap <= 0 {
		avoidGap = 20
	}
	return &Runner{
		collector:        col,
		analyzer:         analyzer,
		validator:        validator,
		generator:        insight.New(),
		registry:         registry,
		observer:         observer,
		targetSampleSize: sampling.TargetSampleSize,
		avoidGapPP:       avoidGap,
	}
}

// Run executes one full analysis. Only fatal conditions return an error
// (always a *PipelineError); every degraded condition is reflected in the
// result's AnalysisMetadata. A run where every vision call failed still
// returns a valid result with no insights and the minimum quality score.
func (r *Runner) Run(ctx context.Context, req Request) (*model.ChannelAnalysisResult, error) {
	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("platform", string(req.Platform)),
		zap.String("industry", req.Industry),
	)
	log.Info("pipeline: run started")

	// Stage 1: collect.
	start := time.Now()
	ads, colStats, err := r.collector.Collect(ctx, collector.Request{
		Platform: req.Platform,
		Industry: req.Industry,
	})
	if err != nil {
		return nil, &PipelineError{Stage: StageCollect, Dependency: "ad sources", Err: err}
	}
	tierCounts := model.CountByTier(ads)
	r.emit(runID, StageCollect, start, map[string]int{
		"collected":       len(ads),
		"success_tier":    tierCounts[model.TierSuccess],
		"average_tier":    tierCounts[model.TierAverage],
		"failure_tier":    tierCounts[model.TierFailure],
		"source_failures": colStats.SourceFailures,
	})

	if err := r.checkpoint(ctx, StageVision); err != nil {
		return nil, err
	}

	// Stage 2: vision extraction.
	start = time.Now()
	results, visStats, err := r.analyzer.AnalyzeAds(ctx, ads)
	if err != nil {
		return nil, &PipelineError{Stage: StageVision, Dependency: "vision model", Err: err}
	}
	r.emit(runID, StageVision, start, map[string]int{
		"analyzed": visStats.Analyzed,
		"dropped":  visStats.Dropped,
	})

	if err := r.checkpoint(ctx, StagePatterns); err != nil {
		return nil, err
	}

	// Stage 3: pattern synthesis.
	start = time.Now()
	tiers := pattern.AnalyzedTierCounts(results, ads)
	patterns := pattern.Extract(results, ads)
	avoidance := pattern.ExtractAvoidance(results, ads)
	r.emit(runID, StagePatterns, start, map[string]int{
		"candidates": len(patterns),
		"avoidance":  len(avoidance),
	})

	if err := r.checkpoint(ctx, StageEvidence); err != nil {
		return nil, err
	}

	// Stage 4: evidence validation.
	start = time.Now()
	validated, evStats := r.validator.Validate(ctx, patterns, tiers, evidence.Context{
		Channel:  req.Platform,
		Industry: req.Industry,
	}, ads)
	significantCount := 0
	for _, ev := range validated {
		if ev.IsStatisticallySignificant {
			significantCount++
		}
	}
	r.emit(runID, StageEvidence, start, map[string]int{
		"evidence":            len(validated),
		"significant":         significantCount,
		"mechanism_fallbacks": evStats.MechanismFallbacks,
	})

	if err := r.checkpoint(ctx, StageInsights); err != nil {
		return nil, err
	}

	// Stage 5: insight generation.
	start = time.Now()
	result := r.generator.Generate(insight.Request{
		Channel:                req.Platform,
		Industry:               req.Industry,
		Evidence:               validated,
		AvoidancePatterns:      avoidance,
		Registry:               r.registry,
		TargetSampleSize:       r.targetSampleSize,
		SampleSize:             len(ads),
		SuccessAdsCount:        tierCounts[model.TierSuccess],
		AnalyzedAdsCount:       visStats.Analyzed,
		DroppedAdsCount:        visStats.Dropped,
		SourceFailures:         colStats.SourceFailures,
		AdjacentIndustriesUsed: colStats.AdjacentIndustriesUsed,
		MechanismFallbacks:     evStats.MechanismFallbacks,
		AvoidGapPP:             r.avoidGapPP,
	})
	r.emit(runID, StageInsights, start, map[string]int{
		"insights":   len(result.ValidatedInsights),
		"directions": len(result.ConceptInputs.RecommendedDirections),
	})

	log.Info("pipeline: run complete",
		zap.Int("sample_size", result.AnalysisMetadata.SampleSize),
		zap.Float64("quality_score", result.AnalysisMetadata.AnalysisQualityScore),
	)
	return &result, nil
}

// checkpoint is the cooperative cancellation point between stages.
func (r *Runner) checkpoint(ctx context.Context, nextStage string) error {
	if err := ctx.Err(); err != nil {
		return &PipelineError{Stage: nextStage, Err: err}
	}
	return nil
}

func (r *Runner) emit(runID, stage string, start time.Time, counts map[string]int) {
	if r.observer == nil {
		return
	}
	r.observer.StageCompleted(monitoring.StageEvent{
		RunID:    runID,
		Stage:    stage,
		Duration: time.Since(start),
		Counts:   counts,
		At:       time.Now().UTC(),
	})
}
