// Package vision extracts creative attributes from collected ads through a
// vision model, with bounded parallelism and strict schema validation.
package vision

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/pkg/anthropic"
)

// Stats records per-ad outcomes for the analysis batch.
type Stats struct {
	Analyzed int
	Dropped  int
}

// Analyzer runs creative extraction for a batch of ads.
type Analyzer struct {
	client   anthropic.Client
	registry *model.DimensionRegistry
	model    string

	concurrency int
	timeout     time.Duration
	maxTokens   int64
}

// New creates an analyzer using the given Anthropic client and extraction schema.
func New(client anthropic.Client, registry *model.DimensionRegistry, anthCfg config.AnthropicConfig, cfg config.AnalysisConfig) *Analyzer {
	concurrency := cfg.VisionConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	timeout := time.Duration(cfg.VisionTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Analyzer{
		client:      client,
		registry:    registry,
		model:       anthCfg.VisionModel,
		concurrency: concurrency,
		timeout:     timeout,
		maxTokens:   1024,
	}
}

// AnalyzeAds extracts attributes for each ad with bounded parallelism.
// A failed, timed-out or cancelled extraction drops that ad from the result
// map and is recorded as a warning; it never aborts the batch. Downstream
// stages must treat a missing ad id as "no data".
func (a *Analyzer) AnalyzeAds(ctx context.Context, ads []model.CollectedAd) (map[string]model.ImageAnalysisResult, Stats, error) {
	results := make(map[string]model.ImageAnalysisResult, len(ads))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, ad := range ads {
		g.Go(func() error {
			res, err := a.analyzeOne(gctx, ad)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zap.L().Warn("vision: ad dropped",
					zap.String("ad_id", ad.ID),
					zap.String("tier", string(ad.PerformanceTier)),
					zap.Error(err),
				)
				return nil
			}
			results[ad.ID] = res
			return nil
		})
	}

	// Workers swallow per-ad errors, so this only propagates ctx failure.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		// Ads still in flight at cancellation were already counted dropped.
		zap.L().Warn("vision: batch cancelled",
			zap.Int("analyzed", len(results)),
			zap.Int("total", len(ads)),
		)
	}

	return results, Stats{Analyzed: len(results), Dropped: len(ads) - len(results)}, nil
}

// analyzeOne runs a single extraction call with a bounded timeout and
// validates the response against the dimension registry.
func (a *Analyzer) analyzeOne(ctx context.Context, ad model.CollectedAd) (model.ImageAnalysisResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    extractionSystemPrompt,
		Messages: []anthropic.Message{{
			Role:     "user",
			Text:     buildExtractionPrompt(a.registry, ad),
			ImageURL: ad.ThumbnailURL,
		}},
	})
	if err != nil {
		return nil, err
	}

	resp.Usage.LogCost(a.model, "vision_extraction")

	raw, err := parseExtraction(resp.Text)
	if err != nil {
		return nil, err
	}

	validated := a.registry.Filter(raw)
	if len(validated) == 0 {
		return nil, errNoValidDimensions
	}
	return validated, nil
}
