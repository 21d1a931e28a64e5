// Package evidence validates extracted patterns: significance testing,
// composite confidence scoring, strength classification, mechanism rationale
// and reference-ad selection.
package evidence

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/pattern"
	"github.com/adlens/creative-intel/pkg/anthropic"
)

// Context carries the run identity into validation prompts.
type Context struct {
	Channel  model.Platform
	Industry string
}

// Stats records degraded conditions during validation.
type Stats struct {
	MechanismFallbacks int
}

// Validator runs the evidence validation stage.
type Validator struct {
	client    anthropic.Client
	textModel string

	minTierSample      int
	alpha              float64
	maxReferenceAds    int
	mechanismMaxTokens int64
}

// New creates a validator. A nil client forces templated mechanisms
// throughout (used by tests and degraded runs).
func New(client anthropic.Client, anthCfg config.AnthropicConfig, cfg config.AnalysisConfig) *Validator {
	minTier := cfg.MinTierSample
	if minTier <= 0 {
		minTier = 5
	}
	alpha := cfg.SignificanceAlpha
	if alpha <= 0 {
		alpha = 0.05
	}
	maxRef := cfg.MaxReferenceAds
	if maxRef <= 0 {
		maxRef = 3
	}
	maxTokens := int64(cfg.MechanismMaxTokens)
	if maxTokens <= 0 {
		maxTokens = 512
	}

	return &Validator{
		client:             client,
		textModel:          anthCfg.TextModel,
		minTierSample:      minTier,
		alpha:              alpha,
		maxReferenceAds:    maxRef,
		mechanismMaxTokens: maxTokens,
	}
}

// Validate turns candidate patterns into validated evidence. Tier counts are
// the per-tier analyzed-ad totals the usage rates were normalized by; they
// serve as the significance-test sample sizes. Mechanism-generation failures
// degrade to a template and never drop an entry.
func (v *Validator) Validate(ctx context.Context, patterns []model.ExtractedPattern, tiers pattern.TierCounts, vctx Context, ads []model.CollectedAd) ([]model.ValidatedEvidence, Stats) {
	adByID := make(map[string]model.CollectedAd, len(ads))
	for _, ad := range ads {
		adByID[ad.ID] = ad
	}

	var stats Stats
	out := make([]model.ValidatedEvidence, 0, len(patterns))
	for _, p := range patterns {
		ev := v.validateOne(ctx, p, tiers, vctx, adByID, &stats)
		out = append(out, ev)
	}

	zap.L().Info("evidence: validation complete",
		zap.Int("patterns", len(patterns)),
		zap.Int("mechanism_fallbacks", stats.MechanismFallbacks),
	)
	return out, stats
}

func (v *Validator) validateOne(ctx context.Context, p model.ExtractedPattern, tiers pattern.TierCounts, vctx Context, adByID map[string]model.CollectedAd, stats *Stats) model.ValidatedEvidence {
	_, pValue := TwoProportionZTest(p.SuccessCount, tiers.Success, p.AverageCount, tiers.Average)

	// Tiers below the minimum analyzed-ad count are never significant,
	// whatever the p-value says.
	significant := pValue < v.alpha &&
		tiers.Success >= v.minTierSample &&
		tiers.Average >= v.minTierSample

	score := confidenceScore(p.DifferencePP, significant, len(p.SupportingAdIDs))

	mech, fellBack := v.mechanismFor(ctx, p, vctx.Channel, vctx.Industry)
	if fellBack {
		stats.MechanismFallbacks++
	}

	return model.ValidatedEvidence{
		Pattern:                    p,
		ConfidenceScore:            score,
		EvidenceStrength:           model.StrengthForScore(score),
		IsStatisticallySignificant: significant,
		PValue:                     pValue,
		Mechanism:                  mech,
		ReferenceAds:               v.selectReferenceAds(p, adByID),
	}
}

// selectReferenceAds picks up to the configured cap of supporting success
// ads, preferring longer delivery (the stronger success proxy), ties broken
// by id for determinism.
func (v *Validator) selectReferenceAds(p model.ExtractedPattern, adByID map[string]model.CollectedAd) []model.ReferenceAd {
	candidates := make([]model.CollectedAd, 0, len(p.SupportingAdIDs))
	for _, id := range p.SupportingAdIDs {
		if ad, ok := adByID[id]; ok {
			candidates = append(candidates, ad)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DeliveryDays != candidates[j].DeliveryDays {
			return candidates[i].DeliveryDays > candidates[j].DeliveryDays
		}
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > v.maxReferenceAds {
		candidates = candidates[:v.maxReferenceAds]
	}

	out := make([]model.ReferenceAd, 0, len(candidates))
	for _, ad := range candidates {
		out = append(out, model.ReferenceAd{
			AdID:         ad.ID,
			ThumbnailURL: ad.ThumbnailURL,
			Advertiser:   ad.Advertiser,
			DeliveryDays: ad.DeliveryDays,
		})
	}
	return out
}
