// Package collector gathers a stratified sample of reference ads for a
// platform+industry pair from the registered ad-library providers.
package collector

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adlens/creative-intel/internal/adsource"
	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/model"
)

// ErrUnsupportedPlatform is returned before any source I/O when no provider
// serves the requested platform. Fails closed rather than returning zero ads.
var ErrUnsupportedPlatform = errors.New("collector: unsupported platform")

// ErrAllSourcesFailed is returned when every provider for the platform
// errored on the primary search; the pipeline aborts in that case.
var ErrAllSourcesFailed = errors.New("collector: all ad sources failed")

// Request identifies what to collect.
type Request struct {
	Platform model.Platform
	Industry string
}

// Stats records how the collection went. Shortfalls and partial source
// failures are reported here, not raised as errors.
type Stats struct {
	TargetSampleSize       int
	SourcesQueried         int
	SourceFailures         int
	AdjacentIndustriesUsed []string
	TierCounts             map[model.PerformanceTier]int
}

// Collector runs the ad collection stage.
type Collector struct {
	registry *adsource.Registry
	sampling config.SamplingConfig
}

// New creates a collector over the given provider registry.
func New(registry *adsource.Registry, sampling config.SamplingConfig) *Collector {
	return &Collector{registry: registry, sampling: sampling}
}

// Collect gathers ads for the request, assigns performance tiers and trims
// each tier to its target. When the primary industry search falls short of
// the target sample size it broadens into configured adjacent industries
// before giving up; the run proceeds with whatever was collected.
func (c *Collector) Collect(ctx context.Context, req Request) ([]model.CollectedAd, Stats, error) {
	stats := Stats{
		TargetSampleSize: c.sampling.TargetSampleSize,
		TierCounts:       make(map[model.PerformanceTier]int, 3),
	}

	providers := c.registry.ForPlatform(req.Platform)
	if len(providers) == 0 {
		return nil, stats, eris.Wrapf(ErrUnsupportedPlatform, "platform %q", req.Platform)
	}

	log := zap.L().With(
		zap.String("platform", string(req.Platform)),
		zap.String("industry", req.Industry),
	)

	raw, failures := c.searchAll(ctx, providers, req.Platform, req.Industry)
	stats.SourcesQueried = len(providers)
	stats.SourceFailures = failures
	if failures == len(providers) {
		return nil, stats, eris.Wrapf(ErrAllSourcesFailed, "platform %q, %d sources", req.Platform, len(providers))
	}

	ads := dedupe(c.assemble(raw, req.Platform, req.Industry))

	// Broaden into adjacent industries while short of target. Deduping as we
	// go keeps the shortfall check honest: duplicate ads from an adjacent
	// search must not stop broadening while untried industries remain.
	if len(ads) < c.sampling.TargetSampleSize {
		for _, adjacent := range c.sampling.AdjacentIndustries[req.Industry] {
			if len(ads) >= c.sampling.TargetSampleSize {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, stats, eris.Wrap(err, "collector: cancelled")
			}

			adjRaw, adjFailures := c.searchAll(ctx, providers, req.Platform, adjacent)
			stats.SourceFailures += adjFailures
			if len(adjRaw) == 0 {
				continue
			}

			before := len(ads)
			ads = dedupe(append(ads, c.assemble(adjRaw, req.Platform, adjacent)...))
			if len(ads) == before {
				continue
			}

			log.Info("collector: broadened to adjacent industry",
				zap.String("adjacent_industry", adjacent),
				zap.Int("ads_added", len(ads)-before),
			)
			stats.AdjacentIndustriesUsed = append(stats.AdjacentIndustriesUsed, adjacent)
		}
	}

	sample := c.stratify(ads)

	for _, ad := range sample {
		stats.TierCounts[ad.PerformanceTier]++
	}
	if len(sample) < c.sampling.TargetSampleSize {
		log.Warn("collector: sample shortfall",
			zap.Int("collected", len(sample)),
			zap.Int("target", c.sampling.TargetSampleSize),
			zap.Strings("adjacent_industries", stats.AdjacentIndustriesUsed),
		)
	}

	return sample, stats, nil
}

// searchAll queries each provider sequentially, tolerating individual
// failures. Returns the merged raw ads and the number of failed providers.
func (c *Collector) searchAll(ctx context.Context, providers []adsource.Provider, platform model.Platform, industry string) ([]sourcedAd, int) {
	// Over-fetch relative to the target so every tier bucket can fill.
	limit := c.sampling.TargetSampleSize * 2

	var out []sourcedAd
	failures := 0
	for _, p := range providers {
		ads, err := p.Search(ctx, adsource.Query{Platform: platform, Industry: industry, Limit: limit})
		if err != nil {
			failures++
			zap.L().Warn("collector: source search failed",
				zap.String("source", p.Name()),
				zap.String("industry", industry),
				zap.Error(err),
			)
			continue
		}
		for _, ad := range ads {
			out = append(out, sourcedAd{RawAd: ad, source: p.Name()})
		}
	}
	return out, failures
}

type sourcedAd struct {
	adsource.RawAd
	source string
}

// assemble converts raw ads into CollectedAds with assigned tiers.
func (c *Collector) assemble(raw []sourcedAd, platform model.Platform, industry string) []model.CollectedAd {
	out := make([]model.CollectedAd, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.CollectedAd{
			ID:              r.ID,
			Source:          r.source,
			Platform:        platform,
			Industry:        industry,
			PerformanceTier: c.assignTier(r.DeliveryDays),
			ThumbnailURL:    r.ThumbnailURL,
			Advertiser:      r.Advertiser,
			DeliveryDays:    r.DeliveryDays,
			EngagementProxy: r.EngagementProxy,
		})
	}
	return out
}

// assignTier buckets an ad by its delivery duration. Long-running ads are
// treated as successes, short-lived ones as failures.
func (c *Collector) assignTier(deliveryDays int) model.PerformanceTier {
	switch {
	case deliveryDays >= c.sampling.SuccessMinDays:
		return model.TierSuccess
	case deliveryDays <= c.sampling.FailureMaxDays:
		return model.TierFailure
	default:
		return model.TierAverage
	}
}

// tierTarget computes the per-tier ad count from the configured ratios.
func (c *Collector) tierTarget(tier model.PerformanceTier) int {
	var ratio float64
	switch tier {
	case model.TierSuccess:
		ratio = c.sampling.SuccessRatio
	case model.TierAverage:
		ratio = c.sampling.AverageRatio
	case model.TierFailure:
		ratio = c.sampling.FailureRatio
	}
	return int(math.Round(float64(c.sampling.TargetSampleSize) * ratio))
}

// stratify trims each tier bucket to its target in a deterministic order:
// success ads with the longest delivery first (strongest proxy), failure ads
// with the shortest first, average ads with the highest engagement first.
// The engagement proxy breaks delivery-day ties, ids break the rest.
func (c *Collector) stratify(ads []model.CollectedAd) []model.CollectedAd {
	buckets := make(map[model.PerformanceTier][]model.CollectedAd, 3)
	for _, ad := range ads {
		buckets[ad.PerformanceTier] = append(buckets[ad.PerformanceTier], ad)
	}

	sortBucket := func(tier model.PerformanceTier, b []model.CollectedAd) {
		sort.Slice(b, func(i, j int) bool {
			switch tier {
			case model.TierSuccess:
				if b[i].DeliveryDays != b[j].DeliveryDays {
					return b[i].DeliveryDays > b[j].DeliveryDays
				}
				if b[i].EngagementProxy != b[j].EngagementProxy {
					return b[i].EngagementProxy > b[j].EngagementProxy
				}
			case model.TierFailure:
				if b[i].DeliveryDays != b[j].DeliveryDays {
					return b[i].DeliveryDays < b[j].DeliveryDays
				}
				if b[i].EngagementProxy != b[j].EngagementProxy {
					return b[i].EngagementProxy < b[j].EngagementProxy
				}
			default:
				if b[i].EngagementProxy != b[j].EngagementProxy {
					return b[i].EngagementProxy > b[j].EngagementProxy
				}
			}
			return b[i].ID < b[j].ID
		})
	}

	var sample []model.CollectedAd
	for _, tier := range []model.PerformanceTier{model.TierSuccess, model.TierAverage, model.TierFailure} {
		b := buckets[tier]
		sortBucket(tier, b)
		target := c.tierTarget(tier)
		if len(b) > target {
			b = b[:target]
		}
		sample = append(sample, b...)
	}
	return sample
}

// dedupe drops ads already seen by id, keeping the first occurrence.
func dedupe(ads []model.CollectedAd) []model.CollectedAd {
	seen := make(map[string]bool, len(ads))
	out := ads[:0]
	for _, ad := range ads {
		if seen[ad.ID] {
			continue
		}
		seen[ad.ID] = true
		out = append(out, ad)
	}
	return out
}
