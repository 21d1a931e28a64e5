package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/creative-intel/internal/adsource"
	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/model"
)

// fakeProvider serves canned ads keyed by industry and records every search.
type fakeProvider struct {
	name      string
	platforms []model.Platform
	ads       map[string][]adsource.RawAd
	err       error

	searched []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Supports(platform model.Platform) bool {
	for _, p := range f.platforms {
		if p == platform {
			return true
		}
	}
	return false
}

func (f *fakeProvider) Search(_ context.Context, q adsource.Query) ([]adsource.RawAd, error) {
	f.searched = append(f.searched, q.Industry)
	if f.err != nil {
		return nil, f.err
	}
	return f.ads[q.Industry], nil
}

func genAds(prefix string, n, deliveryDays int) []adsource.RawAd {
	out := make([]adsource.RawAd, n)
	for i := range out {
		out[i] = adsource.RawAd{
			ID:           fmt.Sprintf("%s-%d", prefix, i),
			Advertiser:   "Brand " + prefix,
			DeliveryDays: deliveryDays,
		}
	}
	return out
}

func testSampling() config.SamplingConfig {
	return config.SamplingConfig{
		TargetSampleSize: 20,
		SuccessRatio:     0.65,
		AverageRatio:     0.25,
		FailureRatio:     0.10,
		SuccessMinDays:   30,
		FailureMaxDays:   7,
		AdjacentIndustries: map[string][]string{
			"cosmetics": {"beauty", "skincare"},
		},
	}
}

func newRegistry(providers ...adsource.Provider) *adsource.Registry {
	r := adsource.NewRegistry()
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func TestCollect_UnsupportedPlatformFailsClosed(t *testing.T) {
	p := &fakeProvider{name: "tiktok_only", platforms: []model.Platform{model.PlatformTikTok}}
	c := New(newRegistry(p), testSampling())

	_, _, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Empty(t, p.searched, "no source I/O before the platform check")
}

func TestCollect_AllSourcesFailedIsFatal(t *testing.T) {
	p1 := &fakeProvider{name: "one", platforms: []model.Platform{model.PlatformInstagram}, err: errors.New("boom")}
	p2 := &fakeProvider{name: "two", platforms: []model.Platform{model.PlatformInstagram}, err: errors.New("boom")}
	c := New(newRegistry(p1, p2), testSampling())

	_, stats, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Equal(t, 2, stats.SourcesQueried)
	assert.Equal(t, 2, stats.SourceFailures)
}

func TestCollect_PartialSourceFailureDegrades(t *testing.T) {
	healthy := &fakeProvider{
		name:      "healthy",
		platforms: []model.Platform{model.PlatformInstagram},
		ads:       map[string][]adsource.RawAd{"cosmetics": genAds("a", 10, 45)},
	}
	broken := &fakeProvider{name: "broken", platforms: []model.Platform{model.PlatformInstagram}, err: errors.New("timeout")}
	c := New(newRegistry(healthy, broken), testSampling())

	ads, stats, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})

	require.NoError(t, err)
	assert.NotEmpty(t, ads)
	assert.Equal(t, 1, stats.SourceFailures)
}

func TestCollect_BroadensIntoAdjacentIndustries(t *testing.T) {
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads: map[string][]adsource.RawAd{
			"cosmetics": genAds("cos", 4, 45),
			"beauty":    genAds("bea", 30, 45),
		},
	}
	c := New(newRegistry(p), testSampling())

	ads, stats, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})

	require.NoError(t, err)
	assert.Equal(t, []string{"beauty"}, stats.AdjacentIndustriesUsed)
	// Enough ads after beauty, so skincare is never queried.
	assert.Equal(t, []string{"cosmetics", "beauty"}, p.searched)

	industries := map[string]bool{}
	for _, ad := range ads {
		industries[ad.Industry] = true
	}
	assert.True(t, industries["cosmetics"])
	assert.True(t, industries["beauty"], "adjacent ads keep their own industry label")
}

func TestCollect_NoBroadeningWhenTargetMet(t *testing.T) {
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads: map[string][]adsource.RawAd{
			"cosmetics": append(append(genAds("s", 15, 45), genAds("m", 6, 15)...), genAds("f", 3, 2)...),
		},
	}
	c := New(newRegistry(p), testSampling())

	_, stats, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})

	require.NoError(t, err)
	assert.Empty(t, stats.AdjacentIndustriesUsed)
	assert.Equal(t, []string{"cosmetics"}, p.searched)
}

func TestCollect_TierAssignment(t *testing.T) {
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads: map[string][]adsource.RawAd{
			"cosmetics": {
				{ID: "long", DeliveryDays: 30},
				{ID: "mid", DeliveryDays: 15},
				{ID: "short", DeliveryDays: 7},
			},
		},
	}
	c := New(newRegistry(p), testSampling())

	ads, _, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	tiers := map[string]model.PerformanceTier{}
	for _, ad := range ads {
		tiers[ad.ID] = ad.PerformanceTier
	}
	assert.Equal(t, model.TierSuccess, tiers["long"])
	assert.Equal(t, model.TierAverage, tiers["mid"])
	assert.Equal(t, model.TierFailure, tiers["short"])
}

func TestCollect_StratifyCapsAndOrders(t *testing.T) {
	// 25 success ads with ascending delivery days; the success target for a
	// 20-ad sample at 0.65 is 13, filled longest-delivery-first.
	raw := make([]adsource.RawAd, 25)
	for i := range raw {
		raw[i] = adsource.RawAd{ID: fmt.Sprintf("s-%02d", i), DeliveryDays: 30 + i}
	}
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads:       map[string][]adsource.RawAd{"cosmetics": raw},
	}
	sampling := testSampling()
	sampling.AdjacentIndustries = nil
	c := New(newRegistry(p), sampling)

	ads, stats, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	require.Equal(t, 13, stats.TierCounts[model.TierSuccess])
	require.Len(t, ads, 13)
	assert.Equal(t, 54, ads[0].DeliveryDays)
	for i := 1; i < len(ads); i++ {
		assert.GreaterOrEqual(t, ads[i-1].DeliveryDays, ads[i].DeliveryDays)
	}
}

func TestCollect_StratifyEngagementBreaksDeliveryTies(t *testing.T) {
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads: map[string][]adsource.RawAd{
			"cosmetics": {
				{ID: "low", DeliveryDays: 45, EngagementProxy: 100},
				{ID: "high", DeliveryDays: 45, EngagementProxy: 9000},
				{ID: "mid", DeliveryDays: 45, EngagementProxy: 4000},
			},
		},
	}
	c := New(newRegistry(p), testSampling())

	ads, _, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	require.Len(t, ads, 3)
	assert.Equal(t, "high", ads[0].ID)
	assert.Equal(t, "mid", ads[1].ID)
	assert.Equal(t, "low", ads[2].ID)
	assert.Equal(t, 9000.0, ads[0].EngagementProxy)
}

func TestCollect_DuplicateAdjacentAdsDoNotStopBroadening(t *testing.T) {
	// The beauty search returns plenty of ads, but every one duplicates a
	// cosmetics ad, so the distinct count stays short and skincare must
	// still be tried.
	primary := genAds("c", 4, 45)
	beauty := make([]adsource.RawAd, 20)
	for i := range beauty {
		beauty[i] = primary[i%len(primary)]
	}
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads: map[string][]adsource.RawAd{
			"cosmetics": primary,
			"beauty":    beauty,
			"skincare":  genAds("sk", 30, 45),
		},
	}
	c := New(newRegistry(p), testSampling())

	ads, stats, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	assert.Equal(t, []string{"cosmetics", "beauty", "skincare"}, p.searched)
	// Beauty contributed nothing distinct, so only skincare counts as used.
	assert.Equal(t, []string{"skincare"}, stats.AdjacentIndustriesUsed)

	require.Len(t, ads, 13) // success tier target for a 20-ad sample
	seen := map[string]bool{}
	for _, ad := range ads {
		assert.False(t, seen[ad.ID], "duplicate ad %s in sample", ad.ID)
		seen[ad.ID] = true
	}
}

func TestCollect_DedupesAcrossSources(t *testing.T) {
	shared := adsource.RawAd{ID: "dup", DeliveryDays: 45}
	p1 := &fakeProvider{
		name:      "first",
		platforms: []model.Platform{model.PlatformInstagram},
		ads:       map[string][]adsource.RawAd{"cosmetics": {shared}},
	}
	p2 := &fakeProvider{
		name:      "second",
		platforms: []model.Platform{model.PlatformInstagram},
		ads:       map[string][]adsource.RawAd{"cosmetics": {shared}},
	}
	sampling := testSampling()
	sampling.AdjacentIndustries = nil
	c := New(newRegistry(p1, p2), sampling)

	ads, _, err := c.Collect(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	require.Len(t, ads, 1)
	assert.Equal(t, "first", ads[0].Source)
}

func TestCollect_CancelledDuringBroadening(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakeProvider{
		name:      "meta",
		platforms: []model.Platform{model.PlatformInstagram},
		ads:       map[string][]adsource.RawAd{"cosmetics": genAds("cos", 2, 45)},
	}
	c := New(newRegistry(p), testSampling())

	cancel()
	_, _, err := c.Collect(ctx, Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
