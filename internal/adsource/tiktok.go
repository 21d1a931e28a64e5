package adsource

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/pkg/tiktokads"
)

// TikTokProvider serves TikTok through the Creative Center top-ads API.
type TikTokProvider struct {
	client tiktokads.Client
}

// NewTikTokProvider creates a TikTok Creative Center provider.
func NewTikTokProvider(client tiktokads.Client) *TikTokProvider {
	return &TikTokProvider{client: client}
}

// Name implements Provider.
func (p *TikTokProvider) Name() string { return "tiktok_creative_center" }

// Supports implements Provider.
func (p *TikTokProvider) Supports(platform model.Platform) bool {
	return platform == model.PlatformTikTok
}

// Search implements Provider.
func (p *TikTokProvider) Search(ctx context.Context, q Query) ([]RawAd, error) {
	resp, err := p.client.SearchTopAds(ctx, tiktokads.SearchRequest{
		IndustryKeyword: q.Industry,
		Limit:           q.Limit,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "adsource: tiktok search %s", q.Industry)
	}

	out := make([]RawAd, 0, len(resp.Data.Materials))
	for _, m := range resp.Data.Materials {
		if m.ID == "" {
			continue
		}
		out = append(out, RawAd{
			ID:              m.ID,
			ThumbnailURL:    m.CoverURL,
			Advertiser:      m.BrandName,
			DeliveryDays:    m.DurationDays,
			EngagementProxy: engagementProxy(m),
		})
	}
	return out, nil
}

// ctrProxyScale converts a CTR into a magnitude comparable with like counts.
const ctrProxyScale = 1e6

// engagementProxy prefers the like count; CTR stands in for materials that
// hide likes.
func engagementProxy(m tiktokads.Material) float64 {
	if m.LikeCount > 0 {
		return float64(m.LikeCount)
	}
	return m.CTR * ctrProxyScale
}
