package adsource

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/pkg/metaads"
)

// MetaProvider serves the Meta family of platforms through the Ad Library API.
type MetaProvider struct {
	client metaads.Client
	now    func() time.Time // injectable for testing
}

// NewMetaProvider creates a Meta Ad Library provider.
func NewMetaProvider(client metaads.Client) *MetaProvider {
	return &MetaProvider{client: client, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (p *MetaProvider) WithNow(now func() time.Time) *MetaProvider {
	p.now = now
	return p
}

// Name implements Provider.
func (p *MetaProvider) Name() string { return "meta_ad_library" }

// Supports implements Provider.
func (p *MetaProvider) Supports(platform model.Platform) bool {
	switch platform {
	case model.PlatformInstagram, model.PlatformThreads, model.PlatformFacebook:
		return true
	}
	return false
}

// Search implements Provider.
func (p *MetaProvider) Search(ctx context.Context, q Query) ([]RawAd, error) {
	resp, err := p.client.SearchAds(ctx, metaads.SearchRequest{
		SearchTerms: strings.ReplaceAll(q.Industry, "_", " "),
		Publisher:   strings.ToUpper(string(q.Platform)),
		Limit:       q.Limit,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "adsource: meta search %s/%s", q.Platform, q.Industry)
	}

	now := p.now()
	out := make([]RawAd, 0, len(resp.Data))
	for _, rec := range resp.Data {
		if rec.ID == "" {
			continue
		}
		out = append(out, RawAd{
			ID:              rec.ID,
			ThumbnailURL:    rec.AdSnapshotURL,
			Advertiser:      rec.PageName,
			DeliveryDays:    rec.DeliveryDays(now),
			EngagementProxy: float64(rec.EUTotalReach),
		})
	}
	return out, nil
}
