package adsource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/pkg/metaads"
	"github.com/adlens/creative-intel/pkg/tiktokads"
)

type fakeMetaClient struct {
	gotReq metaads.SearchRequest
	resp   *metaads.SearchResponse
	err    error
}

func (f *fakeMetaClient) SearchAds(_ context.Context, req metaads.SearchRequest) (*metaads.SearchResponse, error) {
	f.gotReq = req
	return f.resp, f.err
}

type fakeTikTokClient struct {
	gotReq tiktokads.SearchRequest
	resp   *tiktokads.SearchResponse
}

func (f *fakeTikTokClient) SearchTopAds(_ context.Context, req tiktokads.SearchRequest) (*tiktokads.SearchResponse, error) {
	f.gotReq = req
	return f.resp, nil
}

func TestMetaProvider_Supports(t *testing.T) {
	p := NewMetaProvider(&fakeMetaClient{})

	assert.True(t, p.Supports(model.PlatformInstagram))
	assert.True(t, p.Supports(model.PlatformThreads))
	assert.True(t, p.Supports(model.PlatformFacebook))
	assert.False(t, p.Supports(model.PlatformTikTok))
}

func TestMetaProvider_Search(t *testing.T) {
	client := &fakeMetaClient{resp: &metaads.SearchResponse{Data: []metaads.AdRecord{
		{
			ID:              "m1",
			PageName:        "Acme",
			AdSnapshotURL:   "https://example.com/snap/m1",
			AdDeliveryStart: "2026-07-01",
			AdDeliveryStop:  "2026-08-15",
			EUTotalReach:    54321,
		},
		{PageName: "NoID"}, // missing id, skipped
	}}}
	fixed := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	p := NewMetaProvider(client).WithNow(func() time.Time { return fixed })

	ads, err := p.Search(context.Background(), Query{
		Platform: model.PlatformInstagram,
		Industry: "personal_care",
		Limit:    40,
	})

	require.NoError(t, err)
	assert.Equal(t, "personal care", client.gotReq.SearchTerms, "underscores become spaces")
	assert.Equal(t, "INSTAGRAM", client.gotReq.Publisher)
	assert.Equal(t, 40, client.gotReq.Limit)

	require.Len(t, ads, 1)
	assert.Equal(t, "m1", ads[0].ID)
	assert.Equal(t, "Acme", ads[0].Advertiser)
	assert.Equal(t, 45, ads[0].DeliveryDays)
	assert.Equal(t, 54321.0, ads[0].EngagementProxy, "reach is the engagement proxy")
}

func TestTikTokProvider_Supports(t *testing.T) {
	p := NewTikTokProvider(&fakeTikTokClient{})

	assert.True(t, p.Supports(model.PlatformTikTok))
	assert.False(t, p.Supports(model.PlatformInstagram))
}

func TestTikTokProvider_Search(t *testing.T) {
	client := &fakeTikTokClient{resp: &tiktokads.SearchResponse{}}
	client.resp.Data.Materials = []tiktokads.Material{
		{ID: "t1", BrandName: "GlowCo", CoverURL: "https://cdn.example.com/t1.jpg", DurationDays: 42, LikeCount: 12000},
		{ID: "t2", BrandName: "HiddenLikes", DurationDays: 10, CTR: 0.05},
		{BrandName: "NoID"},
	}
	p := NewTikTokProvider(client)

	ads, err := p.Search(context.Background(), Query{
		Platform: model.PlatformTikTok,
		Industry: "skincare",
		Limit:    40,
	})

	require.NoError(t, err)
	assert.Equal(t, "skincare", client.gotReq.IndustryKeyword)

	require.Len(t, ads, 2)
	assert.Equal(t, "t1", ads[0].ID)
	assert.Equal(t, 42, ads[0].DeliveryDays)
	assert.Equal(t, 12000.0, ads[0].EngagementProxy, "like count is the engagement proxy")
	assert.Equal(t, 50000.0, ads[1].EngagementProxy, "CTR stands in when likes are hidden")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewTikTokProvider(&fakeTikTokClient{}))
	r.Register(NewMetaProvider(&fakeMetaClient{}))

	assert.Equal(t, []string{"meta_ad_library", "tiktok_creative_center"}, r.List())

	meta := r.ForPlatform(model.PlatformFacebook)
	require.Len(t, meta, 1)
	assert.Equal(t, "meta_ad_library", meta[0].Name())

	assert.Empty(t, r.ForPlatform(model.Platform("youtube")))
}
