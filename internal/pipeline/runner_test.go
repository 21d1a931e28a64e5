package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/creative-intel/internal/adsource"
	"github.com/adlens/creative-intel/internal/collector"
	"github.com/adlens/creative-intel/internal/config"
	"github.com/adlens/creative-intel/internal/evidence"
	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/internal/monitoring"
	"github.com/adlens/creative-intel/internal/vision"
	"github.com/adlens/creative-intel/pkg/anthropic"
)

// stubProvider returns a fixed ad set for every search.
type stubProvider struct {
	ads []adsource.RawAd
}

func (s *stubProvider) Name() string                   { return "stub_library" }
func (s *stubProvider) Supports(_ model.Platform) bool { return true }
func (s *stubProvider) Search(_ context.Context, _ adsource.Query) ([]adsource.RawAd, error) {
	return s.ads, nil
}

// stubVision answers extraction calls with a canned reply per advertiser, or
// fails every call when failAll is set.
type stubVision struct {
	replies map[string]string
	failAll bool
}

func (s *stubVision) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.failAll {
		return nil, errors.New("vision unavailable")
	}
	for advertiser, text := range s.replies {
		for _, m := range req.Messages {
			if strings.Contains(m.Text, "advertiser: "+advertiser+")") {
				return &anthropic.MessageResponse{Text: text}, nil
			}
		}
	}
	return nil, errors.New("no canned reply")
}

// stubAds builds a sample that exactly fills the 13/5/2 tier targets of a
// 20-ad run: all success ads show a person, only one average ad does.
func stubAds() ([]adsource.RawAd, map[string]string) {
	var ads []adsource.RawAd
	replies := make(map[string]string)

	add := func(name string, days int, hasPerson string) {
		ads = append(ads, adsource.RawAd{
			ID:           "ad-" + name,
			Advertiser:   name,
			DeliveryDays: days,
			ThumbnailURL: "https://cdn.example.com/" + name + ".jpg",
		})
		replies[name] = fmt.Sprintf(`{"has_person": %q, "overall_tone": "playful"}`, hasPerson)
	}

	for i := 0; i < 13; i++ {
		add(fmt.Sprintf("succ%02d", i), 40+i, "yes")
	}
	for i := 0; i < 5; i++ {
		person := "no"
		if i == 0 {
			person = "yes"
		}
		add(fmt.Sprintf("avg%02d", i), 15, person)
	}
	for i := 0; i < 2; i++ {
		add(fmt.Sprintf("fail%02d", i), 3, "no")
	}
	return ads, replies
}

func testRunner(client anthropic.Client, provider adsource.Provider, observer monitoring.Observer) *Runner {
	sampling := config.SamplingConfig{
		TargetSampleSize: 20,
		SuccessRatio:     0.65,
		AverageRatio:     0.25,
		FailureRatio:     0.10,
		SuccessMinDays:   30,
		FailureMaxDays:   7,
	}
	analysis := config.AnalysisConfig{
		VisionConcurrency: 4,
		VisionTimeoutSecs: 5,
		MinTierSample:     5,
		SignificanceAlpha: 0.05,
		MaxReferenceAds:   3,
		AvoidGapPP:        20,
	}
	anthCfg := config.AnthropicConfig{
		VisionModel: "claude-haiku-4-5-20251001",
		TextModel:   "claude-sonnet-4-5-20250929",
	}

	registry := adsource.NewRegistry()
	registry.Register(provider)
	dims := model.DefaultDimensionRegistry()

	return New(
		collector.New(registry, sampling),
		vision.New(client, dims, anthCfg, analysis),
		evidence.New(nil, anthCfg, analysis), // nil text client: templated mechanisms
		dims,
		observer,
		sampling,
		analysis,
	)
}

func TestRun_FullPipeline(t *testing.T) {
	ads, replies := stubAds()
	recorder := monitoring.NewRecorder(0)
	r := testRunner(&stubVision{replies: replies}, &stubProvider{ads: ads}, recorder)

	res, err := r.Run(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	assert.Equal(t, model.PlatformInstagram, res.Channel)
	assert.Equal(t, "cosmetics", res.Industry)

	md := res.AnalysisMetadata
	assert.Equal(t, 20, md.SampleSize)
	assert.Equal(t, 13, md.SuccessAdsCount)
	assert.Equal(t, 20, md.AnalyzedAdsCount)
	assert.Zero(t, md.DroppedAdsCount)
	assert.Greater(t, md.AnalysisQualityScore, 0.0)

	require.NotEmpty(t, res.ValidatedInsights)
	top := res.ValidatedInsights[0]
	assert.Equal(t, "has_person=yes", top.Pattern.Name())
	assert.True(t, top.IsStatisticallySignificant)
	assert.Equal(t, model.StrengthStrong, top.EvidenceStrength)
	require.Len(t, top.ReferenceAds, 3)
	assert.Equal(t, "ad-succ12", top.ReferenceAds[0].AdID) // longest delivery

	assert.Contains(t, res.ConceptInputs.MustInclude.VisualElements, "has_person=yes")

	events := recorder.Events()
	require.Len(t, events, 5)
	stages := make([]string, len(events))
	for i, ev := range events {
		stages[i] = ev.Stage
		assert.Equal(t, events[0].RunID, ev.RunID)
	}
	assert.Equal(t, []string{StageCollect, StageVision, StagePatterns, StageEvidence, StageInsights}, stages)
}

func TestRun_Deterministic(t *testing.T) {
	ads, replies := stubAds()
	r := testRunner(&stubVision{replies: replies}, &stubProvider{ads: ads}, nil)

	req := Request{Platform: model.PlatformInstagram, Industry: "cosmetics"}
	first, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_AllVisionFailuresStillProduceResult(t *testing.T) {
	ads, _ := stubAds()
	r := testRunner(&stubVision{failAll: true}, &stubProvider{ads: ads}, nil)

	res, err := r.Run(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.NoError(t, err)

	md := res.AnalysisMetadata
	assert.Equal(t, 20, md.SampleSize)
	assert.Zero(t, md.AnalyzedAdsCount)
	assert.Equal(t, 20, md.DroppedAdsCount)
	assert.Equal(t, 0.0, md.AnalysisQualityScore)
	assert.Empty(t, res.ValidatedInsights)
	assert.Empty(t, res.ConceptInputs.RecommendedDirections)
}

func TestRun_UnsupportedPlatformIsFatal(t *testing.T) {
	// An empty provider registry supports nothing.
	sampling := config.SamplingConfig{TargetSampleSize: 20}
	analysis := config.AnalysisConfig{}
	anthCfg := config.AnthropicConfig{}
	dims := model.DefaultDimensionRegistry()

	r := New(
		collector.New(adsource.NewRegistry(), sampling),
		vision.New(&stubVision{failAll: true}, dims, anthCfg, analysis),
		evidence.New(nil, anthCfg, analysis),
		dims,
		nil,
		sampling,
		analysis,
	)

	_, err := r.Run(context.Background(), Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.Error(t, err)

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageCollect, perr.Stage)
	assert.Equal(t, "ad sources", perr.Dependency)
	assert.ErrorIs(t, err, collector.ErrUnsupportedPlatform)
}

func TestRun_CancellationStopsBetweenStages(t *testing.T) {
	ads, replies := stubAds()
	r := testRunner(&stubVision{replies: replies}, &stubProvider{ads: ads}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Request{Platform: model.PlatformInstagram, Industry: "cosmetics"})
	require.Error(t, err)

	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StageVision, perr.Stage)
	assert.ErrorIs(t, err, context.Canceled)
}
