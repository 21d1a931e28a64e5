package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{"instagram", PlatformInstagram, false},
		{"threads", PlatformThreads, false},
		{"facebook", PlatformFacebook, false},
		{"tiktok", PlatformTikTok, false},
		{"youtube", "", true},
		{"Instagram", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrengthForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  EvidenceStrength
	}{
		{100, StrengthStrong},
		{75, StrengthStrong},
		{74.9, StrengthModerate},
		{50, StrengthModerate},
		{49.9, StrengthWeak},
		{0, StrengthWeak},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrengthForScore(tt.score), "score %.1f", tt.score)
	}
}

func TestStrengthRank_Monotonic(t *testing.T) {
	assert.Greater(t, StrengthStrong.Rank(), StrengthModerate.Rank())
	assert.Greater(t, StrengthModerate.Rank(), StrengthWeak.Rank())
}

func TestDefaultDimensionRegistry(t *testing.T) {
	r := DefaultDimensionRegistry()

	dims := r.Dimensions()
	require.Len(t, dims, 14)
	for i := 1; i < len(dims); i++ {
		assert.Less(t, dims[i-1].Key, dims[i].Key, "dimensions not sorted by key")
	}

	d := r.ByKey("overall_tone")
	require.NotNil(t, d)
	assert.Equal(t, KindCopy, d.Kind)
	assert.Nil(t, r.ByKey("font_family"))
}

func TestRegistryIsValid(t *testing.T) {
	r := DefaultDimensionRegistry()

	assert.True(t, r.IsValid("has_person", "yes"))
	assert.False(t, r.IsValid("has_person", "maybe"))
	assert.False(t, r.IsValid("unknown_dim", "yes"))
}

func TestRegistryFilter_DropsUnknownEntries(t *testing.T) {
	r := DefaultDimensionRegistry()

	got := r.Filter(map[string]string{
		"has_person":    "yes",
		"urgency_level": "very_high", // not in the value set
		"font_family":   "serif",     // not a dimension
		"overall_tone":  "playful",
	})

	assert.Equal(t, ImageAnalysisResult{
		"has_person":   "yes",
		"overall_tone": "playful",
	}, got)
}

func TestCountByTier(t *testing.T) {
	ads := []CollectedAd{
		{ID: "1", PerformanceTier: TierSuccess},
		{ID: "2", PerformanceTier: TierSuccess},
		{ID: "3", PerformanceTier: TierAverage},
		{ID: "4", PerformanceTier: TierFailure},
	}

	counts := CountByTier(ads)
	assert.Equal(t, 2, counts[TierSuccess])
	assert.Equal(t, 1, counts[TierAverage])
	assert.Equal(t, 1, counts[TierFailure])
}

func TestPatternName(t *testing.T) {
	p := ExtractedPattern{Dimension: "has_person", Value: "yes"}
	assert.Equal(t, "has_person=yes", p.Name())
}
