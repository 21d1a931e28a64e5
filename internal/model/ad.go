package model

import "fmt"

// Platform identifies an advertising channel.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformThreads   Platform = "threads"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
)

// KnownPlatforms lists every platform the collector can serve, in stable order.
func KnownPlatforms() []Platform {
	return []Platform{PlatformInstagram, PlatformThreads, PlatformFacebook, PlatformTikTok}
}

// ParsePlatform validates a raw platform string.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	for _, known := range KnownPlatforms() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// PerformanceTier classifies a collected ad by its performance proxy.
type PerformanceTier string

const (
	TierSuccess PerformanceTier = "success"
	TierAverage PerformanceTier = "average"
	TierFailure PerformanceTier = "failure"
)

// CollectedAd is one reference advertisement gathered for a pipeline run.
// Created once by the collector and never mutated downstream; reference
// fields (thumbnail, advertiser, delivery days) are embedded into evidence
// for traceability.
type CollectedAd struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Platform        Platform        `json:"platform"`
	Industry        string          `json:"industry"`
	PerformanceTier PerformanceTier `json:"performance_tier"`
	ThumbnailURL    string          `json:"thumbnail_url"`
	Advertiser      string          `json:"advertiser"`
	DeliveryDays    int             `json:"delivery_days"`
	EngagementProxy float64         `json:"engagement_proxy"`
}

// CountByTier tallies ads per performance tier.
func CountByTier(ads []CollectedAd) map[PerformanceTier]int {
	counts := make(map[PerformanceTier]int, 3)
	for _, ad := range ads {
		counts[ad.PerformanceTier]++
	}
	return counts
}
