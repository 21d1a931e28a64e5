package model

// EvidenceStrength is the qualitative bucket derived from ConfidenceScore.
type EvidenceStrength string

const (
	StrengthStrong   EvidenceStrength = "strong"
	StrengthModerate EvidenceStrength = "moderate"
	StrengthWeak     EvidenceStrength = "weak"
)

// Confidence score cutoffs for evidence strength. Fixed constants, not tuned.
const (
	StrongScoreCutoff   = 75.0
	ModerateScoreCutoff = 50.0
)

// StrengthForScore maps a 0-100 confidence score to its strength bucket.
func StrengthForScore(score float64) EvidenceStrength {
	switch {
	case score >= StrongScoreCutoff:
		return StrengthStrong
	case score >= ModerateScoreCutoff:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Rank orders strengths for monotonicity checks: higher is stronger.
func (s EvidenceStrength) Rank() int {
	switch s {
	case StrengthStrong:
		return 2
	case StrengthModerate:
		return 1
	default:
		return 0
	}
}

// Mechanism is the generated rationale attached to a piece of evidence.
// Free text, produced by the text-generation collaborator (or a template
// fallback); explanatory only, never measured.
type Mechanism struct {
	PsychologicalBasis string `json:"psychological_basis"`
	ChannelFitReason   string `json:"channel_fit_reason"`
	IndustryFitReason  string `json:"industry_fit_reason"`
}

// ReferenceAd is a sample success-tier ad embedded into evidence for
// traceability.
type ReferenceAd struct {
	AdID         string `json:"ad_id"`
	ThumbnailURL string `json:"thumbnail_url"`
	Advertiser   string `json:"advertiser"`
	DeliveryDays int    `json:"delivery_days"`
}

// ValidatedEvidence is one extracted pattern plus its validation outcome.
// Created once per run and immutable thereafter.
type ValidatedEvidence struct {
	Pattern ExtractedPattern `json:"pattern"`

	ConfidenceScore            float64          `json:"confidence_score"`
	EvidenceStrength           EvidenceStrength `json:"evidence_strength"`
	IsStatisticallySignificant bool             `json:"is_statistically_significant"`
	PValue                     float64          `json:"p_value"`

	Mechanism    Mechanism     `json:"mechanism"`
	ReferenceAds []ReferenceAd `json:"reference_ads"`
}
