package model

// AnalysisMetadata records sample accounting and degraded-condition counts
// for one pipeline run. Degraded conditions are folded in here as counts,
// never raised as errors.
type AnalysisMetadata struct {
	SampleSize       int `json:"sample_size"`
	SuccessAdsCount  int `json:"success_ads_count"`
	AnalyzedAdsCount int `json:"analyzed_ads_count"`
	DroppedAdsCount  int `json:"dropped_ads_count"`

	SourceFailures         int      `json:"source_failures"`
	AdjacentIndustriesUsed []string `json:"adjacent_industries_used,omitempty"`
	MechanismFallbacks     int      `json:"mechanism_fallbacks"`

	// AnalysisQualityScore is a deterministic 0-100 function of sample size
	// and evidence strength counts. Never hand-set.
	AnalysisQualityScore float64 `json:"analysis_quality_score"`
}

// MustInclude lists creative elements strongly associated with success,
// split by the kind of dimension they came from.
type MustInclude struct {
	VisualElements []string `json:"visual_elements"`
	CopyElements   []string `json:"copy_elements"`
}

// RecommendedDirection is one synthesized creative direction.
type RecommendedDirection struct {
	Direction       string  `json:"direction"`
	Reasoning       string  `json:"reasoning"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ConceptInputs briefs downstream concept generation: what to keep, what to
// avoid, and narrative directions with confidence.
type ConceptInputs struct {
	MustInclude           MustInclude            `json:"must_include"`
	MustAvoid             []string               `json:"must_avoid"`
	RecommendedDirections []RecommendedDirection `json:"recommended_directions"`
}

// ChannelAnalysisResult is the pipeline's final output for one
// (channel, industry) pair.
type ChannelAnalysisResult struct {
	Channel  Platform `json:"channel"`
	Industry string   `json:"industry"`

	AnalysisMetadata  AnalysisMetadata    `json:"analysis_metadata"`
	ValidatedInsights []ValidatedEvidence `json:"validated_insights"`
	// Caveats summarizes weak evidence that was observed but is not reliable
	// enough to act on.
	Caveats       []string      `json:"caveats,omitempty"`
	ConceptInputs ConceptInputs `json:"concept_inputs"`
}
