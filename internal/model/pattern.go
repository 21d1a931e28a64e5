package model

import "fmt"

// ExtractedPattern is one (dimension, value) pair aggregated across the
// analyzed ads of a run. Usage rates are normalized independently per tier
// by that tier's analyzed-ad count, so a large difference on tiny counts is
// possible; the evidence validator flags those via significance testing
// rather than raw filtering here.
type ExtractedPattern struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`

	UsageInSuccess float64 `json:"usage_in_success"`
	UsageInAverage float64 `json:"usage_in_average"`
	// DifferencePP is (UsageInSuccess - UsageInAverage) * 100, signed,
	// rounded to one decimal.
	DifferencePP float64 `json:"difference_pp"`

	// SuccessCount and AverageCount are the raw occurrence counts behind the
	// usage rates; SupportingAdIDs lists the success-tier ads exhibiting the
	// value, in stable (sorted) order.
	SuccessCount    int      `json:"success_count"`
	AverageCount    int      `json:"average_count"`
	SupportingAdIDs []string `json:"supporting_ad_ids"`

	// Failure-tier comparison, present only when the failure tier had at
	// least one analyzed ad. FailureGapPP is
	// (UsageInFailure - UsageInSuccess) * 100: positive means the value
	// shows up more in failing ads than in successful ones.
	UsageInFailure *float64 `json:"usage_in_failure,omitempty"`
	FailureGapPP   *float64 `json:"failure_gap_pp,omitempty"`
}

// Name renders the canonical "dimension=value" pattern name used in ranking
// tie-breaks and report text.
func (p ExtractedPattern) Name() string {
	return fmt.Sprintf("%s=%s", p.Dimension, p.Value)
}
