// Package pattern aggregates per-ad creative attributes into named
// (dimension, value) patterns with per-tier usage rates. Pure computation,
// no I/O.
package pattern

import (
	"math"
	"sort"

	"github.com/adlens/creative-intel/internal/model"
)

// TierCounts holds the number of analyzed ads per tier for a run. Usage
// rates are normalized by these counts, not by the collected totals, so
// ads dropped by the vision stage do not bias denominators.
type TierCounts struct {
	Success int
	Average int
	Failure int
}

// AnalyzedTierCounts tallies analyzed ads (those present in results) per tier.
func AnalyzedTierCounts(results map[string]model.ImageAnalysisResult, ads []model.CollectedAd) TierCounts {
	var tc TierCounts
	for _, ad := range ads {
		if _, ok := results[ad.ID]; !ok {
			continue
		}
		switch ad.PerformanceTier {
		case model.TierSuccess:
			tc.Success++
		case model.TierAverage:
			tc.Average++
		case model.TierFailure:
			tc.Failure++
		}
	}
	return tc
}

// tally counts, per (dimension, value), the occurrences in each tier along
// with the success-tier supporting ad ids.
type tally struct {
	success, average, failure int
	supporting                []string
}

type patternKey struct {
	dimension, value string
}

func tallyPatterns(results map[string]model.ImageAnalysisResult, ads []model.CollectedAd) map[patternKey]*tally {
	tallies := make(map[patternKey]*tally)
	for _, ad := range ads {
		res, ok := results[ad.ID]
		if !ok {
			continue // dropped ad: no data, not "all dimensions absent"
		}
		for dim, value := range res {
			k := patternKey{dimension: dim, value: value}
			t := tallies[k]
			if t == nil {
				t = &tally{}
				tallies[k] = t
			}
			switch ad.PerformanceTier {
			case model.TierSuccess:
				t.success++
				t.supporting = append(t.supporting, ad.ID)
			case model.TierAverage:
				t.average++
			case model.TierFailure:
				t.failure++
			}
		}
	}
	return tallies
}

// Extract computes the candidate patterns for evidence validation: every
// (dimension, value) pair that appears in at least one analyzed success-tier
// ad. If either the success or average tier has zero analyzed ads, its usage
// rate is undefined and no candidates are produced: insufficient data is
// not scored as a large difference.
//
// Output order is deterministic: dimension asc, then value asc.
func Extract(results map[string]model.ImageAnalysisResult, ads []model.CollectedAd) []model.ExtractedPattern {
	tc := AnalyzedTierCounts(results, ads)
	if tc.Success == 0 || tc.Average == 0 {
		return nil
	}

	tallies := tallyPatterns(results, ads)

	out := make([]model.ExtractedPattern, 0, len(tallies))
	for k, t := range tallies {
		if t.success == 0 {
			continue
		}

		usageSuccess := float64(t.success) / float64(tc.Success)
		usageAverage := float64(t.average) / float64(tc.Average)

		sort.Strings(t.supporting)
		p := model.ExtractedPattern{
			Dimension:       k.dimension,
			Value:           k.value,
			UsageInSuccess:  usageSuccess,
			UsageInAverage:  usageAverage,
			DifferencePP:    round1((usageSuccess - usageAverage) * 100),
			SuccessCount:    t.success,
			AverageCount:    t.average,
			SupportingAdIDs: t.supporting,
		}

		if tc.Failure > 0 {
			usageFailure := float64(t.failure) / float64(tc.Failure)
			gap := round1((usageFailure - usageSuccess) * 100)
			p.UsageInFailure = &usageFailure
			p.FailureGapPP = &gap
		}

		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Dimension != out[j].Dimension {
			return out[i].Dimension < out[j].Dimension
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// ExtractAvoidance computes failure-dominant patterns that never occur in
// success-tier ads, so they are not evidence candidates but may still feed
// the must-avoid list. Requires both the success and failure tiers to have
// analyzed ads. Output order matches Extract.
func ExtractAvoidance(results map[string]model.ImageAnalysisResult, ads []model.CollectedAd) []model.ExtractedPattern {
	tc := AnalyzedTierCounts(results, ads)
	if tc.Success == 0 || tc.Failure == 0 {
		return nil
	}

	tallies := tallyPatterns(results, ads)

	var out []model.ExtractedPattern
	for k, t := range tallies {
		if t.success > 0 || t.failure == 0 {
			continue
		}

		usageFailure := float64(t.failure) / float64(tc.Failure)
		gap := round1(usageFailure * 100) // success usage is zero
		p := model.ExtractedPattern{
			Dimension:      k.dimension,
			Value:          k.value,
			UsageInSuccess: 0,
			UsageInFailure: &usageFailure,
			FailureGapPP:   &gap,
		}
		if tc.Average > 0 {
			p.UsageInAverage = float64(t.average) / float64(tc.Average)
			p.AverageCount = t.average
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Dimension != out[j].Dimension {
			return out[i].Dimension < out[j].Dimension
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
