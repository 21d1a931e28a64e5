// Package insight converts validated evidence into the final channel
// analysis report: ranked insights, concept inputs and recommended creative
// directions. Pure computation, no I/O.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/adlens/creative-intel/internal/model"
)

// Request carries everything the generator needs from earlier stages.
type Request struct {
	Channel  model.Platform
	Industry string

	Evidence []model.ValidatedEvidence
	// AvoidancePatterns are failure-dominant patterns that never occurred in
	// success ads; they feed must_avoid only.
	AvoidancePatterns []model.ExtractedPattern
	Registry          *model.DimensionRegistry

	// Sample accounting from collection and vision.
	TargetSampleSize       int
	SampleSize             int
	SuccessAdsCount        int
	AnalyzedAdsCount       int
	DroppedAdsCount        int
	SourceFailures         int
	AdjacentIndustriesUsed []string
	MechanismFallbacks     int

	// AvoidGapPP is the minimum failure-over-success usage gap, in
	// percentage points, for a pattern to enter must_avoid.
	AvoidGapPP float64
}

// Generator runs the insight synthesis stage.
type Generator struct{}

// New creates a generator.
func New() *Generator {
	return &Generator{}
}

// Generate assembles the ChannelAnalysisResult. Deterministic: identical
// inputs produce identical output, including all orderings.
func (g *Generator) Generate(req Request) model.ChannelAnalysisResult {
	ranked := rankEvidence(req.Evidence)
	actionable := filterActionable(ranked)

	return model.ChannelAnalysisResult{
		Channel:  req.Channel,
		Industry: req.Industry,
		AnalysisMetadata: model.AnalysisMetadata{
			SampleSize:             req.SampleSize,
			SuccessAdsCount:        req.SuccessAdsCount,
			AnalyzedAdsCount:       req.AnalyzedAdsCount,
			DroppedAdsCount:        req.DroppedAdsCount,
			SourceFailures:         req.SourceFailures,
			AdjacentIndustriesUsed: req.AdjacentIndustriesUsed,
			MechanismFallbacks:     req.MechanismFallbacks,
			AnalysisQualityScore:   qualityScore(req.AnalyzedAdsCount, req.TargetSampleSize, ranked),
		},
		ValidatedInsights: ranked,
		Caveats:           caveats(ranked),
		ConceptInputs: model.ConceptInputs{
			MustInclude:           mustInclude(actionable, req.Registry),
			MustAvoid:             mustAvoid(actionable, req.AvoidancePatterns, req.AvoidGapPP),
			RecommendedDirections: directions(actionable, req.Registry),
		},
	}
}

// rankEvidence orders insights by confidence desc, |difference| desc, then
// pattern name asc so equal runs serialize identically.
func rankEvidence(evidence []model.ValidatedEvidence) []model.ValidatedEvidence {
	out := make([]model.ValidatedEvidence, len(evidence))
	copy(out, evidence)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ConfidenceScore != out[j].ConfidenceScore {
			return out[i].ConfidenceScore > out[j].ConfidenceScore
		}
		di, dj := math.Abs(out[i].Pattern.DifferencePP), math.Abs(out[j].Pattern.DifferencePP)
		if di != dj {
			return di > dj
		}
		return out[i].Pattern.Name() < out[j].Pattern.Name()
	})
	return out
}

// filterActionable keeps strong and moderate evidence; weak evidence only
// ever surfaces as a caveat.
func filterActionable(evidence []model.ValidatedEvidence) []model.ValidatedEvidence {
	var out []model.ValidatedEvidence
	for _, ev := range evidence {
		if ev.EvidenceStrength != model.StrengthWeak {
			out = append(out, ev)
		}
	}
	return out
}

// mustInclude partitions positive-difference actionable evidence by the kind
// of dimension it came from.
func mustInclude(actionable []model.ValidatedEvidence, registry *model.DimensionRegistry) model.MustInclude {
	var mi model.MustInclude
	for _, ev := range actionable {
		if ev.Pattern.DifferencePP <= 0 {
			continue
		}
		dim := registry.ByKey(ev.Pattern.Dimension)
		if dim == nil {
			continue
		}
		switch dim.Kind {
		case model.KindCopy:
			mi.CopyElements = append(mi.CopyElements, ev.Pattern.Name())
		default:
			mi.VisualElements = append(mi.VisualElements, ev.Pattern.Name())
		}
	}
	return mi
}

// mustAvoid collects patterns that show up far more in failing ads than in
// successful ones: actionable evidence with a failure gap at or above the
// threshold, plus failure-only avoidance patterns.
func mustAvoid(actionable []model.ValidatedEvidence, avoidance []model.ExtractedPattern, gapPP float64) []string {
	var out []string
	for _, ev := range actionable {
		if ev.Pattern.FailureGapPP != nil && *ev.Pattern.FailureGapPP >= gapPP {
			out = append(out, ev.Pattern.Name())
		}
	}
	for _, p := range avoidance {
		if p.FailureGapPP != nil && *p.FailureGapPP >= gapPP {
			out = append(out, p.Name())
		}
	}
	sort.Strings(out)
	return out
}

// caveats summarizes weak evidence so it is visible without being actionable.
func caveats(ranked []model.ValidatedEvidence) []string {
	var out []string
	for _, ev := range ranked {
		if ev.EvidenceStrength != model.StrengthWeak {
			continue
		}
		out = append(out, fmt.Sprintf(
			"%s showed a %+.1fpp difference but the evidence is weak (confidence %.1f)",
			ev.Pattern.Name(), ev.Pattern.DifferencePP, ev.ConfidenceScore))
	}
	return out
}

// directions clusters positive actionable evidence by dimension kind and
// renders one creative direction per non-empty cluster. If actionable
// evidence exists but no cluster formed (all differences negative), a single
// direction is built from the top-ranked entry, so strong findings always
// yield at least one direction. No evidence yields none; directions are
// never fabricated.
func directions(actionable []model.ValidatedEvidence, registry *model.DimensionRegistry) []model.RecommendedDirection {
	clusters := map[model.DimensionKind][]model.ValidatedEvidence{}
	for _, ev := range actionable {
		if ev.Pattern.DifferencePP <= 0 {
			continue
		}
		dim := registry.ByKey(ev.Pattern.Dimension)
		if dim == nil {
			continue
		}
		clusters[dim.Kind] = append(clusters[dim.Kind], ev)
	}

	kindLabels := map[model.DimensionKind]string{
		model.KindVisual: "visual composition",
		model.KindCopy:   "copy and messaging",
	}

	var out []model.RecommendedDirection
	for _, kind := range []model.DimensionKind{model.KindVisual, model.KindCopy} {
		members := clusters[kind]
		if len(members) == 0 {
			continue
		}

		names := make([]string, 0, len(members))
		var scoreSum float64
		for _, ev := range members {
			names = append(names, ev.Pattern.Name())
			scoreSum += ev.ConfidenceScore
		}

		out = append(out, model.RecommendedDirection{
			Direction: fmt.Sprintf("Lean into proven %s patterns: %s",
				kindLabels[kind], strings.Join(names, ", ")),
			Reasoning: fmt.Sprintf(
				"%d validated pattern(s) in this cluster appear materially more often in success-tier ads, led by %s at %+.1fpp.",
				len(members), members[0].Pattern.Name(), members[0].Pattern.DifferencePP),
			ConfidenceScore: round1(scoreSum / float64(len(members))),
		})
	}

	if len(out) == 0 && len(actionable) > 0 {
		top := actionable[0]
		out = append(out, model.RecommendedDirection{
			Direction: fmt.Sprintf("Rebalance away from %s", top.Pattern.Name()),
			Reasoning: fmt.Sprintf(
				"%s appears %.1fpp less often in success-tier ads than in average ones; reducing it is the clearest validated lever.",
				top.Pattern.Name(), math.Abs(top.Pattern.DifferencePP)),
			ConfidenceScore: top.ConfidenceScore,
		})
	}

	return out
}

// Quality-score weights: sample sufficiency dominates, then the share of
// actionable evidence, then overall evidence volume.
const (
	qualitySampleWeight   = 0.50
	qualityStrengthWeight = 0.35
	qualityVolumeWeight   = 0.15

	qualityVolumeSaturation = 20.0
)

// qualityScore is the deterministic 0-100 run-quality function. Zero
// analyzed ads pins it to the minimum.
func qualityScore(analyzed, target int, evidence []model.ValidatedEvidence) float64 {
	if analyzed <= 0 {
		return 0
	}

	sampleRatio := 1.0
	if target > 0 {
		sampleRatio = math.Min(float64(analyzed)/float64(target), 1)
	}

	var strongModShare float64
	if len(evidence) > 0 {
		var strongMod int
		for _, ev := range evidence {
			if ev.EvidenceStrength != model.StrengthWeak {
				strongMod++
			}
		}
		strongModShare = float64(strongMod) / float64(len(evidence))
	}

	volume := math.Min(float64(len(evidence))/qualityVolumeSaturation, 1)

	score := 100 * (qualitySampleWeight*sampleRatio +
		qualityStrengthWeight*strongModShare +
		qualityVolumeWeight*volume)
	return round1(score)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
