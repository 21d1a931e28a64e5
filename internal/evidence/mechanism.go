package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/adlens/creative-intel/internal/model"
	"github.com/adlens/creative-intel/pkg/anthropic"
)

const mechanismSystemPrompt = `You are an advertising strategist. Given an ` +
	`observed creative pattern and its usage statistics, explain the likely ` +
	`mechanism behind its performance. Respond with a single JSON object with ` +
	`exactly these keys: "psychological_basis", "channel_fit_reason", ` +
	`"industry_fit_reason". Each value is one or two plain sentences.`

// buildMechanismPrompt renders the rationale request for one pattern.
func buildMechanismPrompt(p model.ExtractedPattern, channel model.Platform, industry string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Channel: %s\nIndustry: %s\nPattern: %s\n", channel, industry, p.Name())
	fmt.Fprintf(&b, "Usage in successful ads: %.1f%%\nUsage in average ads: %.1f%%\nDifference: %+.1f percentage points\n",
		p.UsageInSuccess*100, p.UsageInAverage*100, p.DifferencePP)
	b.WriteString("Explain why this pattern is associated with performance on this channel and industry.")
	return b.String()
}

// parseMechanism decodes the model reply, requiring all three fields.
func parseMechanism(text string) (model.Mechanism, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return model.Mechanism{}, eris.New("evidence: mechanism response contains no JSON object")
	}

	var m model.Mechanism
	if err := json.Unmarshal([]byte(text[start:end+1]), &m); err != nil {
		return model.Mechanism{}, eris.Wrap(err, "evidence: decode mechanism")
	}
	if m.PsychologicalBasis == "" || m.ChannelFitReason == "" || m.IndustryFitReason == "" {
		return model.Mechanism{}, eris.New("evidence: mechanism response missing fields")
	}
	return m, nil
}

// fallbackMechanism is the deterministic template used when text generation
// fails. The evidence entry is kept either way.
func fallbackMechanism(p model.ExtractedPattern, channel model.Platform, industry string) model.Mechanism {
	direction := "more"
	if p.DifferencePP < 0 {
		direction = "less"
	}
	return model.Mechanism{
		PsychologicalBasis: fmt.Sprintf(
			"Creatives with %s appear %s often in high-performing ads (%.1f%% vs %.1f%%), suggesting the attribute shapes audience response.",
			p.Name(), direction, p.UsageInSuccess*100, p.UsageInAverage*100),
		ChannelFitReason: fmt.Sprintf(
			"Observed across %s ads in this sample; the gap of %+.1f percentage points held within the channel's own creatives.",
			channel, p.DifferencePP),
		IndustryFitReason: fmt.Sprintf(
			"Measured against %s-industry reference ads only, so the association reflects this industry's audience.",
			industry),
	}
}

// mechanismFor asks the text model for a rationale, falling back to the
// template on any failure. Returns the mechanism and whether the fallback
// was used.
func (v *Validator) mechanismFor(ctx context.Context, p model.ExtractedPattern, channel model.Platform, industry string) (model.Mechanism, bool) {
	if v.client == nil {
		return fallbackMechanism(p, channel, industry), true
	}

	resp, err := v.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     v.textModel,
		MaxTokens: v.mechanismMaxTokens,
		System:    mechanismSystemPrompt,
		Messages: []anthropic.Message{{
			Role: "user",
			Text: buildMechanismPrompt(p, channel, industry),
		}},
	})
	if err != nil {
		return fallbackMechanism(p, channel, industry), true
	}

	resp.Usage.LogCost(v.textModel, "mechanism_rationale")

	m, err := parseMechanism(resp.Text)
	if err != nil {
		return fallbackMechanism(p, channel, industry), true
	}
	return m, false
}
