package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/adlens/creative-intel/internal/model"
)

var errNoValidDimensions = errors.New("vision: no valid dimensions in response")

const extractionSystemPrompt = `You are an advertising creative analyst. ` +
	`You examine one ad creative at a time and report its visual and copy ` +
	`attributes. Respond with a single JSON object and nothing else. For ` +
	`every attribute, answer only with one of the allowed values. Omit an ` +
	`attribute entirely if you cannot determine it from the creative; never guess.`

// buildExtractionPrompt renders the per-ad user prompt from the dimension
// registry, listing every dimension with its allowed values.
func buildExtractionPrompt(registry *model.DimensionRegistry, ad model.CollectedAd) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s ad creative from the %q industry (advertiser: %s).\n\n",
		ad.Platform, ad.Industry, ad.Advertiser)
	b.WriteString("Report these attributes:\n")
	for _, d := range registry.Dimensions() {
		fmt.Fprintf(&b, "- %s: one of [%s]\n", d.Key, strings.Join(d.Values, ", "))
	}
	b.WriteString("\nReturn a JSON object mapping attribute names to values.")
	return b.String()
}

// parseExtraction decodes the model's JSON reply into a raw attribute map.
// Tolerates surrounding prose or code fences around the JSON object but
// rejects anything without one.
func parseExtraction(text string) (map[string]string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, eris.New("vision: response contains no JSON object")
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "vision: decode extraction")
	}
	return raw, nil
}
