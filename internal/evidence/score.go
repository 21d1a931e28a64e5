package evidence

import "math"

// Fixed weights for the composite confidence score. Each component
// contributes monotonically and the weights sum to 100.
const (
	magnitudeWeight    = 45.0
	significanceWeight = 30.0
	sampleWeight       = 25.0

	// A 50pp usage difference saturates the magnitude component; ten
	// supporting ads saturate the sample component.
	magnitudeSaturationPP = 50.0
	sampleSaturation      = 10.0
)

// confidenceScore combines the three evidence signals into a deterministic
// 0-100 score, rounded to one decimal.
func confidenceScore(differencePP float64, significant bool, supportingAds int) float64 {
	magnitude := math.Min(math.Abs(differencePP)/magnitudeSaturationPP, 1) * magnitudeWeight

	var significance float64
	if significant {
		significance = significanceWeight
	}

	sample := math.Min(float64(supportingAds)/sampleSaturation, 1) * sampleWeight

	return math.Round((magnitude+significance+sample)*10) / 10
}
