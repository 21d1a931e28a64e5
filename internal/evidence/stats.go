package evidence

import "math"

// TwoProportionZTest runs a pooled two-proportion z-test comparing
// successes1/n1 against successes2/n2 and returns the z statistic with its
// two-tailed p-value. Degenerate inputs (empty samples, pooled proportion of
// exactly 0 or 1) return p=1: no detectable difference.
func TwoProportionZTest(successes1, n1, successes2, n2 int) (z, pValue float64) {
	if n1 <= 0 || n2 <= 0 {
		return 0, 1
	}

	p1 := float64(successes1) / float64(n1)
	p2 := float64(successes2) / float64(n2)
	pooled := float64(successes1+successes2) / float64(n1+n2)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return 0, 1
	}

	z = (p1 - p2) / se
	pValue = 2 * (1 - normalCDF(math.Abs(z)))
	return z, pValue
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
