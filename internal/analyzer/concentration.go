package analyzer

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// HHI bands, on the [0,1] scale.
const (
	// UnconcentratedBelow is the HHI under which a distribution counts as
	// unconcentrated.
	UnconcentratedBelow = 0.15

	// ModerateBelow is the HHI under which a distribution counts as
	// moderately concentrated. At or above it, it is highly concentrated.
	ModerateBelow = 0.25
)

// Concentration band labels.
const (
	BandUnconcentrated = "unconcentrated"
	BandModerate       = "moderate"
	BandHigh           = "high"
)

// ConcentrationResult summarizes how concentrated a distribution is.
type ConcentrationResult struct {
	HHI          float64 `json:"hhi"`
	TopK         int     `json:"top_k"`
	TopKCoverage float64 `json:"top_k_coverage"`
	Band         string  `json:"band"`
	Entities     int     `json:"entities"`
}

// HHI returns the Herfindahl-Hirschman index of values: the sum of squared
// shares, in [0,1]. Negative values count as zero; a zero total gives 0.
func HHI(vals []float64) float64 {
	clean := cleaned(vals)
	total := floats.Sum(clean)
	if total == 0 {
		return 0
	}
	hhi := 0.0
	for _, v := range clean {
		s := v / total
		hhi += s * s
	}
	return hhi
}

// TopKCoverage returns the percentage of the total held by the k largest
// values. k larger than len(vals) uses every value; k <= 0 or a zero total
// gives 0.
func TopKCoverage(vals []float64, k int) float64 {
	clean := cleaned(vals)
	total := floats.Sum(clean)
	if total == 0 || k <= 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(clean)))
	if k > len(clean) {
		k = len(clean)
	}
	return floats.Sum(clean[:k]) / total * 100
}

// Band classifies an HHI value.
func Band(hhi float64) string {
	switch {
	case hhi < UnconcentratedBelow:
		return BandUnconcentrated
	case hhi < ModerateBelow:
		return BandModerate
	default:
		return BandHigh
	}
}

// Concentration computes HHI and top-k coverage over a distribution.
func Concentration(dist []EntityValue, k int) ConcentrationResult {
	vals := values(dist)
	hhi := HHI(vals)
	return ConcentrationResult{
		HHI:          hhi,
		TopK:         k,
		TopKCoverage: TopKCoverage(vals, k),
		Band:         Band(hhi),
		Entities:     len(dist),
	}
}

func cleaned(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = nonNegative(v)
	}
	return out
}
