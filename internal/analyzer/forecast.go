package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Forecast defaults.
const (
	DefaultAlpha   = 0.4
	DefaultHorizon = 3

	// MonthsPerYear scales a mean monthly value to a yearly one.
	MonthsPerYear = 12
)

// Forecast bases.
const (
	BasisRevenue  = "revenue"
	BasisQuantity = "quantity"
)

// ForecastResult is a flat exponential-moving-average projection.
type ForecastResult struct {
	Values     []float64 `json:"values"`
	Level      float64   `json:"level"`
	Alpha      float64   `json:"alpha"`
	Horizon    int       `json:"horizon"`
	Mean       float64   `json:"mean"`
	Annualized float64   `json:"annualized"`
	Basis      string    `json:"basis,omitempty"`
}

// EMAForecast smooths series with factor alpha and projects the final level
// horizon periods ahead. The level starts at the first value; NaNs are
// skipped. An alpha outside (0,1] falls back to DefaultAlpha. An empty series
// forecasts zeros.
func EMAForecast(series []float64, alpha float64, horizon int) ForecastResult {
	if !(alpha > 0 && alpha <= 1) {
		alpha = DefaultAlpha
	}
	if horizon < 0 {
		horizon = 0
	}

	clean := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}

	res := ForecastResult{Alpha: alpha, Horizon: horizon, Values: make([]float64, horizon)}
	if len(clean) == 0 {
		return res
	}

	level := clean[0]
	for _, v := range clean[1:] {
		level = alpha*v + (1-alpha)*level
	}
	for i := range res.Values {
		res.Values[i] = level
	}

	res.Level = level
	res.Mean = stat.Mean(clean, nil)
	res.Annualized = Annualize(res.Mean)
	return res
}

// Annualize scales a mean monthly value to a year. Non-positive means give 0.
func Annualize(mean float64) float64 {
	if !(mean > 0) {
		return 0
	}
	return mean * MonthsPerYear
}
