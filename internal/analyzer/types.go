package analyzer

import (
	"math"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// EntityValue is a named value in a distribution, e.g. a route's revenue.
type EntityValue struct {
	Entity string  `json:"entity"`
	Value  float64 `json:"value"`
}

// QuantityValues maps totals onto their quantities, keeping order.
func QuantityValues(totals []store.EntityTotal) []EntityValue {
	out := make([]EntityValue, len(totals))
	for i, t := range totals {
		out[i] = EntityValue{Entity: t.Entity, Value: t.Quantity}
	}
	return out
}

// RevenueValues maps totals onto their revenues, keeping order.
func RevenueValues(totals []store.EntityTotal) []EntityValue {
	out := make([]EntityValue, len(totals))
	for i, t := range totals {
		out[i] = EntityValue{Entity: t.Entity, Value: t.Revenue}
	}
	return out
}

func values(ev []EntityValue) []float64 {
	out := make([]float64, len(ev))
	for i, e := range ev {
		out[i] = e.Value
	}
	return out
}

// monthIndex resolves a raw month label to its calendar position.
func monthIndex(cal months.Calendar, raw string) (int, bool) {
	label, ok := cal.Normalize(raw)
	if !ok {
		return 0, false
	}
	return cal.Index(label)
}

// safeDiv returns a/b, or 0 when b is zero or the result is not finite.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// nonNegative clamps negative and NaN values to 0.
func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// round1 rounds to one decimal place for display-ready percentages.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
