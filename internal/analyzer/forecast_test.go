package analyzer

import (
	"math"
	"testing"
)

func TestEMAForecast(t *testing.T) {
	tests := []struct {
		name    string
		series  []float64
		alpha   float64
		horizon int
		want    []float64
	}{
		{"worked example", []float64{10, 20, 30}, 0.5, 3, []float64{22.5, 22.5, 22.5}},
		{"single value", []float64{7}, 0.4, 2, []float64{7, 7}},
		{"empty series", nil, 0.4, 3, []float64{0, 0, 0}},
		{"invalid alpha uses default", []float64{10, 20}, 0, 1, []float64{14}},
		{"alpha above one uses default", []float64{10, 20}, 1.5, 1, []float64{14}},
		{"alpha one tracks last value", []float64{10, 20, 5}, 1, 1, []float64{5}},
		{"NaN skipped", []float64{math.NaN(), 10, 20}, 0.5, 1, []float64{15}},
		{"zero horizon", []float64{10}, 0.5, 0, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EMAForecast(tt.series, tt.alpha, tt.horizon)
			if len(got.Values) != len(tt.want) {
				t.Fatalf("got %d values; want %d", len(got.Values), len(tt.want))
			}
			for i := range tt.want {
				if !approx(got.Values[i], tt.want[i]) {
					t.Errorf("value %d = %v; want %v", i, got.Values[i], tt.want[i])
				}
			}
		})
	}
}

func TestEMAForecastAnnualized(t *testing.T) {
	got := EMAForecast([]float64{10, 20, 30}, 0.5, 3)
	if !approx(got.Mean, 20) || !approx(got.Annualized, 240) {
		t.Errorf("Mean = %v, Annualized = %v; want 20, 240", got.Mean, got.Annualized)
	}

	zero := EMAForecast([]float64{0, 0}, 0.5, 3)
	if zero.Annualized != 0 {
		t.Errorf("Annualized of zero series = %v; want 0", zero.Annualized)
	}
	if Annualize(-5) != 0 {
		t.Error("Annualize(-5) should be 0")
	}
}
