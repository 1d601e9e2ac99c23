package analyzer

import "testing"

func TestHHI(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want float64
	}{
		{"single entity", []float64{42}, 1},
		{"four equal", []float64{5, 5, 5, 5}, 0.25},
		{"ten equal", []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, 0.1},
		{"empty", nil, 0},
		{"all zero", []float64{0, 0}, 0},
		{"negative ignored", []float64{-3, 2}, 1},
		{"split", []float64{3, 1}, 0.625},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HHI(tt.vals); !approx(got, tt.want) {
				t.Errorf("HHI(%v) = %v; want %v", tt.vals, got, tt.want)
			}
		})
	}
}

func TestTopKCoverage(t *testing.T) {
	vals := []float64{20, 50, 30}

	tests := []struct {
		k    int
		want float64
	}{
		{1, 50},
		{2, 80},
		{3, 100},
		{10, 100},
		{0, 0},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := TopKCoverage(vals, tt.k); !approx(got, tt.want) {
			t.Errorf("TopKCoverage(k=%d) = %v; want %v", tt.k, got, tt.want)
		}
	}

	if got := TopKCoverage([]float64{0, 0}, 1); got != 0 {
		t.Errorf("TopKCoverage(zeros) = %v; want 0", got)
	}
	if vals[0] != 20 {
		t.Error("TopKCoverage reordered its input")
	}
}

func TestBand(t *testing.T) {
	tests := []struct {
		hhi  float64
		want string
	}{
		{0, BandUnconcentrated},
		{0.1499, BandUnconcentrated},
		{0.15, BandModerate},
		{0.2499, BandModerate},
		{0.25, BandHigh},
		{1, BandHigh},
	}
	for _, tt := range tests {
		if got := Band(tt.hhi); got != tt.want {
			t.Errorf("Band(%v) = %q; want %q", tt.hhi, got, tt.want)
		}
	}
}

func TestConcentration(t *testing.T) {
	got := Concentration([]EntityValue{{"R1", 21}, {"R2", 7}}, 3)
	if !approx(got.HHI, 0.625) || got.Band != BandHigh || got.TopK != 3 || !approx(got.TopKCoverage, 100) || got.Entities != 2 {
		t.Errorf("Concentration() = %+v", got)
	}
}
