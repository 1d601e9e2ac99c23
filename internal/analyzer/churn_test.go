package analyzer

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

func TestClassifyChurn(t *testing.T) {
	tests := []struct {
		name      string
		active    []int
		last      int
		th        ChurnThresholds
		wantRisk  Risk
		wantGap   int
		wantCycle float64 // 0 means no cycle
	}{
		{"regular buyer within cycle", []int{0, 3, 6}, 8, DefaultChurnThresholds, RiskLow, 2, 3},
		{"single purchase long ago", []int{0}, 5, DefaultChurnThresholds, RiskHigh, 5, 0},
		{"single purchase last month", []int{4}, 5, DefaultChurnThresholds, RiskLow, 1, 0},
		{"single purchase two months ago", []int{3}, 5, DefaultChurnThresholds, RiskMedium, 2, 0},
		{"monthly buyer gone quiet", []int{0, 1, 2}, 5, DefaultChurnThresholds, RiskHigh, 3, 1},
		{"bimonthly buyer overdue", []int{0, 2, 4}, 8, DefaultChurnThresholds, RiskMedium, 4, 2},
		{"bimonthly buyer at medium bound", []int{0, 2, 4}, 9, DefaultChurnThresholds, RiskMedium, 5, 2},
		{"custom thresholds", []int{0, 2, 4}, 8, ChurnThresholds{LowMultiple: 3, MediumMultiple: 4}, RiskLow, 4, 2},
		{"unsorted input", []int{6, 0, 3}, 8, DefaultChurnThresholds, RiskLow, 2, 3},
		{"window before last active", []int{2, 5}, 3, DefaultChurnThresholds, RiskLow, 0, 3},
		{"invalid thresholds fall back", []int{0, 1, 2}, 5, ChurnThresholds{LowMultiple: 2, MediumMultiple: 1}, RiskHigh, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyChurn(tt.active, tt.last, tt.th)
			if got.Risk != tt.wantRisk {
				t.Errorf("Risk = %s; want %s (reason: %s)", got.Risk, tt.wantRisk, got.Reason)
			}
			if got.GapMonths != tt.wantGap {
				t.Errorf("GapMonths = %d; want %d", got.GapMonths, tt.wantGap)
			}
			if tt.wantCycle == 0 {
				if got.AvgCycle != nil || got.Multiple != nil {
					t.Errorf("AvgCycle = %v, Multiple = %v; want nil", got.AvgCycle, got.Multiple)
				}
				if !strings.Contains(got.Reason, "not enough history") {
					t.Errorf("Reason = %q; want fallback explanation", got.Reason)
				}
				return
			}
			if got.AvgCycle == nil || !approx(*got.AvgCycle, tt.wantCycle) {
				t.Fatalf("AvgCycle = %v; want %v", got.AvgCycle, tt.wantCycle)
			}
			if got.Multiple == nil || !approx(*got.Multiple, float64(tt.wantGap)/tt.wantCycle) {
				t.Errorf("Multiple = %v; want %v", got.Multiple, float64(tt.wantGap)/tt.wantCycle)
			}
			if !strings.Contains(got.Reason, "x") {
				t.Errorf("Reason %q should state the multiple", got.Reason)
			}
		})
	}
}

func TestClassifyChurnNoActivity(t *testing.T) {
	got := ClassifyChurn(nil, 4, DefaultChurnThresholds)
	if got.Risk != RiskLow {
		t.Errorf("Risk = %s; want Low", got.Risk)
	}
	if !strings.Contains(strings.ToLower(got.Reason), "insufficient history") {
		t.Errorf("Reason = %q; want insufficient history", got.Reason)
	}
}

func TestAssessChurnUsesObservedWindow(t *testing.T) {
	records := []store.MonthlyRecord{
		{Entity: "Milk", Month: "Jan", Quantity: 10},
		{Entity: "Milk", Month: "Feb", Quantity: 0},
		{Entity: "Eggs", Month: "March", Quantity: 4},
		{Entity: "Bread", Month: "May", Quantity: 0},
		{Entity: "Tea", Month: "Smarch", Quantity: 9},
	}

	got := AssessChurn(months.Default, records, DefaultChurnThresholds)
	if !equalInts(got.ActiveMonths, []int{0, 2}) {
		t.Errorf("ActiveMonths = %v; want [0 2]", got.ActiveMonths)
	}
	if got.LastAvailable != 4 || got.GapMonths != 2 {
		t.Errorf("LastAvailable = %d, GapMonths = %d; want 4, 2", got.LastAvailable, got.GapMonths)
	}
	if got.Risk != RiskLow {
		t.Errorf("Risk = %s; want Low", got.Risk)
	}
}

func TestParseRisk(t *testing.T) {
	for in, want := range map[string]Risk{"low": RiskLow, "MEDIUM": RiskMedium, " High ": RiskHigh} {
		got, err := ParseRisk(in)
		if err != nil || got != want {
			t.Errorf("ParseRisk(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseRisk("severe"); err == nil {
		t.Error("ParseRisk(severe) should fail")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
