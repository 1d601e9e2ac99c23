package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// Risk is a churn-risk level.
type Risk string

// Churn-risk levels.
const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

// ParseRisk parses a risk level case-insensitively.
func ParseRisk(s string) (Risk, error) {
	for _, r := range []Risk{RiskLow, RiskMedium, RiskHigh} {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: risk %q must be Low, Medium or High", ErrInvalidRequest, s)
}

// ChurnThresholds are the multiples of a client's usual purchase cycle at
// which a gap stops being Low and Medium risk.
type ChurnThresholds struct {
	LowMultiple    float64 `json:"low_multiple"`
	MediumMultiple float64 `json:"medium_multiple"`
}

// DefaultChurnThresholds flags a client as Medium risk once the gap exceeds
// 1.5 cycles and High past 2.5 cycles.
var DefaultChurnThresholds = ChurnThresholds{LowMultiple: 1.5, MediumMultiple: 2.5}

// Fallback gaps used when no purchase cycle is known.
const (
	fallbackLowMaxGap    = 1
	fallbackMediumMaxGap = 2
)

// ChurnAssessment is a heuristic churn-risk call for one client. It compares
// the time since the last purchase with the client's average gap between
// purchases; it is not a statistical model.
type ChurnAssessment struct {
	Risk      Risk     `json:"risk"`
	GapMonths int      `json:"gap_months"`
	AvgCycle  *float64 `json:"avg_cycle"`
	Multiple  *float64 `json:"multiple"`
	Reason    string   `json:"reason"`

	ActiveMonths  []int `json:"active_months"`
	LastAvailable int   `json:"last_available"`
}

// AssessChurn classifies churn risk from a client's monthly product records.
// Quantities are summed per calendar month; a month is active when its total
// is positive and observed when it appears in records at all.
func AssessChurn(cal months.Calendar, records []store.MonthlyRecord, th ChurnThresholds) ChurnAssessment {
	totals := make(map[int]float64)
	for _, r := range records {
		idx, ok := monthIndex(cal, r.Month)
		if !ok {
			continue
		}
		totals[idx] += nonNegative(r.Quantity)
	}

	var active []int
	last := -1
	for idx, q := range totals {
		if q > 0 {
			active = append(active, idx)
		}
		if idx > last {
			last = idx
		}
	}
	return ClassifyChurn(active, last, th)
}

// ClassifyChurn classifies churn risk from the calendar indices of active
// months and the last observed month index. A negative lastAvailable means
// the window ends at the last active month.
func ClassifyChurn(active []int, lastAvailable int, th ChurnThresholds) ChurnAssessment {
	if th.LowMultiple <= 0 || th.MediumMultiple < th.LowMultiple {
		th = DefaultChurnThresholds
	}

	idx := append([]int(nil), active...)
	sort.Ints(idx)

	if len(idx) == 0 {
		return ChurnAssessment{
			Risk:          RiskLow,
			Reason:        "Insufficient history to evaluate.",
			ActiveMonths:  []int{},
			LastAvailable: lastAvailable,
		}
	}

	lastActive := idx[len(idx)-1]
	if lastAvailable < lastActive {
		lastAvailable = lastActive
	}
	gap := lastAvailable - lastActive

	a := ChurnAssessment{
		GapMonths:     gap,
		ActiveMonths:  idx,
		LastAvailable: lastAvailable,
	}

	if len(idx) >= 2 {
		cycle := float64(lastActive-idx[0]) / float64(len(idx)-1)
		a.AvgCycle = &cycle
	}

	if a.AvgCycle == nil || *a.AvgCycle == 0 {
		switch {
		case gap <= fallbackLowMaxGap:
			a.Risk = RiskLow
		case gap <= fallbackMediumMaxGap:
			a.Risk = RiskMedium
		default:
			a.Risk = RiskHigh
		}
		a.Reason = fmt.Sprintf("Last purchase was %d month(s) ago; not enough history to learn a usual cycle.", gap)
		return a
	}

	cycle := *a.AvgCycle
	mult := float64(gap) / cycle
	a.Multiple = &mult

	g := float64(gap)
	switch {
	case g <= cycle*th.LowMultiple:
		a.Risk = RiskLow
		a.Reason = fmt.Sprintf("Last purchase %d month(s) ago (%.1fx cycle), within normal cycle (~%.1f months).", gap, mult, cycle)
	case g <= cycle*th.MediumMultiple:
		a.Risk = RiskMedium
		a.Reason = fmt.Sprintf("Last purchase %d month(s) ago, about %.1fx longer than usual cycle (~%.1f months). Recommend follow-up.", gap, mult, cycle)
	default:
		a.Risk = RiskHigh
		a.Reason = fmt.Sprintf("Last purchase %d month(s) ago, over %.1fx longer than usual cycle (~%.1f months). Urgent recovery action needed.", gap, mult, cycle)
	}
	return a
}
