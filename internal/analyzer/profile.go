package analyzer

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// BasketSummary describes the shape of one client's purchasing over the
// calendar.
type BasketSummary struct {
	Breadth       int     `json:"breadth"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	MonthsActive  int     `json:"months_active"`
	AvgDepth      float64 `json:"avg_depth"`

	Top1Dependence float64 `json:"top1_dependence"`
	Top3Dependence float64 `json:"top3_dependence"`
	Top5Dependence float64 `json:"top5_dependence"`

	RepeatRatio      float64 `json:"repeat_ratio"`
	ConsistencyIndex float64 `json:"consistency_index"`
	VolatilityCV     float64 `json:"volatility_cv"`
	PurchaseGaps     []int   `json:"purchase_gaps"`
	MedianGap        float64 `json:"median_gap"`
}

// MonthlyTotals sums records per calendar month. The result has one entry per
// calendar month; months without records are zero.
func MonthlyTotals(cal months.Calendar, records []store.MonthlyRecord) (qty, revenue []float64) {
	qty = make([]float64, cal.Len())
	revenue = make([]float64, cal.Len())
	for _, r := range records {
		idx, ok := monthIndex(cal, r.Month)
		if !ok {
			continue
		}
		qty[idx] += nonNegative(r.Quantity)
		revenue[idx] += nonNegative(r.Revenue)
	}
	return qty, revenue
}

// ObservedSeries is MonthlyTotals restricted to months that appear in records,
// in calendar order.
func ObservedSeries(cal months.Calendar, records []store.MonthlyRecord) (labels []string, qty, revenue []float64) {
	seen := make([]bool, cal.Len())
	for _, r := range records {
		if idx, ok := monthIndex(cal, r.Month); ok {
			seen[idx] = true
		}
	}
	allQty, allRev := MonthlyTotals(cal, records)
	for i, ok := range seen {
		if !ok {
			continue
		}
		labels = append(labels, cal.Label(i))
		qty = append(qty, allQty[i])
		revenue = append(revenue, allRev[i])
	}
	return labels, qty, revenue
}

// SummarizeBasket computes breadth, depth, dependence and consistency metrics
// for one client's monthly product records.
func SummarizeBasket(cal months.Calendar, records []store.MonthlyRecord) BasketSummary {
	s := BasketSummary{PurchaseGaps: []int{}}

	byProduct := make(map[string]float64)
	productMonths := make(map[string]map[int]bool)
	monthsWithRecords := make(map[int]bool)

	for _, r := range records {
		idx, ok := monthIndex(cal, r.Month)
		if !ok {
			continue
		}
		q := nonNegative(r.Quantity)
		byProduct[r.Entity] += q
		monthsWithRecords[idx] = true
		if q > 0 {
			if productMonths[r.Entity] == nil {
				productMonths[r.Entity] = make(map[int]bool)
			}
			productMonths[r.Entity][idx] = true
		}
		s.TotalQuantity += q
		s.TotalRevenue += nonNegative(r.Revenue)
	}

	s.Breadth = len(byProduct)
	if s.Breadth == 0 {
		return s
	}
	s.AvgDepth = safeDiv(s.TotalQuantity, float64(s.Breadth*len(monthsWithRecords)))

	productQty := make([]float64, 0, len(byProduct))
	for _, q := range byProduct {
		productQty = append(productQty, q)
	}
	s.Top1Dependence = TopKCoverage(productQty, 1)
	s.Top3Dependence = TopKCoverage(productQty, 3)
	s.Top5Dependence = TopKCoverage(productQty, 5)

	repeat := 0
	for _, ms := range productMonths {
		if len(ms) >= 2 {
			repeat++
		}
	}
	s.RepeatRatio = float64(repeat) / float64(s.Breadth) * 100

	qty, _ := MonthlyTotals(cal, records)
	var active []int
	for i, q := range qty {
		if q > 0 {
			active = append(active, i)
		}
	}
	s.MonthsActive = len(active)
	s.ConsistencyIndex = safeDiv(float64(len(active)), float64(cal.Len())) * 100

	// Volatility is measured over months that appear in the data.
	_, obsQty, obsRev := ObservedSeries(cal, records)
	if s.TotalRevenue > 0 {
		s.VolatilityCV = CV(obsRev)
	} else {
		s.VolatilityCV = CV(obsQty)
	}

	s.PurchaseGaps = PurchaseGaps(active)
	s.MedianGap = MedianGap(s.PurchaseGaps)
	return s
}

// CV returns the population coefficient of variation of vals, in percent.
// A zero or undefined mean gives 0.
func CV(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(vals, nil)
	return safeDiv(std, mean) * 100
}

// PurchaseGaps returns the differences between consecutive active month
// indices.
func PurchaseGaps(active []int) []int {
	idx := append([]int(nil), active...)
	sort.Ints(idx)
	gaps := []int{}
	for i := 1; i < len(idx); i++ {
		gaps = append(gaps, idx[i]-idx[i-1])
	}
	return gaps
}

// MedianGap returns the median of gaps, or 0 when there are none.
func MedianGap(gaps []int) float64 {
	if len(gaps) == 0 {
		return 0
	}
	data := make(stats.Float64Data, len(gaps))
	for i, g := range gaps {
		data[i] = float64(g)
	}
	m, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return m
}

// BasketShare is a product's share of a basket's quantity.
type BasketShare struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
	Share    float64 `json:"share"`
}

// BasketShares returns each product's percentage of the total quantity,
// largest first with ties by name.
func BasketShares(totals []store.EntityTotal) []BasketShare {
	total := 0.0
	for _, t := range totals {
		total += nonNegative(t.Quantity)
	}
	out := make([]BasketShare, len(totals))
	for i, t := range totals {
		q := nonNegative(t.Quantity)
		out[i] = BasketShare{
			Product:  t.Entity,
			Quantity: q,
			Revenue:  nonNegative(t.Revenue),
			Share:    safeDiv(q, total) * 100,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Product < out[j].Product
	})
	return out
}
