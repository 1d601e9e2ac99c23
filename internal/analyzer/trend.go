package analyzer

import (
	"math"
	"sort"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// OtherLabel names the row GroupSmall merges small entities into.
const OtherLabel = "Other"

// PctChange returns the percentage change from prev to cur. A zero previous
// value gives 0.
func PctChange(prev, cur float64) float64 {
	return safeDiv(cur-prev, prev) * 100
}

// Change is one period of a series with its change from the period before.
type Change struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Delta     float64 `json:"delta"`
	PctChange float64 `json:"pct_change"`
}

// Changes computes period-over-period deltas for vals. The first period
// reports no change.
func Changes(labels []string, vals []float64) []Change {
	out := make([]Change, len(vals))
	for i, v := range vals {
		c := Change{Value: v}
		if i < len(labels) {
			c.Label = labels[i]
		}
		if i > 0 {
			c.Delta = v - vals[i-1]
			c.PctChange = PctChange(vals[i-1], v)
		}
		out[i] = c
	}
	return out
}

// MonthlyChange is a month of quantity and revenue with month-over-month
// movement.
type MonthlyChange struct {
	Month             string  `json:"month"`
	Quantity          float64 `json:"quantity"`
	Revenue           float64 `json:"revenue"`
	UnitPrice         float64 `json:"unit_price"`
	QuantityChange    float64 `json:"quantity_change"`
	RevenueChange     float64 `json:"revenue_change"`
	QuantityPctChange float64 `json:"quantity_pct_change"`
	RevenuePctChange  float64 `json:"revenue_pct_change"`
	UniqueClients     int     `json:"unique_clients,omitempty"`
	UniqueRoutes      int     `json:"unique_routes,omitempty"`
}

// ProductTrend is one product's month-by-month movement.
type ProductTrend struct {
	Product string          `json:"product"`
	Months  []MonthlyChange `json:"months"`
}

// ProductChanges builds, for each product in records, a row per calendar
// month with unit price and month-over-month changes. Products are sorted by
// name; missing months are zero.
func ProductChanges(cal months.Calendar, records []store.MonthlyRecord) []ProductTrend {
	byProduct := make(map[string][]store.MonthlyRecord)
	for _, r := range records {
		byProduct[r.Entity] = append(byProduct[r.Entity], r)
	}

	names := make([]string, 0, len(byProduct))
	for p := range byProduct {
		names = append(names, p)
	}
	sort.Strings(names)

	out := make([]ProductTrend, 0, len(names))
	for _, p := range names {
		qty, rev := MonthlyTotals(cal, byProduct[p])
		out = append(out, ProductTrend{Product: p, Months: monthlyChanges(cal.Labels(), qty, rev)})
	}
	return out
}

// SeriesChanges orders a product's monthly series by calendar and adds unit
// price and month-over-month changes. Months off the calendar are dropped.
func SeriesChanges(cal months.Calendar, series []store.ProductMonth) []MonthlyChange {
	type slot struct {
		idx int
		pm  store.ProductMonth
	}
	merged := make(map[int]*slot)
	for _, pm := range series {
		idx, ok := monthIndex(cal, pm.Month)
		if !ok {
			continue
		}
		s, ok := merged[idx]
		if !ok {
			s = &slot{idx: idx, pm: store.ProductMonth{Month: cal.Label(idx)}}
			merged[idx] = s
		}
		s.pm.Quantity += nonNegative(pm.Quantity)
		s.pm.Revenue += nonNegative(pm.Revenue)
		s.pm.UniqueClients += pm.UniqueClients
		s.pm.UniqueRoutes += pm.UniqueRoutes
	}

	slots := make([]*slot, 0, len(merged))
	for _, s := range merged {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].idx < slots[j].idx })

	labels := make([]string, len(slots))
	qty := make([]float64, len(slots))
	rev := make([]float64, len(slots))
	for i, s := range slots {
		labels[i], qty[i], rev[i] = s.pm.Month, s.pm.Quantity, s.pm.Revenue
	}
	out := monthlyChanges(labels, qty, rev)
	for i, s := range slots {
		out[i].UniqueClients = s.pm.UniqueClients
		out[i].UniqueRoutes = s.pm.UniqueRoutes
	}
	return out
}

func monthlyChanges(labels []string, qty, rev []float64) []MonthlyChange {
	out := make([]MonthlyChange, len(labels))
	for i := range labels {
		c := MonthlyChange{
			Month:     labels[i],
			Quantity:  qty[i],
			Revenue:   rev[i],
			UnitPrice: safeDiv(rev[i], qty[i]),
		}
		if i > 0 {
			c.QuantityChange = qty[i] - qty[i-1]
			c.RevenueChange = rev[i] - rev[i-1]
			c.QuantityPctChange = PctChange(qty[i-1], qty[i])
			c.RevenuePctChange = PctChange(rev[i-1], rev[i])
		}
		out[i] = c
	}
	return out
}

// RouteShareRow is a client's share of its route's sales in one month.
type RouteShareRow struct {
	Month        string  `json:"month"`
	ClientTotal  float64 `json:"client_total"`
	RouteTotal   float64 `json:"route_total"`
	Share        float64 `json:"share"`
	ClientMoMPct float64 `json:"client_mom_pct"`
	RouteMoMPct  float64 `json:"route_mom_pct"`
}

// RouteShare lines a client's monthly invoice totals up against its route's
// totals. Rows follow calendar order and cover the months the client has
// invoices for.
func RouteShare(cal months.Calendar, client []store.ClientMonthSales, route []store.MonthTotal) []RouteShareRow {
	clientTotals := make(map[int]float64)
	for _, c := range client {
		if idx, ok := monthIndex(cal, c.Month); ok {
			clientTotals[idx] += nonNegative(c.Total)
		}
	}
	routeTotals := make(map[int]float64)
	for _, r := range route {
		if idx, ok := monthIndex(cal, r.Month); ok {
			routeTotals[idx] += nonNegative(r.Total)
		}
	}

	idx := make([]int, 0, len(clientTotals))
	for i := range clientTotals {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	rows := make([]RouteShareRow, len(idx))
	for n, i := range idx {
		row := RouteShareRow{
			Month:       cal.Label(i),
			ClientTotal: clientTotals[i],
			RouteTotal:  routeTotals[i],
			Share:       safeDiv(clientTotals[i], routeTotals[i]) * 100,
		}
		if n > 0 {
			prev := rows[n-1]
			row.ClientMoMPct = PctChange(prev.ClientTotal, row.ClientTotal)
			row.RouteMoMPct = PctChange(prev.RouteTotal, row.RouteTotal)
		}
		rows[n] = row
	}
	return rows
}

// GroupSmall merges entities holding less than belowPct percent of the total
// into a single trailing OtherLabel row. The total is unchanged. A
// non-positive belowPct or zero total returns dist unchanged.
func GroupSmall(dist []EntityValue, belowPct float64) []EntityValue {
	total := 0.0
	for _, e := range dist {
		total += nonNegative(e.Value)
	}

	out := make([]EntityValue, 0, len(dist)+1)
	if belowPct <= 0 || total == 0 {
		return append(out, dist...)
	}

	other := 0.0
	merged := 0
	for _, e := range dist {
		if nonNegative(e.Value)/total*100 < belowPct {
			other += e.Value
			merged++
			continue
		}
		out = append(out, e)
	}
	if merged > 0 {
		out = append(out, EntityValue{Entity: OtherLabel, Value: other})
	}
	return out
}

// TopPercent returns the largest floor(n*pct/100) entities of dist, largest
// first with ties in input order.
func TopPercent(dist []EntityValue, pct float64) []EntityValue {
	ranked := append([]EntityValue(nil), dist...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})

	n := int(math.Floor(float64(len(ranked)) * pct / 100))
	if n < 0 || math.IsNaN(pct) {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
