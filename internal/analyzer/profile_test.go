package analyzer

import (
	"math"
	"testing"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

func sampleRecords() []store.MonthlyRecord {
	return []store.MonthlyRecord{
		{Entity: "Milk", Month: "Jan", Quantity: 10, Revenue: 100},
		{Entity: "Bread", Month: "Jan", Quantity: 5, Revenue: 50},
		{Entity: "Milk", Month: "Feb", Quantity: 8, Revenue: 80},
		{Entity: "Eggs", Month: "March", Quantity: 4, Revenue: 40},
	}
}

func TestSummarizeBasket(t *testing.T) {
	s := SummarizeBasket(months.Default, sampleRecords())

	if s.Breadth != 3 || s.TotalQuantity != 27 || s.TotalRevenue != 270 {
		t.Errorf("breadth/qty/revenue = %d/%v/%v; want 3/27/270", s.Breadth, s.TotalQuantity, s.TotalRevenue)
	}
	if !approx(s.AvgDepth, 3) {
		t.Errorf("AvgDepth = %v; want 3", s.AvgDepth)
	}
	if !approx(s.Top1Dependence, 18.0/27*100) || !approx(s.Top3Dependence, 100) || !approx(s.Top5Dependence, 100) {
		t.Errorf("dependence = %v/%v/%v", s.Top1Dependence, s.Top3Dependence, s.Top5Dependence)
	}
	if !approx(s.RepeatRatio, 100.0/3) {
		t.Errorf("RepeatRatio = %v; want 33.3", s.RepeatRatio)
	}
	if s.MonthsActive != 3 || !approx(s.ConsistencyIndex, 100.0/3) {
		t.Errorf("MonthsActive = %d, ConsistencyIndex = %v; want 3, 33.3", s.MonthsActive, s.ConsistencyIndex)
	}

	wantCV := math.Sqrt(6200.0/3) / 90 * 100
	if !approx(s.VolatilityCV, wantCV) {
		t.Errorf("VolatilityCV = %v; want %v", s.VolatilityCV, wantCV)
	}
	if !equalInts(s.PurchaseGaps, []int{1, 1}) || s.MedianGap != 1 {
		t.Errorf("gaps = %v, median %v; want [1 1], 1", s.PurchaseGaps, s.MedianGap)
	}
}

func TestSummarizeBasketEmpty(t *testing.T) {
	s := SummarizeBasket(months.Default, nil)
	if s.Breadth != 0 || s.AvgDepth != 0 || s.VolatilityCV != 0 || len(s.PurchaseGaps) != 0 {
		t.Errorf("SummarizeBasket(nil) = %+v; want zero metrics", s)
	}
}

func TestCV(t *testing.T) {
	if CV(nil) != 0 || CV([]float64{0, 0}) != 0 {
		t.Error("CV of empty or zero-mean series should be 0")
	}
	if got := CV([]float64{5, 5, 5}); got != 0 {
		t.Errorf("CV(constant) = %v; want 0", got)
	}
}

func TestMedianGap(t *testing.T) {
	tests := []struct {
		gaps []int
		want float64
	}{
		{nil, 0},
		{[]int{3, 1, 2}, 2},
		{[]int{1, 3}, 2},
	}
	for _, tt := range tests {
		if got := MedianGap(tt.gaps); got != tt.want {
			t.Errorf("MedianGap(%v) = %v; want %v", tt.gaps, got, tt.want)
		}
	}
}

func TestBasketShares(t *testing.T) {
	got := BasketShares([]store.EntityTotal{
		{Entity: "Eggs", Quantity: 5},
		{Entity: "Milk", Quantity: 15},
		{Entity: "Bread", Quantity: 5},
	})
	want := []string{"Milk", "Bread", "Eggs"}
	for i, w := range want {
		if got[i].Product != w {
			t.Errorf("share %d = %s; want %s", i, got[i].Product, w)
		}
	}
	if !approx(got[0].Share, 60) {
		t.Errorf("Milk share = %v; want 60", got[0].Share)
	}
}

func TestChangesNeverInfinite(t *testing.T) {
	got := Changes([]string{"a", "b", "c", "d"}, []float64{0, 10, 5, 0})

	want := []struct{ delta, pct float64 }{{0, 0}, {10, 0}, {-5, -50}, {-5, -100}}
	for i, w := range want {
		if got[i].Delta != w.delta || !approx(got[i].PctChange, w.pct) {
			t.Errorf("change %d = %+v; want delta %v pct %v", i, got[i], w.delta, w.pct)
		}
		if math.IsInf(got[i].PctChange, 0) || math.IsNaN(got[i].PctChange) {
			t.Errorf("change %d is not finite", i)
		}
	}
}

func TestProductChanges(t *testing.T) {
	trends := ProductChanges(months.Default, sampleRecords())
	if len(trends) != 3 || trends[0].Product != "Bread" {
		t.Fatalf("ProductChanges() = %d trends starting %q; want 3 starting Bread", len(trends), trends[0].Product)
	}

	bread := trends[0].Months
	if len(bread) != months.Default.Len() {
		t.Fatalf("Bread has %d months; want %d", len(bread), months.Default.Len())
	}
	if bread[0].UnitPrice != 10 || bread[0].Quantity != 5 {
		t.Errorf("Bread Jan = %+v", bread[0])
	}
	if bread[1].QuantityChange != -5 || bread[1].QuantityPctChange != -100 {
		t.Errorf("Bread Feb = %+v; want -5 / -100%%", bread[1])
	}
	if bread[2].QuantityPctChange != 0 || bread[2].UnitPrice != 0 {
		t.Errorf("Bread March = %+v; want zero change from zero base", bread[2])
	}
}

func TestSeriesChanges(t *testing.T) {
	got := SeriesChanges(months.Default, []store.ProductMonth{
		{Month: "Feb", Quantity: 8, Revenue: 80, UniqueClients: 1, UniqueRoutes: 1},
		{Month: "Jan", Quantity: 20, Revenue: 200, UniqueClients: 3, UniqueRoutes: 2},
		{Month: "Undecember", Quantity: 1},
	})
	if len(got) != 2 || got[0].Month != "Jan" || got[1].Month != "Feb" {
		t.Fatalf("SeriesChanges() = %+v; want Jan then Feb", got)
	}
	if !approx(got[1].QuantityPctChange, -60) || got[1].UnitPrice != 10 || got[0].UniqueClients != 3 {
		t.Errorf("SeriesChanges() = %+v", got)
	}
}

func TestRouteShare(t *testing.T) {
	rows := RouteShare(months.Default,
		[]store.ClientMonthSales{
			{Month: "Feb", Route: "R1", Total: 80},
			{Month: "Jan", Route: "R1", Total: 150},
			{Month: "March", Route: "R1", Total: 40},
		},
		[]store.MonthTotal{{Month: "Jan", Total: 180}, {Month: "Feb", Total: 140}, {Month: "March", Total: 40}},
	)

	if len(rows) != 3 || rows[0].Month != "Jan" {
		t.Fatalf("RouteShare() = %+v", rows)
	}
	if !approx(rows[0].Share, 150.0/180*100) || rows[0].ClientMoMPct != 0 {
		t.Errorf("Jan = %+v", rows[0])
	}
	if !approx(rows[1].ClientMoMPct, -70.0/150*100) || !approx(rows[1].RouteMoMPct, -40.0/180*100) {
		t.Errorf("Feb = %+v", rows[1])
	}
	if rows[2].Share != 100 {
		t.Errorf("March share = %v; want 100", rows[2].Share)
	}
}

func TestRouteShareMissingRouteTotal(t *testing.T) {
	rows := RouteShare(months.Default, []store.ClientMonthSales{{Month: "Jan", Total: 50}}, nil)
	if len(rows) != 1 || rows[0].Share != 0 {
		t.Errorf("RouteShare() = %+v; want share 0 without route totals", rows)
	}
}

func TestGroupSmallConservesTotal(t *testing.T) {
	dist := []EntityValue{{"A", 90}, {"B", 6}, {"C", 3}, {"D", 1}}

	got := GroupSmall(dist, 5)
	want := []EntityValue{{"A", 90}, {"B", 6}, {OtherLabel, 4}}
	if len(got) != len(want) {
		t.Fatalf("GroupSmall() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v; want %v", i, got[i], want[i])
		}
	}
	if sumTotals(got) != sumTotals(dist) {
		t.Errorf("total changed from %v to %v", sumTotals(dist), sumTotals(got))
	}

	if unchanged := GroupSmall(dist, 0); len(unchanged) != 4 {
		t.Errorf("GroupSmall(0) returned %d rows; want 4", len(unchanged))
	}
	if none := GroupSmall(dist, 0.5); len(none) != 4 {
		t.Errorf("GroupSmall(0.5) should merge nothing, got %v", none)
	}
}

func TestTopPercent(t *testing.T) {
	dist := make([]EntityValue, 10)
	for i := range dist {
		dist[i] = EntityValue{Entity: string(rune('a' + i)), Value: float64(i)}
	}

	tests := []struct {
		pct  float64
		want int
	}{
		{25, 2},
		{0, 0},
		{9, 0},
		{10, 1},
		{100, 10},
		{150, 10},
	}
	for _, tt := range tests {
		got := TopPercent(dist, tt.pct)
		if len(got) != tt.want {
			t.Errorf("TopPercent(%v) returned %d; want %d", tt.pct, len(got), tt.want)
		}
	}

	top := TopPercent(dist, 20)
	if top[0].Entity != "j" || top[1].Entity != "i" {
		t.Errorf("TopPercent(20) = %v; want j, i", top)
	}
}
