package analyzer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

func TestBuildBasketMatrix(t *testing.T) {
	records := []store.MonthlyRecord{
		{Entity: "Milk", Month: "Jan", Quantity: 10},
		{Entity: "Bread", Month: "Jan", Quantity: 5},
		{Entity: "Milk", Month: "Feb", Quantity: 8},
		{Entity: "Eggs", Month: "March", Quantity: 4},
		{Entity: "Bread", Month: "Mar", Quantity: 0},
		{Entity: "Tea", Month: "October", Quantity: 1},
	}

	m := BuildBasketMatrix(months.Default, records)

	wantMonths := []string{"Jan", "Feb", "March"}
	wantProducts := []string{"Bread", "Eggs", "Milk"}
	if !equalStrings(m.Months, wantMonths) {
		t.Errorf("Months = %v; want %v", m.Months, wantMonths)
	}
	if !equalStrings(m.Products, wantProducts) {
		t.Errorf("Products = %v; want %v", m.Products, wantProducts)
	}

	tests := []struct {
		month, product string
		want           bool
	}{
		{"Jan", "Bread", true},
		{"Jan", "Milk", true},
		{"Jan", "Eggs", false},
		{"Feb", "Milk", true},
		{"March", "Eggs", true},
		{"March", "Bread", false},
		{"October", "Tea", false},
		{"April", "Milk", false},
	}
	for _, tt := range tests {
		if got := m.Purchased(tt.month, tt.product); got != tt.want {
			t.Errorf("Purchased(%s, %s) = %v; want %v", tt.month, tt.product, got, tt.want)
		}
	}
}

func TestEmptyBasketHasNoPairs(t *testing.T) {
	m := BuildBasketMatrix(months.Default, nil)
	if m.Rows() != 0 || m.Cols() != 0 {
		t.Fatalf("empty input gave %dx%d matrix; want 0x0", m.Rows(), m.Cols())
	}

	pairs := CrossSell(m)
	if pairs == nil || len(pairs) != 0 {
		t.Errorf("CrossSell(empty) = %v; want empty non-nil slice", pairs)
	}
}

func TestCrossSellSingleProduct(t *testing.T) {
	m := BasketMatrix{Months: []string{"Jan"}, Products: []string{"Milk"}, Cells: [][]bool{{true}}}
	if pairs := CrossSell(m); len(pairs) != 0 {
		t.Errorf("CrossSell(one product) = %v; want none", pairs)
	}
}

func orderingMatrix() BasketMatrix {
	return BasketMatrix{
		Months:   []string{"m1", "m2", "m3", "m4"},
		Products: []string{"A", "B", "C"},
		Cells: [][]bool{
			{true, true, true},
			{true, true, false},
			{true, false, true},
			{false, true, false},
		},
	}
}

func TestCrossSellOrdering(t *testing.T) {
	pairs := CrossSell(orderingMatrix())

	want := [][2]string{
		{"C", "A"},
		{"A", "C"},
		{"A", "B"},
		{"B", "A"},
		{"C", "B"},
		{"B", "C"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs; want %d", len(pairs), len(want))
	}
	for i, w := range want {
		if pairs[i].ProductA != w[0] || pairs[i].ProductB != w[1] {
			t.Errorf("pair %d = %s->%s; want %s->%s", i, pairs[i].ProductA, pairs[i].ProductB, w[0], w[1])
		}
	}

	ca := pairs[0]
	if ca.CoMonths != 2 || ca.MonthsA != 2 || ca.MonthsB != 3 || ca.TotalMonths != 4 {
		t.Errorf("C->A counts = %+v", ca)
	}
	if !approx(ca.Support, 0.5) || !approx(ca.Confidence, 1) || !approx(ca.Lift, 0.5/(0.5*0.75)) {
		t.Errorf("C->A metrics = support %v, confidence %v, lift %v", ca.Support, ca.Confidence, ca.Lift)
	}
}

func TestCrossSellInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		rows, cols := rng.Intn(9)+1, rng.Intn(6)+2
		m := BasketMatrix{Months: make([]string, rows), Products: make([]string, cols)}
		for j := range m.Products {
			m.Products[j] = string(rune('A' + j))
		}
		for i := 0; i < rows; i++ {
			m.Months[i] = months.Default.Label(i)
			row := make([]bool, cols)
			for j := range row {
				row[j] = rng.Intn(3) == 0
			}
			m.Cells = append(m.Cells, row)
		}

		for _, p := range CrossSell(m) {
			if p.CoMonths <= 0 {
				t.Fatalf("trial %d: pair %s->%s has co_months %d", trial, p.ProductA, p.ProductB, p.CoMonths)
			}
			if p.ProductA == p.ProductB {
				t.Fatalf("trial %d: self pair %s", trial, p.ProductA)
			}
			if p.Support < 0 || p.Support > p.Confidence+1e-12 || p.Confidence > 1 {
				t.Fatalf("trial %d: want 0 <= support <= confidence <= 1, got %+v", trial, p)
			}
			if p.Lift < 0 || math.IsInf(p.Lift, 0) || math.IsNaN(p.Lift) {
				t.Fatalf("trial %d: invalid lift %+v", trial, p)
			}
		}
	}
}

func TestRecommend(t *testing.T) {
	pairs := CrossSell(orderingMatrix())

	tests := []struct {
		name  string
		query RecommendQuery
		want  []string
	}{
		{"capped", RecommendQuery{Anchor: "A", MinCoMonths: 2, Limit: 1}, []string{"C"}},
		{"uncapped", RecommendQuery{Anchor: "A", MinCoMonths: 2}, []string{"C", "B"}},
		{"threshold filters", RecommendQuery{Anchor: "B", MinCoMonths: 2, Limit: 5}, []string{"A"}},
		{"low threshold", RecommendQuery{Anchor: "B", MinCoMonths: 1, Limit: 5}, []string{"A", "C"}},
		{"unknown anchor", RecommendQuery{Anchor: "Z", Limit: 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(pairs, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d recommendations; want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].ProductA != tt.query.Anchor || got[i].ProductB != w {
					t.Errorf("recommendation %d = %s->%s; want %s->%s", i, got[i].ProductA, got[i].ProductB, tt.query.Anchor, w)
				}
			}
		})
	}
}

func TestAnchors(t *testing.T) {
	got := Anchors(CrossSell(orderingMatrix()))
	if !equalStrings(got, []string{"A", "B", "C"}) {
		t.Errorf("Anchors() = %v; want [A B C]", got)
	}
}

func equalStrings(a, b []string) bool {
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

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
