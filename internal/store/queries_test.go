package store_test

import (
	"context"
	"testing"

	"github.com/blackwell-systems/salesprofile/internal/store"
	"github.com/blackwell-systems/salesprofile/internal/store/storetest"
)

func TestListClients(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	got, err := s.ListClients(ctx, "DISTRIBUTORS")
	if err != nil {
		t.Fatalf("ListClients() failed: %v", err)
	}
	want := []string{"Alpha Stores", "Beta Mart"}
	if len(got) != len(want) {
		t.Fatalf("ListClients() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("client %d = %q; want %q", i, got[i], want[i])
		}
	}

	all, err := s.ListClients(ctx, "All")
	if err != nil {
		t.Fatalf("ListClients(All) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListClients(All) returned %d clients; want 3", len(all))
	}
}

func TestListProducts(t *testing.T) {
	s := storetest.Seeded(t)

	got, err := s.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts() failed: %v", err)
	}
	want := []string{"Bread", "Eggs", "Milk"}
	if len(got) != len(want) {
		t.Fatalf("ListProducts() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("product %d = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestClientProductTotals(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	tests := []struct {
		month string
		want  []store.EntityTotal
	}{
		{"All", []store.EntityTotal{
			{Entity: "Milk", Quantity: 18, Revenue: 180},
			{Entity: "Bread", Quantity: 5, Revenue: 50},
			{Entity: "Eggs", Quantity: 4, Revenue: 40},
		}},
		{"Jan", []store.EntityTotal{
			{Entity: "Milk", Quantity: 10, Revenue: 100},
			{Entity: "Bread", Quantity: 5, Revenue: 50},
		}},
		{"July", nil},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			got, err := s.ClientProductTotals(ctx, "Alpha Stores", tt.month)
			if err != nil {
				t.Fatalf("ClientProductTotals() failed: %v", err)
			}
			assertTotals(t, got, tt.want)
		})
	}
}

func TestAllClientsProductTotals(t *testing.T) {
	s := storetest.Seeded(t)

	got, err := s.AllClientsProductTotals(context.Background(), "DISTRIBUTORS", "All")
	if err != nil {
		t.Fatalf("AllClientsProductTotals() failed: %v", err)
	}
	assertTotals(t, got, []store.EntityTotal{
		{Entity: "Milk", Quantity: 21, Revenue: 210},
		{Entity: "Eggs", Quantity: 10, Revenue: 100},
		{Entity: "Bread", Quantity: 5, Revenue: 50},
	})
}

func TestClientMonthlySales(t *testing.T) {
	s := storetest.Seeded(t)

	got, err := s.ClientMonthlySales(context.Background(), "Alpha Stores")
	if err != nil {
		t.Fatalf("ClientMonthlySales() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ClientMonthlySales() returned %d rows; want 3", len(got))
	}
	byMonth := map[string]float64{}
	for _, r := range got {
		if r.Route != "R1" {
			t.Errorf("route = %q; want R1", r.Route)
		}
		byMonth[r.Month] = r.Total
	}
	if byMonth["Jan"] != 150 || byMonth["Feb"] != 80 || byMonth["March"] != 40 {
		t.Errorf("monthly totals = %v", byMonth)
	}
}

func TestRouteMonthlySales(t *testing.T) {
	s := storetest.Seeded(t)

	got, err := s.RouteMonthlySales(context.Background(), "R1")
	if err != nil {
		t.Fatalf("RouteMonthlySales() failed: %v", err)
	}
	sum := 0.0
	for _, r := range got {
		sum += r.Total
	}
	if len(got) != 3 || sum != 360 {
		t.Errorf("RouteMonthlySales() = %v; want 3 months summing to 360", got)
	}
}

func TestClientTotalsAndTotalSales(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	got, err := s.ClientTotals(ctx, "DISTRIBUTORS")
	if err != nil {
		t.Fatalf("ClientTotals() failed: %v", err)
	}
	assertTotals(t, got, []store.EntityTotal{
		{Entity: "Alpha Stores", Revenue: 270},
		{Entity: "Beta Mart", Revenue: 90},
	})

	group, err := s.TotalSales(ctx, "DISTRIBUTORS")
	if err != nil {
		t.Fatalf("TotalSales() failed: %v", err)
	}
	if group != 360 {
		t.Errorf("TotalSales(DISTRIBUTORS) = %v; want 360", group)
	}

	overall, err := s.TotalSales(ctx, "")
	if err != nil {
		t.Fatalf("TotalSales(\"\") failed: %v", err)
	}
	if overall != 430 {
		t.Errorf("TotalSales(\"\") = %v; want 430", overall)
	}
}

func TestTotalSalesEmpty(t *testing.T) {
	s := storetest.New(t)

	got, err := s.TotalSales(context.Background(), "All")
	if err != nil {
		t.Fatalf("TotalSales() failed: %v", err)
	}
	if got != 0 {
		t.Errorf("TotalSales() on empty snapshot = %v; want 0", got)
	}
}

func TestProductQueries(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	clients, err := s.ProductClientTotals(ctx, "Milk", "All")
	if err != nil {
		t.Fatalf("ProductClientTotals() failed: %v", err)
	}
	assertTotals(t, clients, []store.EntityTotal{
		{Entity: "Alpha Stores", Quantity: 18, Revenue: 180},
		{Entity: "Gamma Retail", Quantity: 7, Revenue: 70},
		{Entity: "Beta Mart", Quantity: 3, Revenue: 30},
	})

	routes, err := s.ProductRouteTotals(ctx, "Milk", "Jan")
	if err != nil {
		t.Fatalf("ProductRouteTotals() failed: %v", err)
	}
	assertTotals(t, routes, []store.EntityTotal{
		{Entity: "R1", Quantity: 13, Revenue: 130},
		{Entity: "R2", Quantity: 7, Revenue: 70},
	})

	series, err := s.ProductMonthlySeries(ctx, "Milk")
	if err != nil {
		t.Fatalf("ProductMonthlySeries() failed: %v", err)
	}
	byMonth := map[string]store.ProductMonth{}
	for _, m := range series {
		byMonth[m.Month] = m
	}
	jan := byMonth["Jan"]
	if jan.Quantity != 20 || jan.UniqueClients != 3 || jan.UniqueRoutes != 2 {
		t.Errorf("Jan = %+v; want quantity 20, 3 clients, 2 routes", jan)
	}
	feb := byMonth["Feb"]
	if feb.Quantity != 8 || feb.UniqueClients != 1 || feb.UniqueRoutes != 1 {
		t.Errorf("Feb = %+v; want quantity 8, 1 client, 1 route", feb)
	}
}

func TestClientBreakdownQueries(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	monthly, err := s.ClientMonthlyTotals(ctx, "DISTRIBUTORS")
	if err != nil {
		t.Fatalf("ClientMonthlyTotals() failed: %v", err)
	}
	assertEntityMonths(t, monthly, map[string]float64{
		"Alpha Stores/Jan": 150, "Alpha Stores/Feb": 80, "Alpha Stores/March": 40,
		"Beta Mart/Jan": 30, "Beta Mart/Feb": 60,
	})

	records, err := s.ClientsProductMonthly(ctx, []string{"Alpha Stores", "Beta Mart"})
	if err != nil {
		t.Fatalf("ClientsProductMonthly() failed: %v", err)
	}
	got := map[string]store.MonthlyRecord{}
	for _, r := range records {
		got[r.Entity+"/"+r.Month] = r
	}
	want := map[string]store.MonthlyRecord{
		"Milk/Jan":   {Entity: "Milk", Month: "Jan", Quantity: 13, Revenue: 130},
		"Bread/Jan":  {Entity: "Bread", Month: "Jan", Quantity: 5, Revenue: 50},
		"Milk/Feb":   {Entity: "Milk", Month: "Feb", Quantity: 8, Revenue: 80},
		"Eggs/Feb":   {Entity: "Eggs", Month: "Feb", Quantity: 6, Revenue: 60},
		"Eggs/March": {Entity: "Eggs", Month: "March", Quantity: 4, Revenue: 40},
	}
	if len(got) != len(want) {
		t.Fatalf("ClientsProductMonthly() = %+v; want %d rows", records, len(want))
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %+v; want %+v", k, got[k], w)
		}
	}

	none, err := s.ClientsProductMonthly(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("ClientsProductMonthly(nil) = %v, %v; want no rows", none, err)
	}
}

func TestManagerQueries(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	tests := []struct {
		month, product string
		want           []store.EntityTotal
	}{
		{"All", "All", []store.EntityTotal{
			{Entity: "Grace Otieno", Quantity: 34, Revenue: 340},
			{Entity: "Paul Mwangi", Quantity: 9, Revenue: 90},
		}},
		{"Jan", "Milk", []store.EntityTotal{
			{Entity: "Grace Otieno", Quantity: 17, Revenue: 170},
			{Entity: "Paul Mwangi", Quantity: 3, Revenue: 30},
		}},
		{"Feb", "Eggs", []store.EntityTotal{
			{Entity: "Paul Mwangi", Quantity: 6, Revenue: 60},
		}},
		{"", "Tea", nil},
	}
	for _, tt := range tests {
		t.Run(tt.month+"/"+tt.product, func(t *testing.T) {
			got, err := s.ManagerTotals(ctx, tt.month, tt.product)
			if err != nil {
				t.Fatalf("ManagerTotals() failed: %v", err)
			}
			assertTotals(t, got, tt.want)
		})
	}

	monthly, err := s.ManagerMonthlySales(ctx, "All")
	if err != nil {
		t.Fatalf("ManagerMonthlySales() failed: %v", err)
	}
	assertEntityMonths(t, monthly, map[string]float64{
		"Grace Otieno/Jan": 220, "Grace Otieno/Feb": 80, "Grace Otieno/March": 40,
		"Paul Mwangi/Jan": 30, "Paul Mwangi/Feb": 60,
	})

	clients, err := s.ManagerClientTotals(ctx, "Grace Otieno", "All", "")
	if err != nil {
		t.Fatalf("ManagerClientTotals() failed: %v", err)
	}
	assertTotals(t, clients, []store.EntityTotal{
		{Entity: "Alpha Stores", Quantity: 27, Revenue: 270},
		{Entity: "Gamma Retail", Quantity: 7, Revenue: 70},
	})

	feb, err := s.ManagerClientTotals(ctx, "Grace Otieno", "Feb", "Milk")
	if err != nil {
		t.Fatalf("ManagerClientTotals(Feb, Milk) failed: %v", err)
	}
	assertTotals(t, feb, []store.EntityTotal{{Entity: "Alpha Stores", Quantity: 8, Revenue: 80}})
}

func TestManagerQueriesSkipUnassigned(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	if err := s.InsertCustomer(ctx, store.Customer{Code: "C4", Name: "Delta Shop", Group: "RETAIL", Route: "R2"}); err != nil {
		t.Fatalf("InsertCustomer() failed: %v", err)
	}
	if err := s.InsertSale(ctx, store.Sale{CustomerCode: "C4", CustomerName: "Delta Shop", Item: "Milk", Month: "Jan", Quantity: 1, Amount: 10}); err != nil {
		t.Fatalf("InsertSale() failed: %v", err)
	}

	got, err := s.ManagerTotals(ctx, "All", "All")
	if err != nil {
		t.Fatalf("ManagerTotals() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ManagerTotals() = %+v; want only the two assigned managers", got)
	}
}

func TestCopyFrom(t *testing.T) {
	src := storetest.Seeded(t)
	dst := storetest.New(t)
	ctx := context.Background()

	// Stale rows must be replaced.
	if err := dst.InsertRouteSale(ctx, store.RouteSale{Route: "OLD", Month: "Jan", Amount: 1}); err != nil {
		t.Fatalf("InsertRouteSale() failed: %v", err)
	}

	want, err := src.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows() failed: %v", err)
	}

	ticks := 0
	stats, err := dst.CopyFrom(ctx, src, func(string) { ticks++ })
	if err != nil {
		t.Fatalf("CopyFrom() failed: %v", err)
	}
	if stats.Total() != want || ticks != want {
		t.Errorf("copied %d rows with %d ticks; want %d", stats.Total(), ticks, want)
	}
	if stats.Customers != len(storetest.Customers) || stats.Sales != len(storetest.Sales) {
		t.Errorf("stats = %+v", stats)
	}

	customers, err := dst.Customers(ctx)
	if err != nil {
		t.Fatalf("Customers() failed: %v", err)
	}
	for _, c := range customers {
		if c.Code == "C2" && c.Manager != "Paul Mwangi" {
			t.Errorf("copied customer %+v; want manager Paul Mwangi", c)
		}
	}

	got, err := dst.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows() failed: %v", err)
	}
	if got != want {
		t.Errorf("destination holds %d rows; want %d", got, want)
	}
}

func TestCachedServesRepeatQueries(t *testing.T) {
	s := storetest.Seeded(t)
	ctx := context.Background()

	c, err := store.NewCached(s, 8)
	if err != nil {
		t.Fatalf("NewCached() failed: %v", err)
	}

	first, err := c.ClientProductTotals(ctx, "Alpha Stores", "All")
	if err != nil {
		t.Fatalf("ClientProductTotals() failed: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("cache holds %d entries; want 1", c.Len())
	}

	// Mutating a result must not leak into the cache.
	first[0].Quantity = -1

	// Rows added behind the cache stay invisible until Purge.
	if err := s.InsertSale(ctx, store.Sale{CustomerCode: "C1", CustomerName: "Alpha Stores", Item: "Tea", Month: "Jan", Quantity: 1}); err != nil {
		t.Fatalf("InsertSale() failed: %v", err)
	}

	second, err := c.ClientProductTotals(ctx, "Alpha Stores", "All")
	if err != nil {
		t.Fatalf("ClientProductTotals() failed: %v", err)
	}
	if len(second) != 3 || second[0].Quantity != 18 {
		t.Errorf("cached result = %+v; want the original three rows", second)
	}

	c.Purge()
	third, err := c.ClientProductTotals(ctx, "Alpha Stores", "All")
	if err != nil {
		t.Fatalf("ClientProductTotals() failed: %v", err)
	}
	if len(third) != 4 {
		t.Errorf("after Purge got %d rows; want 4", len(third))
	}

	managers, err := c.ManagerTotals(ctx, "All", "All")
	if err != nil {
		t.Fatalf("ManagerTotals() failed: %v", err)
	}
	if c.Len() != 2 || len(managers) != 2 {
		t.Errorf("after ManagerTotals cache holds %d entries, %d managers; want 2, 2", c.Len(), len(managers))
	}

	total, err := c.TotalSales(ctx, "All")
	if err != nil {
		t.Fatalf("TotalSales() failed: %v", err)
	}
	if total != 430 {
		t.Errorf("TotalSales() = %v; want 430", total)
	}
}

func assertTotals(t *testing.T, got, want []store.EntityTotal) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows %+v; want %d rows %+v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func assertEntityMonths(t *testing.T, got []store.EntityMonth, want map[string]float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows %+v; want %d", len(got), got, len(want))
	}
	for _, g := range got {
		key := g.Entity + "/" + g.Month
		if w, ok := want[key]; !ok || g.Total != w {
			t.Errorf("%s = %v; want %v", key, g.Total, want[key])
		}
	}
}

func TestMonths(t *testing.T) {
	got, err := storetest.Seeded(t).Months(context.Background())
	if err != nil {
		t.Fatalf("Months() failed: %v", err)
	}
	want := []string{"Feb", "Jan", "March"}
	if len(got) != len(want) {
		t.Fatalf("Months() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("month %d = %q; want %q", i, got[i], want[i])
		}
	}
}
