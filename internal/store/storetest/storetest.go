// Package storetest provides an in-memory sales snapshot seeded with a small,
// fixed data set for tests.
//
// Customers: Alpha Stores and Beta Mart (DISTRIBUTORS, route R1), Gamma Retail
// (RETAIL, route R2). Alpha Stores and Gamma Retail report to sales manager
// Grace Otieno, Beta Mart to Paul Mwangi.
package storetest

import (
	"context"
	"testing"

	"github.com/blackwell-systems/salesprofile/internal/store"
)

// Customers in the fixture.
var Customers = []store.Customer{
	{Code: "C1", Name: "Alpha Stores", Group: "DISTRIBUTORS", Route: "R1", Manager: "Grace Otieno"},
	{Code: "C2", Name: "Beta Mart", Group: "DISTRIBUTORS", Route: "R1", Manager: "Paul Mwangi"},
	{Code: "C3", Name: "Gamma Retail", Group: "RETAIL", Route: "R2", Manager: "Grace Otieno"},
}

// Sales in the fixture.
var Sales = []store.Sale{
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Item: "Milk", Month: "Jan", Quantity: 10, Amount: 100},
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Item: "Bread", Month: "Jan", Quantity: 5, Amount: 50},
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Item: "Milk", Month: "Feb", Quantity: 8, Amount: 80},
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Item: "Eggs", Month: "March", Quantity: 4, Amount: 40},
	{CustomerCode: "C2", CustomerName: "Beta Mart", Item: "Milk", Month: "Jan", Quantity: 3, Amount: 30},
	{CustomerCode: "C2", CustomerName: "Beta Mart", Item: "Eggs", Month: "Feb", Quantity: 6, Amount: 60},
	{CustomerCode: "C3", CustomerName: "Gamma Retail", Item: "Milk", Month: "Jan", Quantity: 7, Amount: 70},
}

// CustomerSales in the fixture.
var CustomerSales = []store.CustomerSale{
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Month: "Jan", Total: 150},
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Month: "Feb", Total: 80},
	{CustomerCode: "C1", CustomerName: "Alpha Stores", Month: "March", Total: 40},
	{CustomerCode: "C2", CustomerName: "Beta Mart", Month: "Jan", Total: 30},
	{CustomerCode: "C2", CustomerName: "Beta Mart", Month: "Feb", Total: 60},
	{CustomerCode: "C3", CustomerName: "Gamma Retail", Month: "Jan", Total: 70},
}

// RouteSales in the fixture.
var RouteSales = []store.RouteSale{
	{Route: "R1", Month: "Jan", Amount: 180},
	{Route: "R1", Month: "Feb", Amount: 140},
	{Route: "R1", Month: "March", Amount: 40},
	{Route: "R2", Month: "Jan", Amount: 70},
}

// New returns an empty in-memory snapshot with the schema created. The store
// is closed when the test ends.
func New(tb testing.TB) *store.Store {
	tb.Helper()

	s, err := store.New(":memory:")
	if err != nil {
		tb.Fatalf("failed to create store: %v", err)
	}
	tb.Cleanup(func() { s.Close() })

	if err := s.CreateSchema(); err != nil {
		tb.Fatalf("failed to create schema: %v", err)
	}
	return s
}

// Seeded returns an in-memory snapshot holding the fixture rows.
func Seeded(tb testing.TB) *store.Store {
	tb.Helper()

	s := New(tb)
	ctx := context.Background()
	for _, c := range Customers {
		if err := s.InsertCustomer(ctx, c); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
	for _, sale := range Sales {
		if err := s.InsertSale(ctx, sale); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
	for _, cs := range CustomerSales {
		if err := s.InsertCustomerSale(ctx, cs); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
	for _, rs := range RouteSales {
		if err := s.InsertRouteSale(ctx, rs); err != nil {
			tb.Fatalf("seed: %v", err)
		}
	}
	return s
}
