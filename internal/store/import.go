package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Snapshot operations

// InsertCustomer inserts or replaces a customer_master row.
func (s *Store) InsertCustomer(ctx context.Context, c Customer) error {
	return insertCustomer(ctx, s.db, c)
}

// InsertSale inserts a sales_per_client row.
func (s *Store) InsertSale(ctx context.Context, sale Sale) error {
	return insertSale(ctx, s.db, sale)
}

// InsertCustomerSale inserts a customer_wise_sales row.
func (s *Store) InsertCustomerSale(ctx context.Context, cs CustomerSale) error {
	return insertCustomerSale(ctx, s.db, cs)
}

// InsertRouteSale inserts a route_wise_sales row.
func (s *Store) InsertRouteSale(ctx context.Context, rs RouteSale) error {
	return insertRouteSale(ctx, s.db, rs)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCustomer(ctx context.Context, db execer, c Customer) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO customer_master (bp_code, bp_name, group_code, route, sales_manager) VALUES (?, ?, ?, ?, ?)`,
		c.Code, c.Name, c.Group, c.Route, c.Manager)
	if err != nil {
		return fmt.Errorf("failed to insert customer %s: %w", c.Code, err)
	}
	return nil
}

func insertSale(ctx context.Context, db execer, sale Sale) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sales_per_client (customer_code, customer_name, item_description, month, quantity, sales_amt)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sale.CustomerCode, sale.CustomerName, sale.Item, sale.Month, sale.Quantity, sale.Amount)
	if err != nil {
		return fmt.Errorf("failed to insert sale for %s: %w", sale.CustomerCode, err)
	}
	return nil
}

func insertCustomerSale(ctx context.Context, db execer, cs CustomerSale) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO customer_wise_sales (customer_code, customer_name, month, total_ar_invoice) VALUES (?, ?, ?, ?)`,
		cs.CustomerCode, cs.CustomerName, cs.Month, cs.Total)
	if err != nil {
		return fmt.Errorf("failed to insert invoice total for %s: %w", cs.CustomerCode, err)
	}
	return nil
}

func insertRouteSale(ctx context.Context, db execer, rs RouteSale) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO route_wise_sales (route, month, amount) VALUES (?, ?, ?)`,
		rs.Route, rs.Month, rs.Amount)
	if err != nil {
		return fmt.Errorf("failed to insert route total for %s: %w", rs.Route, err)
	}
	return nil
}

// Raw table readers, used to copy a production database into a snapshot.

// Customers returns every customer_master row.
func (s *Store) Customers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	err := s.collect(ctx, "read customer_master",
		`SELECT bp_code, bp_name, group_code, route, sales_manager FROM customer_master`, nil,
		[]string{"bp_code", "bp_name", "group_code", "route", "sales_manager"},
		func(r *rowReader) error {
			out = append(out, Customer{
				Code:    r.str("bp_code"),
				Name:    r.str("bp_name"),
				Group:   r.str("group_code"),
				Route:   r.str("route"),
				Manager: r.str("sales_manager"),
			})
			return nil
		})
	return out, err
}

// Sales returns every sales_per_client row.
func (s *Store) Sales(ctx context.Context) ([]Sale, error) {
	var out []Sale
	err := s.collect(ctx, "read sales_per_client",
		`SELECT customer_code, customer_name, item_description, month, quantity, sales_amt FROM sales_per_client`, nil,
		[]string{"customer_code", "customer_name", "item_description", "month", "quantity", "sales_amt"},
		func(r *rowReader) error {
			out = append(out, Sale{
				CustomerCode: r.str("customer_code"),
				CustomerName: r.str("customer_name"),
				Item:         r.str("item_description"),
				Month:        r.str("month"),
				Quantity:     r.num("quantity"),
				Amount:       r.num("sales_amt"),
			})
			return nil
		})
	return out, err
}

// CustomerSales returns every customer_wise_sales row.
func (s *Store) CustomerSales(ctx context.Context) ([]CustomerSale, error) {
	var out []CustomerSale
	err := s.collect(ctx, "read customer_wise_sales",
		`SELECT customer_code, customer_name, month, total_ar_invoice FROM customer_wise_sales`, nil,
		[]string{"customer_code", "customer_name", "month", "total_ar_invoice"},
		func(r *rowReader) error {
			out = append(out, CustomerSale{
				CustomerCode: r.str("customer_code"),
				CustomerName: r.str("customer_name"),
				Month:        r.str("month"),
				Total:        r.num("total_ar_invoice"),
			})
			return nil
		})
	return out, err
}

// RouteSales returns every route_wise_sales row.
func (s *Store) RouteSales(ctx context.Context) ([]RouteSale, error) {
	var out []RouteSale
	err := s.collect(ctx, "read route_wise_sales",
		`SELECT route, month, amount FROM route_wise_sales`, nil,
		[]string{"route", "month", "amount"},
		func(r *rowReader) error {
			out = append(out, RouteSale{
				Route:  r.str("route"),
				Month:  r.str("month"),
				Amount: r.num("amount"),
			})
			return nil
		})
	return out, err
}

// ImportStats counts the rows copied per table.
type ImportStats struct {
	Customers     int
	Sales         int
	CustomerSales int
	RouteSales    int
}

// Total returns the number of rows copied across all tables.
func (st ImportStats) Total() int {
	return st.Customers + st.Sales + st.CustomerSales + st.RouteSales
}

// CopyFrom replaces the snapshot's contents with the four source tables read
// from src. The copy runs in a single transaction; tick, when non-nil, is
// called after each row is written.
func (s *Store) CopyFrom(ctx context.Context, src *Store, tick func(table string)) (ImportStats, error) {
	var stats ImportStats
	if s.driver != DriverSQLite {
		return stats, fmt.Errorf("import target must be a %s snapshot, got %s", DriverSQLite, s.driver)
	}

	customers, err := src.Customers(ctx)
	if err != nil {
		return stats, err
	}
	sales, err := src.Sales(ctx)
	if err != nil {
		return stats, err
	}
	customerSales, err := src.CustomerSales(ctx)
	if err != nil {
		return stats, err
	}
	routeSales, err := src.RouteSales(ctx)
	if err != nil {
		return stats, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"customer_master", "sales_per_client", "customer_wise_sales", "route_wise_sales"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return stats, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	note := func(table string) {
		if tick != nil {
			tick(table)
		}
	}

	for _, c := range customers {
		if err := insertCustomer(ctx, tx, c); err != nil {
			return stats, err
		}
		stats.Customers++
		note("customer_master")
	}
	for _, sale := range sales {
		if err := insertSale(ctx, tx, sale); err != nil {
			return stats, err
		}
		stats.Sales++
		note("sales_per_client")
	}
	for _, cs := range customerSales {
		if err := insertCustomerSale(ctx, tx, cs); err != nil {
			return stats, err
		}
		stats.CustomerSales++
		note("customer_wise_sales")
	}
	for _, rs := range routeSales {
		if err := insertRouteSale(ctx, tx, rs); err != nil {
			return stats, err
		}
		stats.RouteSales++
		note("route_wise_sales")
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit import: %w", err)
	}
	return stats, nil
}

// CountRows returns the combined row count of the four sales tables. Callers
// use it on the source to size progress before CopyFrom starts.
func (s *Store) CountRows(ctx context.Context) (int, error) {
	total := 0
	for _, table := range []string{"customer_master", "sales_per_client", "customer_wise_sales", "route_wise_sales"} {
		var n int
		err := s.collect(ctx, "count "+table, "SELECT COUNT(*) AS n FROM "+table, nil, []string{"n"},
			func(r *rowReader) error {
				n = int(r.num("n"))
				return nil
			})
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Months returns the distinct month labels present in sales_per_client, in
// lexical order.
func (s *Store) Months(ctx context.Context) ([]string, error) {
	var out []string
	err := s.collect(ctx, "list months",
		`SELECT DISTINCT month FROM sales_per_client ORDER BY month`, nil, []string{"month"},
		func(r *rowReader) error {
			out = append(out, r.str("month"))
			return nil
		})
	return out, err
}
