package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/salesprofile/internal/months"
)

// ErrMissingColumn is returned when a result set lacks a column the caller
// depends on.
var ErrMissingColumn = errors.New("missing column")

// ErrNotInitialized is returned when a snapshot has no sales tables yet.
var ErrNotInitialized = errors.New("database not initialized: run 'salesprofile import' first")

// Client queries

// ListClients returns the distinct client names of a customer group, sorted.
// An empty group or "All" lists every client.
func (s *Store) ListClients(ctx context.Context, group string) ([]string, error) {
	query := `SELECT DISTINCT bp_name FROM customer_master`
	var args []any
	if !isAllGroup(group) {
		query += ` WHERE group_code = ?`
		args = append(args, group)
	}
	query += ` ORDER BY bp_name`

	var names []string
	err := s.collect(ctx, "list clients", query, args, []string{"bp_name"}, func(r *rowReader) error {
		names = append(names, r.str("bp_name"))
		return nil
	})
	return names, err
}

// ClientProductMonthly returns the client's quantity and revenue per
// (product, month).
func (s *Store) ClientProductMonthly(ctx context.Context, client string) ([]MonthlyRecord, error) {
	query := `
		SELECT month, item_description,
			SUM(quantity) AS total_quantity_sold,
			SUM(sales_amt) AS sales_amt
		FROM sales_per_client
		WHERE customer_name = ?
		GROUP BY item_description, month
	`

	var records []MonthlyRecord
	err := s.collect(ctx, "get monthly sales for "+client, query, []any{client},
		[]string{"month", "item_description", "total_quantity_sold", "sales_amt"},
		func(r *rowReader) error {
			records = append(records, MonthlyRecord{
				Entity:   r.str("item_description"),
				Month:    r.str("month"),
				Quantity: r.num("total_quantity_sold"),
				Revenue:  r.num("sales_amt"),
			})
			return nil
		})
	return records, err
}

// ClientProductTotals returns the client's per-product totals, optionally
// restricted to one month.
func (s *Store) ClientProductTotals(ctx context.Context, client, month string) ([]EntityTotal, error) {
	query := `
		SELECT item_description,
			SUM(quantity) AS total_quantity_sold,
			SUM(sales_amt) AS sales_amt
		FROM sales_per_client
		WHERE customer_name = ?
	`
	args := []any{client}
	if !months.IsAll(month) {
		query += ` AND month = ?`
		args = append(args, month)
	}
	query += ` GROUP BY item_description ORDER BY total_quantity_sold DESC, item_description`

	return s.totals(ctx, "get product totals for "+client, query, args,
		"item_description", "total_quantity_sold", "sales_amt")
}

// AllClientsProductTotals returns per-product totals across every client of a
// group, optionally restricted to one month.
func (s *Store) AllClientsProductTotals(ctx context.Context, group, month string) ([]EntityTotal, error) {
	query := `
		SELECT item_description,
			SUM(quantity) AS total_quantity_sold,
			SUM(sales_amt) AS sales_amt
		FROM sales_per_client
		WHERE 1 = 1
	`
	var args []any
	if !months.IsAll(month) {
		query += ` AND month = ?`
		args = append(args, month)
	}
	if !isAllGroup(group) {
		query += ` AND customer_code IN (SELECT bp_code FROM customer_master WHERE group_code = ?)`
		args = append(args, group)
	}
	query += ` GROUP BY item_description ORDER BY total_quantity_sold DESC, item_description`

	return s.totals(ctx, "get product totals for all clients", query, args,
		"item_description", "total_quantity_sold", "sales_amt")
}

// ClientMonthlySales returns the client's invoiced total per month together
// with the client's route.
func (s *Store) ClientMonthlySales(ctx context.Context, client string) ([]ClientMonthSales, error) {
	query := `
		SELECT cws.month,
			SUM(cws.total_ar_invoice) AS total_sold_to_client,
			cm.route
		FROM customer_wise_sales cws
		JOIN customer_master cm ON cws.customer_code = cm.bp_code
		WHERE cm.bp_name = ?
		GROUP BY cws.month, cm.route
	`

	var out []ClientMonthSales
	err := s.collect(ctx, "get invoice totals for "+client, query, []any{client},
		[]string{"month", "route", "total_sold_to_client"},
		func(r *rowReader) error {
			out = append(out, ClientMonthSales{
				Month: r.str("month"),
				Route: r.str("route"),
				Total: r.num("total_sold_to_client"),
			})
			return nil
		})
	return out, err
}

// RouteMonthlySales returns a route's total per month.
func (s *Store) RouteMonthlySales(ctx context.Context, route string) ([]MonthTotal, error) {
	query := `
		SELECT month, SUM(amount) AS total_route_sales
		FROM route_wise_sales
		WHERE route = ?
		GROUP BY month
	`

	var out []MonthTotal
	err := s.collect(ctx, "get route totals for "+route, query, []any{route},
		[]string{"month", "total_route_sales"},
		func(r *rowReader) error {
			out = append(out, MonthTotal{Month: r.str("month"), Total: r.num("total_route_sales")})
			return nil
		})
	return out, err
}

// ClientTotals returns every client's invoiced total within a group, largest
// first.
func (s *Store) ClientTotals(ctx context.Context, group string) ([]EntityTotal, error) {
	query := `
		SELECT cm.bp_name AS client_name,
			SUM(cws.total_ar_invoice) AS total_sales
		FROM customer_wise_sales cws
		JOIN customer_master cm ON cws.customer_code = cm.bp_code
	`
	var args []any
	if !isAllGroup(group) {
		query += ` WHERE cm.group_code = ?`
		args = append(args, group)
	}
	query += ` GROUP BY cm.bp_name ORDER BY total_sales DESC, cm.bp_name`

	var out []EntityTotal
	err := s.collect(ctx, "get client totals", query, args,
		[]string{"client_name", "total_sales"},
		func(r *rowReader) error {
			out = append(out, EntityTotal{Entity: r.str("client_name"), Revenue: r.num("total_sales")})
			return nil
		})
	return out, err
}

// TotalSales returns the invoiced total of a group, or of every client when
// group is empty or "All".
func (s *Store) TotalSales(ctx context.Context, group string) (float64, error) {
	query := `
		SELECT SUM(cws.total_ar_invoice) AS total_sales
		FROM customer_wise_sales cws
	`
	var args []any
	if !isAllGroup(group) {
		query += ` JOIN customer_master cm ON cws.customer_code = cm.bp_code WHERE cm.group_code = ?`
		args = append(args, group)
	}

	var total float64
	err := s.collect(ctx, "get total sales", query, args, []string{"total_sales"},
		func(r *rowReader) error {
			total = r.num("total_sales")
			return nil
		})
	return total, err
}

// ClientMonthlyTotals returns every client's invoiced total per month within a
// group.
func (s *Store) ClientMonthlyTotals(ctx context.Context, group string) ([]EntityMonth, error) {
	query := `
		SELECT cm.bp_name AS client_name, cws.month,
			SUM(cws.total_ar_invoice) AS total_sales
		FROM customer_wise_sales cws
		JOIN customer_master cm ON cws.customer_code = cm.bp_code
	`
	var args []any
	if !isAllGroup(group) {
		query += ` WHERE cm.group_code = ?`
		args = append(args, group)
	}
	query += ` GROUP BY cm.bp_name, cws.month`

	return s.entityMonths(ctx, "get monthly client totals", query, args, "client_name", "month", "total_sales")
}

// ClientsProductMonthly returns the combined quantity and revenue per
// (product, month) of the named clients. No clients means no rows.
func (s *Store) ClientsProductMonthly(ctx context.Context, clients []string) ([]MonthlyRecord, error) {
	if len(clients) == 0 {
		return nil, nil
	}
	query := `
		SELECT spc.month, spc.item_description,
			SUM(spc.quantity) AS total_quantity_sold,
			SUM(spc.sales_amt) AS total_sales_amt
		FROM sales_per_client spc
		JOIN customer_master cm ON spc.customer_code = cm.bp_code
		WHERE cm.bp_name IN (` + placeholders(len(clients)) + `)
		GROUP BY spc.month, spc.item_description
	`
	args := make([]any, len(clients))
	for i, c := range clients {
		args[i] = c
	}

	var records []MonthlyRecord
	err := s.collect(ctx, "get product sales for selected clients", query, args,
		[]string{"month", "item_description", "total_quantity_sold", "total_sales_amt"},
		func(r *rowReader) error {
			records = append(records, MonthlyRecord{
				Entity:   r.str("item_description"),
				Month:    r.str("month"),
				Quantity: r.num("total_quantity_sold"),
				Revenue:  r.num("total_sales_amt"),
			})
			return nil
		})
	return records, err
}

// Sales manager queries. Manager figures come from sales_per_client so a
// product filter applies to every one of them; customers without a manager
// are left out.

// ManagerTotals returns every sales manager's quantity and revenue, largest
// revenue first. Empty or "All" month and product select everything.
func (s *Store) ManagerTotals(ctx context.Context, month, product string) ([]EntityTotal, error) {
	query := `
		SELECT cm.sales_manager,
			SUM(spc.quantity) AS total_quantity_sold,
			SUM(spc.sales_amt) AS total_sales
		FROM sales_per_client spc
		JOIN customer_master cm ON spc.customer_code = cm.bp_code
		WHERE cm.sales_manager IS NOT NULL AND cm.sales_manager <> ''
	`
	var args []any
	if !months.IsAll(month) {
		query += ` AND spc.month = ?`
		args = append(args, month)
	}
	if !isAllProduct(product) {
		query += ` AND spc.item_description = ?`
		args = append(args, product)
	}
	query += ` GROUP BY cm.sales_manager ORDER BY total_sales DESC, cm.sales_manager`

	return s.totals(ctx, "get sales manager totals", query, args,
		"sales_manager", "total_quantity_sold", "total_sales")
}

// ManagerMonthlySales returns every sales manager's revenue per month,
// optionally for one product.
func (s *Store) ManagerMonthlySales(ctx context.Context, product string) ([]EntityMonth, error) {
	query := `
		SELECT cm.sales_manager, spc.month,
			SUM(spc.sales_amt) AS total_sales
		FROM sales_per_client spc
		JOIN customer_master cm ON spc.customer_code = cm.bp_code
		WHERE cm.sales_manager IS NOT NULL AND cm.sales_manager <> ''
	`
	var args []any
	if !isAllProduct(product) {
		query += ` AND spc.item_description = ?`
		args = append(args, product)
	}
	query += ` GROUP BY cm.sales_manager, spc.month`

	return s.entityMonths(ctx, "get monthly sales manager totals", query, args, "sales_manager", "month", "total_sales")
}

// ManagerClientTotals returns the totals of each client a sales manager
// handles, largest revenue first.
func (s *Store) ManagerClientTotals(ctx context.Context, manager, month, product string) ([]EntityTotal, error) {
	query := `
		SELECT cm.bp_name AS client_name,
			SUM(spc.quantity) AS total_quantity_sold,
			SUM(spc.sales_amt) AS total_sales
		FROM sales_per_client spc
		JOIN customer_master cm ON spc.customer_code = cm.bp_code
		WHERE cm.sales_manager = ?
	`
	args := []any{manager}
	if !months.IsAll(month) {
		query += ` AND spc.month = ?`
		args = append(args, month)
	}
	if !isAllProduct(product) {
		query += ` AND spc.item_description = ?`
		args = append(args, product)
	}
	query += ` GROUP BY cm.bp_name ORDER BY total_sales DESC, cm.bp_name`

	return s.totals(ctx, "get client totals for "+manager, query, args,
		"client_name", "total_quantity_sold", "total_sales")
}

// Product queries

// ListProducts returns the distinct product names, sorted.
func (s *Store) ListProducts(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT item_description FROM sales_per_client ORDER BY item_description`

	var names []string
	err := s.collect(ctx, "list products", query, nil, []string{"item_description"}, func(r *rowReader) error {
		names = append(names, r.str("item_description"))
		return nil
	})
	return names, err
}

// ProductClientTotals returns per-client totals for a product, largest
// quantity first.
func (s *Store) ProductClientTotals(ctx context.Context, product, month string) ([]EntityTotal, error) {
	query := `
		SELECT customer_name,
			SUM(quantity) AS total_quantity_sold,
			SUM(sales_amt) AS total_sales_amount
		FROM sales_per_client
		WHERE item_description = ?
	`
	args := []any{product}
	if !months.IsAll(month) {
		query += ` AND month = ?`
		args = append(args, month)
	}
	query += ` GROUP BY customer_name ORDER BY total_quantity_sold DESC, customer_name`

	return s.totals(ctx, "get client totals for "+product, query, args,
		"customer_name", "total_quantity_sold", "total_sales_amount")
}

// ProductRouteTotals returns per-route totals for a product, largest quantity
// first.
func (s *Store) ProductRouteTotals(ctx context.Context, product, month string) ([]EntityTotal, error) {
	query := `
		SELECT cm.route,
			SUM(spc.quantity) AS total_quantity_sold,
			SUM(spc.sales_amt) AS total_sales_amount
		FROM sales_per_client spc
		JOIN customer_master cm ON spc.customer_code = cm.bp_code
		WHERE spc.item_description = ?
	`
	args := []any{product}
	if !months.IsAll(month) {
		query += ` AND spc.month = ?`
		args = append(args, month)
	}
	query += ` GROUP BY cm.route ORDER BY total_quantity_sold DESC, cm.route`

	return s.totals(ctx, "get route totals for "+product, query, args,
		"route", "total_quantity_sold", "total_sales_amount")
}

// ProductMonthlySeries returns a product's monthly volume and the number of
// distinct clients and routes that bought it.
func (s *Store) ProductMonthlySeries(ctx context.Context, product string) ([]ProductMonth, error) {
	query := `
		SELECT spc.month,
			SUM(spc.quantity) AS total_quantity_sold,
			SUM(spc.sales_amt) AS total_sales_amount,
			COUNT(DISTINCT spc.customer_code) AS unique_clients,
			COUNT(DISTINCT cm.route) AS unique_routes
		FROM sales_per_client spc
		LEFT JOIN customer_master cm ON spc.customer_code = cm.bp_code
		WHERE spc.item_description = ?
		GROUP BY spc.month
	`

	var out []ProductMonth
	err := s.collect(ctx, "get monthly series for "+product, query, []any{product},
		[]string{"month", "total_quantity_sold", "total_sales_amount", "unique_clients", "unique_routes"},
		func(r *rowReader) error {
			out = append(out, ProductMonth{
				Month:         r.str("month"),
				Quantity:      r.num("total_quantity_sold"),
				Revenue:       r.num("total_sales_amount"),
				UniqueClients: int(r.num("unique_clients")),
				UniqueRoutes:  int(r.num("unique_routes")),
			})
			return nil
		})
	return out, err
}

// Helpers

func (s *Store) totals(ctx context.Context, what, query string, args []any, entityCol, qtyCol, revCol string) ([]EntityTotal, error) {
	var out []EntityTotal
	err := s.collect(ctx, what, query, args, []string{entityCol, qtyCol, revCol}, func(r *rowReader) error {
		out = append(out, EntityTotal{
			Entity:   r.str(entityCol),
			Quantity: r.num(qtyCol),
			Revenue:  r.num(revCol),
		})
		return nil
	})
	return out, err
}

func (s *Store) entityMonths(ctx context.Context, what, query string, args []any, entityCol, monthCol, totalCol string) ([]EntityMonth, error) {
	var out []EntityMonth
	err := s.collect(ctx, what, query, args, []string{entityCol, monthCol, totalCol}, func(r *rowReader) error {
		out = append(out, EntityMonth{
			Entity: r.str(entityCol),
			Month:  r.str(monthCol),
			Total:  r.num(totalCol),
		})
		return nil
	})
	return out, err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// collect runs query, verifies the result carries every column in want and
// calls fn once per row.
func (s *Store) collect(ctx context.Context, what, query string, args []any, want []string, fn func(*rowReader) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return fmt.Errorf("failed to %s: %w", what, ErrNotInitialized)
		}
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	r, err := newRowReader(cols, want)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}

	for rows.Next() {
		if err := rows.Scan(r.dest...); err != nil {
			return fmt.Errorf("failed to scan row while trying to %s: %w", what, err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}

// rowReader scans a row by column name. NULL strings read as "" and NULL
// numbers as 0.
type rowReader struct {
	pos  map[string]int
	vals []any
	dest []any
}

func newRowReader(cols, want []string) (*rowReader, error) {
	if err := checkColumns(cols, want); err != nil {
		return nil, err
	}
	r := &rowReader{
		pos:  make(map[string]int, len(cols)),
		vals: make([]any, len(cols)),
		dest: make([]any, len(cols)),
	}
	for i, c := range cols {
		r.pos[strings.ToLower(c)] = i
		r.dest[i] = &r.vals[i]
	}
	return r, nil
}

func (r *rowReader) str(col string) string {
	var ns sql.NullString
	if err := ns.Scan(r.vals[r.pos[col]]); err != nil || !ns.Valid {
		return ""
	}
	return strings.TrimSpace(ns.String)
}

func (r *rowReader) num(col string) float64 {
	var nf sql.NullFloat64
	if err := nf.Scan(r.vals[r.pos[col]]); err != nil || !nf.Valid {
		return 0
	}
	return nf.Float64
}

// checkColumns reports ErrMissingColumn for the first name in want absent from
// cols. Matching is case-insensitive.
func checkColumns(cols, want []string) error {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c)] = true
	}
	for _, w := range want {
		if !have[strings.ToLower(w)] {
			return fmt.Errorf("%w: %s (got %s)", ErrMissingColumn, w, strings.Join(cols, ", "))
		}
	}
	return nil
}

func isAllGroup(group string) bool {
	return months.IsAll(group)
}

func isAllProduct(product string) bool {
	return months.IsAll(product)
}
