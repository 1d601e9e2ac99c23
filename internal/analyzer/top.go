package analyzer

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/store"
)

// TopClientsRequest selects the top Percent of a group's clients by sales.
type TopClientsRequest struct {
	Group   string
	Percent float64
}

// TopClientsReport is the share of sales held by a group's largest clients.
type TopClientsReport struct {
	Group          string        `json:"group"`
	Percent        float64       `json:"percent"`
	GroupClients   int           `json:"group_clients"`
	Clients        []EntityValue `json:"clients"`
	TopTotal       float64       `json:"top_total"`
	GroupTotal     float64       `json:"group_total"`
	OverallTotal   float64       `json:"overall_total"`
	ShareOfGroup   float64       `json:"share_of_group"`
	ShareOfOverall float64       `json:"share_of_overall"`
	Pareto         ParetoResult  `json:"pareto"`

	// Breakdowns over the selected clients. Monthly values follow Months.
	Months         []string            `json:"months"`
	ClientMonthly  []SeriesRow         `json:"client_monthly"`
	Products       []store.EntityTotal `json:"products"`
	ProductMonthly []SeriesRow         `json:"product_monthly"`
}

// SeriesRow is an entity's revenue per calendar month and in total.
type SeriesRow struct {
	Entity string    `json:"entity"`
	Total  float64   `json:"total"`
	Months []float64 `json:"months"`
}

// TopClients ranks a group's clients by invoiced sales and keeps the top
// floor(n*Percent/100).
func (a *Analyzer) TopClients(ctx context.Context, req TopClientsRequest) (*TopClientsReport, error) {
	if req.Percent < 0 || req.Percent > 100 {
		return nil, fmt.Errorf("%w: percent must be between 0 and 100, got %g", ErrInvalidRequest, req.Percent)
	}
	group := req.Group
	if group == "" {
		group = a.opts.Group
	}

	totals, err := a.tables.ClientTotals(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to get client totals: %w", err)
	}
	groupTotal, err := a.tables.TotalSales(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to get group total: %w", err)
	}
	overall, err := a.tables.TotalSales(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get overall total: %w", err)
	}

	dist := RevenueValues(totals)
	top := TopPercent(dist, req.Percent)

	r := &TopClientsReport{
		Group:        group,
		Percent:      req.Percent,
		GroupClients: len(totals),
		Clients:      top,
		TopTotal:     sumTotals(top),
		GroupTotal:   groupTotal,
		OverallTotal: overall,
		Pareto:       ParetoRank(dist, a.opts.ParetoThreshold),
	}
	r.ShareOfGroup = safeDiv(r.TopTotal, groupTotal) * 100
	r.ShareOfOverall = safeDiv(r.TopTotal, overall) * 100

	if err := a.topClientBreakdowns(ctx, group, r); err != nil {
		return nil, err
	}

	a.log.Info("built top clients report",
		zap.String("group", group),
		zap.Float64("percent", req.Percent),
		zap.Int("clients", len(top)))
	return r, nil
}

// topClientBreakdowns fills the per-client monthly invoices and the product
// sales of the clients in r.
func (a *Analyzer) topClientBreakdowns(ctx context.Context, group string, r *TopClientsReport) error {
	cal := a.opts.Calendar
	r.Months = cal.Labels()
	r.ClientMonthly = []SeriesRow{}
	r.Products = []store.EntityTotal{}
	r.ProductMonthly = []SeriesRow{}
	if len(r.Clients) == 0 {
		return nil
	}

	names := make([]string, len(r.Clients))
	for i, c := range r.Clients {
		names[i] = c.Entity
	}

	monthly, err := a.tables.ClientMonthlyTotals(ctx, group)
	if err != nil {
		return fmt.Errorf("failed to get monthly client totals: %w", err)
	}
	byClient := a.seriesByEntity("customer_wise_sales", monthly)
	for _, c := range r.Clients {
		r.ClientMonthly = append(r.ClientMonthly, SeriesRow{
			Entity: c.Entity,
			Total:  c.Value,
			Months: byClient.months(c.Entity, cal.Len()),
		})
	}

	records, err := a.tables.ClientsProductMonthly(ctx, names)
	if err != nil {
		return fmt.Errorf("failed to get product sales for top clients: %w", err)
	}
	a.warnOffCalendar("sales_per_client", recordMonths(records))

	totals := map[string]*store.EntityTotal{}
	byProduct := map[string][]float64{}
	for _, rec := range records {
		t, ok := totals[rec.Entity]
		if !ok {
			t = &store.EntityTotal{Entity: rec.Entity}
			totals[rec.Entity] = t
			byProduct[rec.Entity] = make([]float64, cal.Len())
		}
		t.Quantity += nonNegative(rec.Quantity)
		t.Revenue += nonNegative(rec.Revenue)
		if idx, ok := monthIndex(cal, rec.Month); ok {
			byProduct[rec.Entity][idx] += nonNegative(rec.Revenue)
		}
	}
	for _, t := range totals {
		r.Products = append(r.Products, *t)
	}
	sort.Slice(r.Products, func(i, j int) bool {
		if r.Products[i].Revenue != r.Products[j].Revenue {
			return r.Products[i].Revenue > r.Products[j].Revenue
		}
		return r.Products[i].Entity < r.Products[j].Entity
	})
	for _, p := range r.Products {
		r.ProductMonthly = append(r.ProductMonthly, SeriesRow{
			Entity: p.Entity,
			Total:  p.Revenue,
			Months: byProduct[p.Entity],
		})
	}
	return nil
}

// monthSeries holds calendar-aligned totals per entity.
type monthSeries map[string][]float64

func (m monthSeries) months(entity string, n int) []float64 {
	if v, ok := m[entity]; ok {
		return v
	}
	return make([]float64, n)
}

// seriesByEntity buckets rows into calendar months per entity. Rows whose
// month is off the calendar are logged and dropped.
func (a *Analyzer) seriesByEntity(source string, rows []store.EntityMonth) monthSeries {
	cal := a.opts.Calendar
	out := monthSeries{}
	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = row.Month
		idx, ok := monthIndex(cal, row.Month)
		if !ok {
			continue
		}
		v, seen := out[row.Entity]
		if !seen {
			v = make([]float64, cal.Len())
			out[row.Entity] = v
		}
		v[idx] += nonNegative(row.Total)
	}
	a.warnOffCalendar(source, labels)
	return out
}

func recordMonths(records []store.MonthlyRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Month
	}
	return out
}
