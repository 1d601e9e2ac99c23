package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Coverage depths reported by product profiles.
const (
	clientCoverageTop    = 5
	clientCoverageWide   = 10
	routeCoverageTop     = 3
	DefaultGroupBelowPct = 3.0
)

// ProductRequest selects a product profile. GroupBelowPct merges routes under
// that share into "Other"; zero uses DefaultGroupBelowPct and a negative value
// disables grouping.
type ProductRequest struct {
	Product       string
	Month         string
	GroupBelowPct float64
}

// ProductProfile describes who buys a product and how its sales move.
type ProductProfile struct {
	Product string `json:"product"`
	Month   string `json:"month"`

	TotalQuantity float64 `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgUnitPrice  float64 `json:"avg_unit_price"`
	ActiveClients int     `json:"active_clients"`
	ActiveRoutes  int     `json:"active_routes"`

	Clients             []EntityValue       `json:"clients"`
	ClientPareto        ParetoResult        `json:"client_pareto"`
	ClientConcentration ConcentrationResult `json:"client_concentration"`
	Top10Coverage       float64             `json:"top10_coverage"`

	Routes             []EntityValue       `json:"routes"`
	GroupedRoutes      []EntityValue       `json:"grouped_routes"`
	RouteConcentration ConcentrationResult `json:"route_concentration"`

	Monthly []MonthlyChange `json:"monthly"`
	Summary []string        `json:"summary"`
}

// ProductProfile builds the profile for one product. Distribution metrics use
// quantity.
func (a *Analyzer) ProductProfile(ctx context.Context, req ProductRequest) (*ProductProfile, error) {
	month, err := a.normalizeMonth(req.Month)
	if err != nil {
		return nil, err
	}
	below := req.GroupBelowPct
	if below == 0 {
		below = DefaultGroupBelowPct
	}

	a.log.Debug("fetching product data", zap.String("product", req.Product), zap.String("month", month))

	clients, err := a.tables.ProductClientTotals(ctx, req.Product, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get client totals: %w", err)
	}
	routes, err := a.tables.ProductRouteTotals(ctx, req.Product, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get route totals: %w", err)
	}
	series, err := a.tables.ProductMonthlySeries(ctx, req.Product)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly series: %w", err)
	}
	if len(clients) == 0 && len(series) == 0 {
		return nil, fmt.Errorf("product %q: %w", req.Product, ErrNotFound)
	}

	p := &ProductProfile{
		Product: req.Product,
		Month:   month,
		Clients: QuantityValues(clients),
		Routes:  QuantityValues(routes),
		Monthly: SeriesChanges(a.opts.Calendar, series),
	}

	// Route totals win when present; client totals fill in.
	routeQty, routeRev := sumTotals(p.Routes), sumTotals(RevenueValues(routes))
	clientQty, clientRev := sumTotals(p.Clients), sumTotals(RevenueValues(clients))
	p.TotalQuantity, p.TotalRevenue = routeQty, routeRev
	if routeQty <= 0 {
		p.TotalQuantity = clientQty
	}
	if len(routes) == 0 {
		p.TotalRevenue = clientRev
	}
	p.AvgUnitPrice = safeDiv(p.TotalRevenue, p.TotalQuantity)

	p.ActiveClients = countPositive(p.Clients)
	p.ActiveRoutes = countPositive(p.Routes)

	p.ClientPareto = ParetoRank(p.Clients, a.opts.ParetoThreshold)
	p.ClientConcentration = Concentration(p.Clients, clientCoverageTop)
	p.Top10Coverage = TopKCoverage(values(p.Clients), clientCoverageWide)

	p.RouteConcentration = Concentration(p.Routes, routeCoverageTop)
	p.GroupedRoutes = GroupSmall(p.Routes, below)

	p.Summary = productSummary(p)

	a.log.Info("built product profile",
		zap.String("product", req.Product),
		zap.Int("clients", p.ActiveClients),
		zap.Int("routes", p.ActiveRoutes))
	return p, nil
}

func productSummary(p *ProductProfile) []string {
	lines := []string{
		fmt.Sprintf("Total quantity %.0f, revenue %.0f, avg unit price %.2f.", p.TotalQuantity, p.TotalRevenue, p.AvgUnitPrice),
		fmt.Sprintf("Bought by %d clients on %d routes.", p.ActiveClients, p.ActiveRoutes),
	}
	if p.ClientPareto.Reached {
		lines = append(lines, fmt.Sprintf("%d of %d clients account for %.0f%% of volume.",
			p.ClientPareto.Count, len(p.Clients), p.ClientPareto.Threshold))
	}
	lines = append(lines,
		fmt.Sprintf("Client concentration (HHI): %.3f (%s); top 5 coverage %.1f%%, top 10 coverage %.1f%%.",
			p.ClientConcentration.HHI, p.ClientConcentration.Band, p.ClientConcentration.TopKCoverage, p.Top10Coverage),
		fmt.Sprintf("Route concentration (HHI): %.3f (%s); top 3 routes coverage %.1f%%.",
			p.RouteConcentration.HHI, p.RouteConcentration.Band, p.RouteConcentration.TopKCoverage),
	)
	return lines
}

func sumTotals(ev []EntityValue) float64 {
	total := 0.0
	for _, e := range ev {
		total += nonNegative(e.Value)
	}
	return total
}

func countPositive(ev []EntityValue) int {
	n := 0
	for _, e := range ev {
		if e.Value > 0 {
			n++
		}
	}
	return n
}
