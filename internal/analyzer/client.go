package analyzer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/store"
)

// ClientRequest selects a client profile. Zero values take the analyzer's
// defaults; an empty Anchor uses the client's top product.
type ClientRequest struct {
	Client      string
	Month       string
	Anchor      string
	MinCoMonths int
	Limit       int
}

// ClientProfile is everything known about one client's purchasing.
type ClientProfile struct {
	Client string `json:"client"`
	Month  string `json:"month"`
	Group  string `json:"group"`
	Route  string `json:"route"`

	Basket   BasketSummary `json:"basket"`
	Shares   []BasketShare `json:"shares"`
	Baseline []BasketShare `json:"baseline"`

	Matrix          BasketMatrix `json:"matrix"`
	Pairs           []PairMetric `json:"pairs"`
	Anchor          string       `json:"anchor"`
	Recommendations []PairMetric `json:"recommendations"`

	Churn      ChurnAssessment `json:"churn"`
	Forecast   ForecastResult  `json:"forecast"`
	RouteShare []RouteShareRow `json:"route_share"`
	Trends     []ProductTrend  `json:"trends"`

	Summary []string `json:"summary"`
}

// ClientChurn pairs a client with its churn assessment.
type ClientChurn struct {
	Client string `json:"client"`
	ChurnAssessment
}

// ClientProfile builds the full profile for one client.
func (a *Analyzer) ClientProfile(ctx context.Context, req ClientRequest) (*ClientProfile, error) {
	month, err := a.normalizeMonth(req.Month)
	if err != nil {
		return nil, err
	}
	if req.MinCoMonths <= 0 {
		req.MinCoMonths = a.opts.MinCoMonths
	}
	if req.Limit <= 0 {
		req.Limit = a.opts.CrossSellLimit
	}

	a.log.Debug("fetching client data", zap.String("client", req.Client), zap.String("month", month))

	records, err := a.tables.ClientProductMonthly(ctx, req.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly sales: %w", err)
	}
	totals, err := a.tables.ClientProductTotals(ctx, req.Client, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get product totals: %w", err)
	}
	baseline, err := a.tables.AllClientsProductTotals(ctx, a.opts.Group, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline totals: %w", err)
	}
	invoices, err := a.tables.ClientMonthlySales(ctx, req.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice totals: %w", err)
	}
	if len(records) == 0 && len(invoices) == 0 {
		return nil, fmt.Errorf("client %q: %w", req.Client, ErrNotFound)
	}

	route := routeOf(invoices)
	var routeSales []store.MonthTotal
	if route != "" {
		routeSales, err = a.tables.RouteMonthlySales(ctx, route)
		if err != nil {
			return nil, fmt.Errorf("failed to get route totals: %w", err)
		}
	}

	recordMonths := make([]string, len(records))
	for i, r := range records {
		recordMonths[i] = r.Month
	}
	a.warnOffCalendar("client sales", recordMonths)

	cal := a.opts.Calendar
	p := &ClientProfile{
		Client:     req.Client,
		Month:      month,
		Group:      a.opts.Group,
		Route:      route,
		Basket:     SummarizeBasket(cal, records),
		Shares:     BasketShares(totals),
		Baseline:   BasketShares(baseline),
		Matrix:     BuildBasketMatrix(cal, records),
		Churn:      AssessChurn(cal, records, a.opts.Churn),
		RouteShare: RouteShare(cal, invoices, routeSales),
		Trends:     ProductChanges(cal, records),
	}
	p.Pairs = CrossSell(p.Matrix)

	p.Anchor = req.Anchor
	if p.Anchor == "" {
		p.Anchor = topProduct(records)
	}
	p.Recommendations = Recommend(p.Pairs, RecommendQuery{
		Anchor:      p.Anchor,
		MinCoMonths: req.MinCoMonths,
		Limit:       req.Limit,
	})

	p.Forecast = a.clientForecast(records)
	p.Summary = clientSummary(p)

	a.log.Info("built client profile",
		zap.String("client", req.Client),
		zap.Int("products", p.Basket.Breadth),
		zap.Int("pairs", len(p.Pairs)),
		zap.String("churn", string(p.Churn.Risk)))
	return p, nil
}

// CrossSellPairs returns every pair for a client, and the recommendations for
// req.Anchor (or the client's top product).
func (a *Analyzer) CrossSellPairs(ctx context.Context, req ClientRequest) (pairs, recs []PairMetric, anchor string, err error) {
	records, err := a.tables.ClientProductMonthly(ctx, req.Client)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to get monthly sales: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, "", fmt.Errorf("client %q: %w", req.Client, ErrNotFound)
	}
	if req.MinCoMonths <= 0 {
		req.MinCoMonths = a.opts.MinCoMonths
	}
	if req.Limit <= 0 {
		req.Limit = a.opts.CrossSellLimit
	}

	pairs = CrossSell(BuildBasketMatrix(a.opts.Calendar, records))
	anchor = req.Anchor
	if anchor == "" {
		anchor = topProduct(records)
	}
	recs = Recommend(pairs, RecommendQuery{Anchor: anchor, MinCoMonths: req.MinCoMonths, Limit: req.Limit})
	return pairs, recs, anchor, nil
}

// ClientChurn assesses churn risk for one client.
func (a *Analyzer) ClientChurn(ctx context.Context, client string) (*ClientChurn, error) {
	records, err := a.tables.ClientProductMonthly(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly sales: %w", err)
	}
	return &ClientChurn{Client: client, ChurnAssessment: AssessChurn(a.opts.Calendar, records, a.opts.Churn)}, nil
}

// ChurnScan assesses every client in group. tick, when non-nil, is called
// after each client.
func (a *Analyzer) ChurnScan(ctx context.Context, group string, tick func(ClientChurn)) ([]ClientChurn, error) {
	clients, err := a.Clients(ctx, group)
	if err != nil {
		return nil, err
	}

	out := make([]ClientChurn, 0, len(clients))
	for _, c := range clients {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cc, err := a.ClientChurn(ctx, c)
		if err != nil {
			return out, err
		}
		out = append(out, *cc)
		if tick != nil {
			tick(*cc)
		}
	}
	a.log.Info("churn scan complete", zap.String("group", group), zap.Int("clients", len(out)))
	return out, nil
}

// clientForecast projects monthly revenue, or quantity when the client has no
// recorded revenue, over the months present in the data.
func (a *Analyzer) clientForecast(records []store.MonthlyRecord) ForecastResult {
	_, qty, rev := ObservedSeries(a.opts.Calendar, records)

	basis, series := BasisRevenue, rev
	revTotal := 0.0
	for _, v := range rev {
		revTotal += v
	}
	if revTotal <= 0 {
		basis, series = BasisQuantity, qty
	}

	f := EMAForecast(series, a.opts.Alpha, a.opts.Horizon)
	f.Basis = basis
	return f
}

// topProduct returns the product with the largest total quantity, ties broken
// by name.
func topProduct(records []store.MonthlyRecord) string {
	byProduct := make(map[string]float64)
	for _, r := range records {
		byProduct[r.Entity] += r.Quantity
	}
	best, bestQty := "", math.Inf(-1)
	for p, q := range byProduct {
		if q > bestQty || (q == bestQty && p < best) {
			best, bestQty = p, q
		}
	}
	return best
}

func routeOf(invoices []store.ClientMonthSales) string {
	for _, inv := range invoices {
		if inv.Route != "" {
			return inv.Route
		}
	}
	return ""
}

func clientSummary(p *ClientProfile) []string {
	b := p.Basket
	lines := []string{
		fmt.Sprintf("Basket breadth: %d products; avg depth %.2f units/product/month.", b.Breadth, b.AvgDepth),
		fmt.Sprintf("Top item dependence: Top 1 %.1f%%, Top 3 %.1f%%, Top 5 %.1f%% of volume.",
			b.Top1Dependence, b.Top3Dependence, b.Top5Dependence),
		fmt.Sprintf("Purchase consistency: %.1f%% of months active; volatility (CV): %.1f%%.",
			b.ConsistencyIndex, b.VolatilityCV),
	}
	if len(b.PurchaseGaps) > 0 {
		lines = append(lines, fmt.Sprintf("Typical gap between purchases: %.0f month(s).", b.MedianGap))
	}

	if n := min(3, len(p.Recommendations)); n > 0 {
		parts := make([]string, n)
		for i, r := range p.Recommendations[:n] {
			parts[i] = fmt.Sprintf("%s (conf %.1f%%, lift %.2f)", r.ProductB, r.Confidence*100, r.Lift)
		}
		lines = append(lines, fmt.Sprintf("Cross-sell: when %s buys %s, they also tend to buy %s.",
			p.Client, p.Anchor, strings.Join(parts, "; ")))
	}

	if n := len(p.RouteShare); n > 0 {
		lines = append(lines, fmt.Sprintf("Route share (latest): %.1f%% in %s.", p.RouteShare[n-1].Share, p.Route))
	}

	vals := make([]string, len(p.Forecast.Values))
	for i, v := range p.Forecast.Values {
		vals[i] = fmt.Sprintf("%.0f", v)
	}
	lines = append(lines, fmt.Sprintf("Forecast next %d (EMA): %s; 12-month value about %.0f.",
		p.Forecast.Horizon, strings.Join(vals, ", "), p.Forecast.Annualized))
	lines = append(lines, fmt.Sprintf("Churn risk: %s. %s", p.Churn.Risk, p.Churn.Reason))
	return lines
}
