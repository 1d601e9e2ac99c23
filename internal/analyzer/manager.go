package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

// ManagerTopClients is the number of clients listed on a manager profile.
const ManagerTopClients = 5

// ManagerRequest selects a sales manager report. An empty Manager asks for
// the team leaderboard. Month and Product default to "All".
type ManagerRequest struct {
	Manager string
	Month   string
	Product string
}

// ManagerBoard ranks every sales manager for a month and product.
type ManagerBoard struct {
	Month   string       `json:"month"`
	Product string       `json:"product"`
	Ranking ParetoResult `json:"ranking"`
	Median  float64      `json:"median"`

	// Team revenue per calendar month, ignoring the month filter.
	Months  []string  `json:"months"`
	Monthly []float64 `json:"monthly"`
}

// ManagerProfile places one sales manager against the rest of the team.
type ManagerProfile struct {
	Manager  string  `json:"manager"`
	Month    string  `json:"month"`
	Product  string  `json:"product"`
	Rank     int     `json:"rank"`
	Managers int     `json:"managers"`
	Sales    float64 `json:"sales"`
	Median   float64 `json:"median"`

	// VsMedian is the percentage the manager sits above (positive) or below
	// (negative) the median.
	VsMedian float64 `json:"vs_median"`

	// Revenue per calendar month for the manager and the team median,
	// ignoring the month filter.
	Months        []string  `json:"months"`
	Monthly       []float64 `json:"monthly"`
	MonthlyMedian []float64 `json:"monthly_median"`

	TopClients []store.EntityTotal `json:"top_clients"`
	Summary    []string            `json:"summary"`
}

// Managers builds the sales manager leaderboard.
func (a *Analyzer) Managers(ctx context.Context, req ManagerRequest) (*ManagerBoard, error) {
	month, product, err := a.managerFilters(req)
	if err != nil {
		return nil, err
	}

	totals, err := a.tables.ManagerTotals(ctx, month, product)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales manager totals: %w", err)
	}
	monthly, err := a.tables.ManagerMonthlySales(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly sales manager totals: %w", err)
	}

	dist := RevenueValues(totals)
	b := &ManagerBoard{
		Month:   month,
		Product: product,
		Ranking: ParetoRank(dist, a.opts.ParetoThreshold),
		Median:  median(values(dist)),
		Months:  a.opts.Calendar.Labels(),
		Monthly: make([]float64, a.opts.Calendar.Len()),
	}
	for _, series := range a.seriesByEntity("sales_per_client", monthly) {
		for i, v := range series {
			b.Monthly[i] += v
		}
	}

	a.log.Info("built sales manager leaderboard",
		zap.String("month", month),
		zap.String("product", product),
		zap.Int("managers", len(totals)))
	return b, nil
}

// ManagerProfile ranks req.Manager among all sales managers, compares the
// manager's monthly sales with the team median and lists the manager's
// largest clients.
func (a *Analyzer) ManagerProfile(ctx context.Context, req ManagerRequest) (*ManagerProfile, error) {
	manager := strings.TrimSpace(req.Manager)
	if manager == "" {
		return nil, fmt.Errorf("%w: sales manager is required", ErrInvalidRequest)
	}
	month, product, err := a.managerFilters(req)
	if err != nil {
		return nil, err
	}

	totals, err := a.tables.ManagerTotals(ctx, month, product)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales manager totals: %w", err)
	}
	ranking := ParetoRank(RevenueValues(totals), a.opts.ParetoThreshold)

	p := &ManagerProfile{
		Manager:  manager,
		Month:    month,
		Product:  product,
		Managers: len(ranking.Entries),
		Median:   median(values(RevenueValues(totals))),
	}
	for _, e := range ranking.Entries {
		if e.Entity == manager {
			p.Rank = e.Rank
			p.Sales = e.Value
			break
		}
	}
	if p.Rank == 0 {
		return nil, fmt.Errorf("%w: no sales recorded for sales manager %q (month %s, product %s)",
			ErrNotFound, manager, month, product)
	}
	p.VsMedian = safeDiv(p.Sales-p.Median, p.Median) * 100

	monthly, err := a.tables.ManagerMonthlySales(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly sales manager totals: %w", err)
	}
	cal := a.opts.Calendar
	series := a.seriesByEntity("sales_per_client", monthly)
	p.Months = cal.Labels()
	p.Monthly = series.months(manager, cal.Len())
	p.MonthlyMedian = make([]float64, cal.Len())
	for i := range p.MonthlyMedian {
		col := make([]float64, 0, len(series))
		for _, v := range series {
			col = append(col, v[i])
		}
		p.MonthlyMedian[i] = median(col)
	}

	clients, err := a.tables.ManagerClientTotals(ctx, manager, month, product)
	if err != nil {
		return nil, fmt.Errorf("failed to get client totals for %s: %w", manager, err)
	}
	if len(clients) > ManagerTopClients {
		clients = clients[:ManagerTopClients]
	}
	p.TopClients = clients
	if p.TopClients == nil {
		p.TopClients = []store.EntityTotal{}
	}
	p.Summary = managerSummary(p)

	a.log.Info("built sales manager profile",
		zap.String("manager", manager),
		zap.String("month", month),
		zap.String("product", product),
		zap.Int("rank", p.Rank))
	return p, nil
}

func (a *Analyzer) managerFilters(req ManagerRequest) (month, product string, err error) {
	month, err = a.normalizeMonth(req.Month)
	if err != nil {
		return "", "", err
	}
	product = strings.TrimSpace(req.Product)
	if months.IsAll(product) {
		product = months.All
	}
	return month, product, nil
}

// median returns the median of vals, or 0 when there are none.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m, err := stats.Median(stats.Float64Data(vals))
	if err != nil {
		return 0
	}
	return m
}

func managerSummary(p *ManagerProfile) []string {
	lines := []string{
		fmt.Sprintf("%s is ranked %d of %d sales managers for %s in %s.", p.Manager, p.Rank, p.Managers, p.Product, p.Month),
	}
	switch {
	case p.VsMedian > 0:
		lines = append(lines, fmt.Sprintf("%s is %.2f%% above the median sales.", p.Manager, p.VsMedian))
	case p.VsMedian < 0:
		lines = append(lines, fmt.Sprintf("%s is %.2f%% below the median sales.", p.Manager, -p.VsMedian))
	default:
		lines = append(lines, fmt.Sprintf("%s is at the median sales.", p.Manager))
	}
	if len(p.TopClients) > 0 {
		lines = append(lines, fmt.Sprintf("Largest client: %s (%.0f).", p.TopClients[0].Entity, p.TopClients[0].Revenue))
	}
	return lines
}
