// Package analyzer builds client and product sales profiles.
//
// The metric functions in this package (CrossSell, HHI, ClassifyChurn,
// EMAForecast, ParetoRank and friends) are pure transforms over in-memory
// records. Analyzer wires them to a TableProvider and assembles reports.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/salesprofile/internal/months"
	"github.com/blackwell-systems/salesprofile/internal/store"
)

var (
	// ErrNotFound is returned when a requested client, product or sales
	// manager has no data.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned for request parameters outside their
	// domain, e.g. an unknown month or a percent above 100.
	ErrInvalidRequest = errors.New("invalid request")
)

// TableProvider supplies the query results the analyzer consumes.
// *store.Store and *store.Cached both satisfy it.
type TableProvider interface {
	ListClients(ctx context.Context, group string) ([]string, error)
	ListProducts(ctx context.Context) ([]string, error)
	ClientProductMonthly(ctx context.Context, client string) ([]store.MonthlyRecord, error)
	ClientProductTotals(ctx context.Context, client, month string) ([]store.EntityTotal, error)
	AllClientsProductTotals(ctx context.Context, group, month string) ([]store.EntityTotal, error)
	ClientMonthlySales(ctx context.Context, client string) ([]store.ClientMonthSales, error)
	RouteMonthlySales(ctx context.Context, route string) ([]store.MonthTotal, error)
	ClientTotals(ctx context.Context, group string) ([]store.EntityTotal, error)
	ClientMonthlyTotals(ctx context.Context, group string) ([]store.EntityMonth, error)
	ClientsProductMonthly(ctx context.Context, clients []string) ([]store.MonthlyRecord, error)
	TotalSales(ctx context.Context, group string) (float64, error)
	ProductClientTotals(ctx context.Context, product, month string) ([]store.EntityTotal, error)
	ProductRouteTotals(ctx context.Context, product, month string) ([]store.EntityTotal, error)
	ProductMonthlySeries(ctx context.Context, product string) ([]store.ProductMonth, error)
	ManagerTotals(ctx context.Context, month, product string) ([]store.EntityTotal, error)
	ManagerMonthlySales(ctx context.Context, product string) ([]store.EntityMonth, error)
	ManagerClientTotals(ctx context.Context, manager, month, product string) ([]store.EntityTotal, error)
}

// DefaultGroup is the customer group reports cover unless told otherwise.
const DefaultGroup = "DISTRIBUTORS"

// Options tune the heuristics behind every report.
type Options struct {
	Calendar        months.Calendar
	Group           string
	Alpha           float64
	Horizon         int
	Churn           ChurnThresholds
	ParetoThreshold float64
	MinCoMonths     int
	CrossSellLimit  int
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Calendar:        months.Default,
		Group:           DefaultGroup,
		Alpha:           DefaultAlpha,
		Horizon:         DefaultHorizon,
		Churn:           DefaultChurnThresholds,
		ParetoThreshold: DefaultParetoThreshold,
		MinCoMonths:     1,
		CrossSellLimit:  5,
	}
}

// Analyzer assembles reports from a TableProvider.
type Analyzer struct {
	tables TableProvider
	opts   Options
	log    *zap.Logger
}

// New creates an Analyzer. Zero-valued options fall back to DefaultOptions;
// a nil logger discards output.
func New(tables TableProvider, opts Options, log *zap.Logger) *Analyzer {
	def := DefaultOptions()
	if opts.Calendar.Len() == 0 {
		opts.Calendar = def.Calendar
	}
	if opts.Group == "" {
		opts.Group = def.Group
	}
	if opts.Alpha == 0 {
		opts.Alpha = def.Alpha
	}
	if opts.Horizon == 0 {
		opts.Horizon = def.Horizon
	}
	if opts.Churn == (ChurnThresholds{}) {
		opts.Churn = def.Churn
	}
	if opts.ParetoThreshold == 0 {
		opts.ParetoThreshold = def.ParetoThreshold
	}
	if opts.CrossSellLimit == 0 {
		opts.CrossSellLimit = def.CrossSellLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{tables: tables, opts: opts, log: log}
}

// Options returns the settings the analyzer runs with.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Clients lists the clients of group, or of the default group when empty.
func (a *Analyzer) Clients(ctx context.Context, group string) ([]string, error) {
	if group == "" {
		group = a.opts.Group
	}
	clients, err := a.tables.ListClients(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

// Products lists every product.
func (a *Analyzer) Products(ctx context.Context) ([]string, error) {
	products, err := a.tables.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// normalizeMonth maps a month filter onto the calendar. "All" and "" pass
// through as months.All.
func (a *Analyzer) normalizeMonth(month string) (string, error) {
	if months.IsAll(month) {
		return months.All, nil
	}
	label, ok := a.opts.Calendar.Normalize(month)
	if !ok {
		return "", fmt.Errorf("%w: unknown month %q (expected one of %v or %s)", ErrInvalidRequest, month, a.opts.Calendar.Labels(), months.All)
	}
	return label, nil
}

// warnOffCalendar logs records whose month label is not on the calendar.
func (a *Analyzer) warnOffCalendar(what string, labels []string) {
	dropped := map[string]bool{}
	for _, l := range labels {
		if _, ok := a.opts.Calendar.Normalize(l); !ok {
			dropped[l] = true
		}
	}
	if len(dropped) == 0 {
		return
	}
	names := make([]string, 0, len(dropped))
	for l := range dropped {
		names = append(names, l)
	}
	a.log.Warn("dropping records with unknown month labels",
		zap.String("source", what), zap.Strings("months", names))
}
