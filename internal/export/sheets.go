package export

import (
	"github.com/blackwell-systems/salesprofile/internal/analyzer"
)

// ClientSheets lays out a client profile as worksheets.
func ClientSheets(p *analyzer.ClientProfile) []Sheet {
	b := p.Basket
	sheets := []Sheet{
		{
			Name:   "Summary",
			Header: []string{"Metric", "Value"},
			Rows: [][]any{
				{"Client", p.Client},
				{"Group", p.Group},
				{"Route", p.Route},
				{"Month", monthLabel(p.Month)},
				{"Products bought", b.Breadth},
				{"Total quantity", b.TotalQuantity},
				{"Total revenue", b.TotalRevenue},
				{"Active months", b.MonthsActive},
				{"Avg products per month", b.AvgDepth},
				{"Top-1 dependence %", b.Top1Dependence},
				{"Top-3 dependence %", b.Top3Dependence},
				{"Top-5 dependence %", b.Top5Dependence},
				{"Repeat ratio %", b.RepeatRatio},
				{"Consistency index", b.ConsistencyIndex},
				{"Volatility CV", b.VolatilityCV},
				{"Median purchase gap", b.MedianGap},
				{"Churn risk", string(p.Churn.Risk)},
				{"Churn gap months", p.Churn.GapMonths},
				{"Churn reason", p.Churn.Reason},
				{"Forecast basis", p.Forecast.Basis},
				{"Forecast annualized", p.Forecast.Annualized},
			},
		},
		sharesSheet("Basket", p.Shares),
		sharesSheet("Group baseline", p.Baseline),
		pairsSheet("Cross-sell", p.Pairs),
	}

	fc := Sheet{Name: "Forecast", Header: []string{"Step", "Value"}}
	for i, v := range p.Forecast.Values {
		fc.Rows = append(fc.Rows, []any{i + 1, v})
	}
	sheets = append(sheets, fc)

	rs := Sheet{Name: "Route share", Header: []string{"Month", "Client total", "Route total", "Share %", "Client MoM %", "Route MoM %"}}
	for _, r := range p.RouteShare {
		rs.Rows = append(rs.Rows, []any{r.Month, r.ClientTotal, r.RouteTotal, r.Share, r.ClientMoMPct, r.RouteMoMPct})
	}
	sheets = append(sheets, rs)

	tr := Sheet{Name: "Trends", Header: []string{"Product", "Month", "Quantity", "Revenue", "Qty MoM %", "Revenue MoM %"}}
	for _, t := range p.Trends {
		for _, m := range t.Months {
			tr.Rows = append(tr.Rows, []any{t.Product, m.Month, m.Quantity, m.Revenue, m.QuantityPctChange, m.RevenuePctChange})
		}
	}
	return append(sheets, tr)
}

// ProductSheets lays out a product profile as worksheets.
func ProductSheets(p *analyzer.ProductProfile) []Sheet {
	summary := Sheet{
		Name:   "Summary",
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Product", p.Product},
			{"Month", monthLabel(p.Month)},
			{"Total quantity", p.TotalQuantity},
			{"Total revenue", p.TotalRevenue},
			{"Avg unit price", p.AvgUnitPrice},
			{"Active clients", p.ActiveClients},
			{"Active routes", p.ActiveRoutes},
			{"Client HHI", p.ClientConcentration.HHI},
			{"Client band", p.ClientConcentration.Band},
			{"Top-10 client coverage %", p.Top10Coverage},
			{"Route HHI", p.RouteConcentration.HHI},
			{"Route band", p.RouteConcentration.Band},
		},
	}

	pareto := Sheet{Name: "Client Pareto", Header: []string{"Rank", "Client", "Quantity", "Cumulative", "Cumulative %"}}
	for _, e := range p.ClientPareto.Entries {
		pareto.Rows = append(pareto.Rows, []any{e.Rank, e.Entity, e.Value, e.Cumulative, e.CumulativeShare})
	}

	monthly := Sheet{Name: "Monthly", Header: []string{"Month", "Quantity", "Revenue", "Unit price", "Qty MoM %", "Revenue MoM %", "Clients", "Routes"}}
	for _, m := range p.Monthly {
		monthly.Rows = append(monthly.Rows, []any{m.Month, m.Quantity, m.Revenue, m.UnitPrice, m.QuantityPctChange, m.RevenuePctChange, m.UniqueClients, m.UniqueRoutes})
	}

	return []Sheet{
		summary,
		pareto,
		valuesSheet("Routes", "Route", p.Routes),
		monthly,
	}
}

// TopClientsSheets lays out a top-clients report as worksheets.
func TopClientsSheets(r *analyzer.TopClientsReport) []Sheet {
	top := valuesSheet("Top clients", "Client", r.Clients)
	summary := Sheet{
		Name:   "Summary",
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Group", r.Group},
			{"Percent", r.Percent},
			{"Clients in group", r.GroupClients},
			{"Top total", r.TopTotal},
			{"Group total", r.GroupTotal},
			{"All sales", r.OverallTotal},
			{"Share of group %", r.ShareOfGroup},
			{"Share of all sales %", r.ShareOfOverall},
		},
	}
	products := Sheet{Name: "Products", Header: []string{"Product", "Quantity", "Revenue"}}
	for _, p := range r.Products {
		products.Rows = append(products.Rows, []any{p.Entity, p.Quantity, p.Revenue})
	}
	return []Sheet{
		summary,
		top,
		seriesSheet("Client monthly", "Client", r.Months, r.ClientMonthly),
		products,
		seriesSheet("Product monthly", "Product", r.Months, r.ProductMonthly),
	}
}

// ManagerBoardSheets lays out the sales manager leaderboard as worksheets.
func ManagerBoardSheets(b *analyzer.ManagerBoard) []Sheet {
	ranking := Sheet{Name: "Ranking", Header: []string{"Rank", "Manager", "Sales", "Cumulative %"}}
	for _, e := range b.Ranking.Entries {
		ranking.Rows = append(ranking.Rows, []any{e.Rank, e.Entity, e.Value, e.CumulativeShare})
	}
	summary := Sheet{
		Name:   "Summary",
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Month", monthLabel(b.Month)},
			{"Product", b.Product},
			{"Managers", len(b.Ranking.Entries)},
			{"Median sales", b.Median},
			{"Team sales", b.Ranking.Total},
		},
	}
	monthly := Sheet{Name: "Monthly", Header: []string{"Month", "Sales"}}
	for i, m := range b.Months {
		monthly.Rows = append(monthly.Rows, []any{m, b.Monthly[i]})
	}
	return []Sheet{summary, ranking, monthly}
}

// ManagerSheets lays out a sales manager profile as worksheets.
func ManagerSheets(p *analyzer.ManagerProfile) []Sheet {
	summary := Sheet{
		Name:   "Summary",
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Sales manager", p.Manager},
			{"Month", monthLabel(p.Month)},
			{"Product", p.Product},
			{"Rank", p.Rank},
			{"Managers", p.Managers},
			{"Sales", p.Sales},
			{"Median sales", p.Median},
			{"vs median %", p.VsMedian},
		},
	}
	monthly := Sheet{Name: "Monthly", Header: []string{"Month", "Sales", "Team median"}}
	for i, m := range p.Months {
		monthly.Rows = append(monthly.Rows, []any{m, p.Monthly[i], p.MonthlyMedian[i]})
	}
	clients := Sheet{Name: "Top clients", Header: []string{"Client", "Quantity", "Sales"}}
	for _, c := range p.TopClients {
		clients.Rows = append(clients.Rows, []any{c.Entity, c.Quantity, c.Revenue})
	}
	return []Sheet{summary, monthly, clients}
}

// ChurnSheets lays out churn assessments as a single worksheet.
func ChurnSheets(rows []analyzer.ClientChurn) []Sheet {
	sh := Sheet{Name: "Churn", Header: []string{"Client", "Risk", "Gap months", "Avg cycle", "Multiple", "Reason"}}
	for _, r := range rows {
		sh.Rows = append(sh.Rows, []any{r.Client, string(r.Risk), r.GapMonths, optional(r.AvgCycle), optional(r.Multiple), r.Reason})
	}
	return []Sheet{sh}
}

func sharesSheet(name string, shares []analyzer.BasketShare) Sheet {
	sh := Sheet{Name: name, Header: []string{"Product", "Quantity", "Revenue", "Share %"}}
	for _, s := range shares {
		sh.Rows = append(sh.Rows, []any{s.Product, s.Quantity, s.Revenue, s.Share})
	}
	return sh
}

func pairsSheet(name string, pairs []analyzer.PairMetric) Sheet {
	sh := Sheet{Name: name, Header: []string{"Product A", "Product B", "Co-months", "Support", "Confidence", "Lift"}}
	for _, p := range pairs {
		sh.Rows = append(sh.Rows, []any{p.ProductA, p.ProductB, p.CoMonths, p.Support, p.Confidence, p.Lift})
	}
	return sh
}

func seriesSheet(name, label string, months []string, rows []analyzer.SeriesRow) Sheet {
	header := append([]string{label}, months...)
	sh := Sheet{Name: name, Header: append(header, "Total")}
	for _, r := range rows {
		row := []any{r.Entity}
		for _, v := range r.Months {
			row = append(row, v)
		}
		sh.Rows = append(sh.Rows, append(row, r.Total))
	}
	return sh
}

func valuesSheet(name, label string, dist []analyzer.EntityValue) Sheet {
	sh := Sheet{Name: name, Header: []string{label, "Value"}}
	for _, ev := range dist {
		sh.Rows = append(sh.Rows, []any{ev.Entity, ev.Value})
	}
	return sh
}

// optional renders a missing value as an empty cell.
func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func monthLabel(m string) string {
	if m == "" {
		return "All"
	}
	return m
}
