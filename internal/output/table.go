// Package output renders salesprofile reports for the terminal.
//
// Tables are drawn with tablewriter. Risk levels and trend arrows are
// coloured only when stdout is a terminal and NO_COLOR is unset. Progress
// indicators live in progress.go.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
)

// ANSI color codes for risk and trend display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

func riskColor(r analyzer.Risk) string {
	switch r {
	case analyzer.RiskLow:
		return colorGreen
	case analyzer.RiskMedium:
		return colorYellow
	default:
		return colorRed
	}
}

// newTable returns a borderless left-aligned table writing to w.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetCenterSeparator(" ")
	tw.SetColumnSeparator(" ")
	tw.SetRowSeparator("─")
	return tw
}

func formatAmount(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func formatQty(v float64) string {
	return humanize.FormatFloat("#,###.#", v)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func formatChange(pct float64) string {
	switch {
	case pct > 0:
		return colorize(colorGreen, "▲ "+formatPct(pct))
	case pct < 0:
		return colorize(colorRed, "▼ "+formatPct(-pct))
	default:
		return colorize(colorGray, "–")
	}
}

// truncate shortens s to maxLen runes, ending with "..." when cut.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// RenderList renders a numbered list of names under a title.
func RenderList(title string, names []string) string {
	if len(names) == 0 {
		return fmt.Sprintf("No %s found.\n", strings.ToLower(title))
	}

	var sb strings.Builder
	tw := newTable(&sb, "#", title)
	for i, n := range names {
		tw.Append([]string{fmt.Sprint(i + 1), n})
	}
	tw.Render()
	return sb.String()
}

// RenderClientProfile renders the full client report.
func RenderClientProfile(p *analyzer.ClientProfile) string {
	var sb strings.Builder

	month := p.Month
	if month == "" {
		month = "All"
	}
	fmt.Fprintf(&sb, "Client: %s\n", p.Client)
	fmt.Fprintf(&sb, "Group:  %s   Route: %s   Month: %s\n\n", p.Group, p.Route, month)

	b := p.Basket
	sb.WriteString("Basket\n")
	tw := newTable(&sb, "Metric", "Value")
	tw.AppendBulk([][]string{
		{"Products bought", fmt.Sprint(b.Breadth)},
		{"Total quantity", formatQty(b.TotalQuantity)},
		{"Total revenue", formatAmount(b.TotalRevenue)},
		{"Active months", fmt.Sprint(b.MonthsActive)},
		{"Avg products / month", fmt.Sprintf("%.1f", b.AvgDepth)},
		{"Top-1 dependence", formatPct(b.Top1Dependence)},
		{"Top-3 dependence", formatPct(b.Top3Dependence)},
		{"Top-5 dependence", formatPct(b.Top5Dependence)},
		{"Repeat ratio", formatPct(b.RepeatRatio)},
		{"Consistency index", fmt.Sprintf("%.2f", b.ConsistencyIndex)},
		{"Volatility (CV)", fmt.Sprintf("%.2f", b.VolatilityCV)},
		{"Median purchase gap", fmt.Sprintf("%.1f months", b.MedianGap)},
	})
	tw.Render()

	if len(p.Shares) > 0 {
		sb.WriteString("\nBasket mix\n")
		sb.WriteString(RenderShares(p.Shares))
	}

	sb.WriteString("\nChurn\n")
	c := p.Churn
	fmt.Fprintf(&sb, "  Risk: %s   Gap: %d months", colorize(riskColor(c.Risk), string(c.Risk)), c.GapMonths)
	if c.AvgCycle != nil {
		fmt.Fprintf(&sb, "   Avg cycle: %.1f months", *c.AvgCycle)
	}
	fmt.Fprintf(&sb, "\n  %s\n", c.Reason)

	f := p.Forecast
	sb.WriteString("\nForecast\n")
	fmt.Fprintf(&sb, "  Next %d months (%s, alpha %.2f): ", f.Horizon, f.Basis, f.Alpha)
	vals := make([]string, len(f.Values))
	for i, v := range f.Values {
		vals[i] = formatAmount(v)
	}
	sb.WriteString(strings.Join(vals, ", "))
	fmt.Fprintf(&sb, "\n  Annualized: %s\n", formatAmount(f.Annualized))

	if len(p.Recommendations) > 0 {
		fmt.Fprintf(&sb, "\nCross-sell for %s\n", p.Anchor)
		sb.WriteString(RenderPairs(p.Recommendations))
	}

	if len(p.RouteShare) > 0 {
		sb.WriteString("\nRoute share\n")
		sb.WriteString(RenderRouteShare(p.RouteShare))
	}

	if len(p.Summary) > 0 {
		sb.WriteString("\nSummary\n")
		for _, line := range p.Summary {
			fmt.Fprintf(&sb, "  • %s\n", line)
		}
	}
	return sb.String()
}

// RenderShares renders a basket mix table.
func RenderShares(shares []analyzer.BasketShare) string {
	if len(shares) == 0 {
		return "No purchases.\n"
	}
	var sb strings.Builder
	tw := newTable(&sb, "Product", "Quantity", "Revenue", "Share")
	for _, s := range shares {
		tw.Append([]string{truncate(s.Product, 32), formatQty(s.Quantity), formatAmount(s.Revenue), formatPct(s.Share)})
	}
	tw.Render()
	return sb.String()
}

// RenderPairs renders cross-sell pair metrics.
func RenderPairs(pairs []analyzer.PairMetric) string {
	if len(pairs) == 0 {
		return "No product pairs co-occur.\n"
	}
	var sb strings.Builder
	tw := newTable(&sb, "Bought", "Also bought", "Co-months", "Support", "Confidence", "Lift")
	for _, p := range pairs {
		tw.Append([]string{
			truncate(p.ProductA, 28),
			truncate(p.ProductB, 28),
			fmt.Sprintf("%d/%d", p.CoMonths, p.TotalMonths),
			fmt.Sprintf("%.2f", p.Support),
			formatPct(p.Confidence * 100),
			fmt.Sprintf("%.2f", p.Lift),
		})
	}
	tw.Render()
	return sb.String()
}

// RenderRouteShare renders a client's share of its route per month.
func RenderRouteShare(rows []analyzer.RouteShareRow) string {
	var sb strings.Builder
	tw := newTable(&sb, "Month", "Client", "Route", "Share", "Client MoM", "Route MoM")
	for _, r := range rows {
		tw.Append([]string{
			r.Month,
			formatAmount(r.ClientTotal),
			formatAmount(r.RouteTotal),
			formatPct(r.Share),
			formatChange(r.ClientMoMPct),
			formatChange(r.RouteMoMPct),
		})
	}
	tw.Render()
	return sb.String()
}

// RenderChurnTable renders churn assessments, one client per row.
func RenderChurnTable(rows []analyzer.ClientChurn) string {
	if len(rows) == 0 {
		return "No clients to assess.\n"
	}
	var sb strings.Builder
	tw := newTable(&sb, "Client", "Risk", "Gap", "Avg cycle", "Reason")
	for _, r := range rows {
		cycle := "–"
		if r.AvgCycle != nil {
			cycle = fmt.Sprintf("%.1f", *r.AvgCycle)
		}
		tw.Append([]string{
			truncate(r.Client, 28),
			colorize(riskColor(r.Risk), string(r.Risk)),
			fmt.Sprint(r.GapMonths),
			cycle,
			r.Reason,
		})
	}
	tw.Render()
	return sb.String()
}

// RenderProductProfile renders the product report.
func RenderProductProfile(p *analyzer.ProductProfile) string {
	var sb strings.Builder

	month := p.Month
	if month == "" {
		month = "All"
	}
	fmt.Fprintf(&sb, "Product: %s   Month: %s\n\n", p.Product, month)

	tw := newTable(&sb, "Metric", "Value")
	tw.AppendBulk([][]string{
		{"Total quantity", formatQty(p.TotalQuantity)},
		{"Total revenue", formatAmount(p.TotalRevenue)},
		{"Avg unit price", formatAmount(p.AvgUnitPrice)},
		{"Active clients", fmt.Sprint(p.ActiveClients)},
		{"Active routes", fmt.Sprint(p.ActiveRoutes)},
		{"Client HHI", fmt.Sprintf("%.3f (%s)", p.ClientConcentration.HHI, p.ClientConcentration.Band)},
		{"Top-10 client coverage", formatPct(p.Top10Coverage)},
		{"Route HHI", fmt.Sprintf("%.3f (%s)", p.RouteConcentration.HHI, p.RouteConcentration.Band)},
	})
	tw.Render()

	if len(p.ClientPareto.Entries) > 0 {
		fmt.Fprintf(&sb, "\nClient Pareto (%.0f%% threshold)\n", p.ClientPareto.Threshold)
		sb.WriteString(RenderPareto(p.ClientPareto))
	}

	if len(p.GroupedRoutes) > 0 {
		sb.WriteString("\nRoutes\n")
		sb.WriteString(RenderDistribution("Route", p.GroupedRoutes))
	}

	if len(p.Monthly) > 0 {
		sb.WriteString("\nMonthly trend\n")
		sb.WriteString(RenderMonthly(p.Monthly))
	}

	if len(p.Summary) > 0 {
		sb.WriteString("\nSummary\n")
		for _, line := range p.Summary {
			fmt.Fprintf(&sb, "  • %s\n", line)
		}
	}
	return sb.String()
}

// RenderPareto renders cumulative shares, marking the crossing entity.
func RenderPareto(res analyzer.ParetoResult) string {
	var sb strings.Builder
	tw := newTable(&sb, "Rank", "Entity", "Value", "Cumulative %", "")
	for _, e := range res.Entries {
		mark := ""
		if res.Reached && e.Entity == res.CrossingEntity {
			mark = colorize(colorYellow, "← threshold")
		}
		tw.Append([]string{fmt.Sprint(e.Rank), truncate(e.Entity, 32), formatQty(e.Value), formatPct(e.CumulativeShare), mark})
	}
	tw.Render()
	return sb.String()
}

// RenderDistribution renders entity values with their share of the total.
func RenderDistribution(label string, dist []analyzer.EntityValue) string {
	total := 0.0
	for _, ev := range dist {
		total += ev.Value
	}
	var sb strings.Builder
	tw := newTable(&sb, label, "Value", "Share")
	for _, ev := range dist {
		share := 0.0
		if total > 0 {
			share = ev.Value * 100 / total
		}
		tw.Append([]string{truncate(ev.Entity, 32), formatQty(ev.Value), formatPct(share)})
	}
	tw.Render()
	return sb.String()
}

// RenderMonthly renders month-over-month changes.
func RenderMonthly(rows []analyzer.MonthlyChange) string {
	var sb strings.Builder
	tw := newTable(&sb, "Month", "Quantity", "Revenue", "Unit price", "Qty MoM", "Revenue MoM", "Clients", "Routes")
	for _, m := range rows {
		tw.Append([]string{
			m.Month,
			formatQty(m.Quantity),
			formatAmount(m.Revenue),
			formatAmount(m.UnitPrice),
			formatChange(m.QuantityPctChange),
			formatChange(m.RevenuePctChange),
			fmt.Sprint(m.UniqueClients),
			fmt.Sprint(m.UniqueRoutes),
		})
	}
	tw.Render()
	return sb.String()
}

// RenderTopClients renders the top-N% client report.
func RenderTopClients(r *analyzer.TopClientsReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Top %.0f%% of %s (%d of %d clients)\n\n", r.Percent, r.Group, len(r.Clients), r.GroupClients)

	if len(r.Clients) == 0 {
		sb.WriteString("No clients in range.\n")
	} else {
		tw := newTable(&sb, "#", "Client", "Sales", "Share of group")
		for i, c := range r.Clients {
			share := 0.0
			if r.GroupTotal > 0 {
				share = c.Value * 100 / r.GroupTotal
			}
			tw.Append([]string{fmt.Sprint(i + 1), truncate(c.Entity, 32), formatAmount(c.Value), formatPct(share)})
		}
		tw.Render()
	}

	fmt.Fprintf(&sb, "\nTop clients:  %s (%s of group, %s of all sales)\n",
		formatAmount(r.TopTotal), formatPct(r.ShareOfGroup), formatPct(r.ShareOfOverall))
	fmt.Fprintf(&sb, "Group total:  %s\n", formatAmount(r.GroupTotal))
	fmt.Fprintf(&sb, "All sales:    %s\n", formatAmount(r.OverallTotal))

	if len(r.ClientMonthly) > 0 {
		sb.WriteString("\nMonthly invoices\n")
		sb.WriteString(RenderSeries("Client", r.Months, r.ClientMonthly))
	}
	if len(r.Products) > 0 {
		sb.WriteString("\nProducts bought by top clients\n")
		tw := newTable(&sb, "Product", "Quantity", "Revenue")
		for _, p := range r.Products {
			tw.Append([]string{truncate(p.Entity, 32), formatQty(p.Quantity), formatAmount(p.Revenue)})
		}
		tw.Render()
	}
	if len(r.ProductMonthly) > 0 {
		sb.WriteString("\nMonthly product sales\n")
		sb.WriteString(RenderSeries("Product", r.Months, r.ProductMonthly))
	}
	return sb.String()
}

// RenderSeries renders one row per entity with a column per month and a
// total.
func RenderSeries(label string, months []string, rows []analyzer.SeriesRow) string {
	var sb strings.Builder
	header := append([]string{label}, months...)
	tw := newTable(&sb, append(header, "Total")...)
	for _, r := range rows {
		line := []string{truncate(r.Entity, 28)}
		for _, v := range r.Months {
			line = append(line, formatAmount(v))
		}
		tw.Append(append(line, formatAmount(r.Total)))
	}
	tw.Render()
	return sb.String()
}

// RenderManagers renders the sales manager leaderboard.
func RenderManagers(b *analyzer.ManagerBoard) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sales managers   Month: %s   Product: %s\n\n", b.Month, b.Product)

	if len(b.Ranking.Entries) == 0 {
		sb.WriteString("No sales managers with sales.\n")
		return sb.String()
	}
	tw := newTable(&sb, "Rank", "Manager", "Sales", "vs median")
	for _, e := range b.Ranking.Entries {
		tw.Append([]string{fmt.Sprint(e.Rank), truncate(e.Entity, 32), formatAmount(e.Value), formatChange(pctOf(e.Value, b.Median))})
	}
	tw.Render()
	fmt.Fprintf(&sb, "\nMedian: %s\n", formatAmount(b.Median))

	sb.WriteString("\nTeam sales by month\n")
	tw = newTable(&sb, "Month", "Sales")
	for i, m := range b.Months {
		tw.Append([]string{m, formatAmount(b.Monthly[i])})
	}
	tw.Render()
	return sb.String()
}

// RenderManagerProfile renders one sales manager's report.
func RenderManagerProfile(p *analyzer.ManagerProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sales manager: %s\n", p.Manager)
	fmt.Fprintf(&sb, "Month: %s   Product: %s\n\n", p.Month, p.Product)

	tw := newTable(&sb, "Metric", "Value")
	tw.AppendBulk([][]string{
		{"Rank", fmt.Sprintf("%d of %d", p.Rank, p.Managers)},
		{"Sales", formatAmount(p.Sales)},
		{"Team median", formatAmount(p.Median)},
		{"vs median", formatChange(p.VsMedian)},
	})
	tw.Render()

	sb.WriteString("\nMonthly sales\n")
	tw = newTable(&sb, "Month", "Sales", "Team median", "vs median")
	for i, m := range p.Months {
		tw.Append([]string{m, formatAmount(p.Monthly[i]), formatAmount(p.MonthlyMedian[i]), formatChange(pctOf(p.Monthly[i], p.MonthlyMedian[i]))})
	}
	tw.Render()

	sb.WriteString("\nTop clients\n")
	if len(p.TopClients) == 0 {
		sb.WriteString("No data available for the selected filters.\n")
	} else {
		tw = newTable(&sb, "#", "Client", "Quantity", "Sales")
		for i, c := range p.TopClients {
			tw.Append([]string{fmt.Sprint(i + 1), truncate(c.Entity, 32), formatQty(c.Quantity), formatAmount(c.Revenue)})
		}
		tw.Render()
	}

	if len(p.Summary) > 0 {
		sb.WriteString("\nSummary\n")
		for _, line := range p.Summary {
			fmt.Fprintf(&sb, "  • %s\n", line)
		}
	}
	return sb.String()
}

// pctOf returns how far v sits from ref in percent, or 0 without a reference.
func pctOf(v, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return (v - ref) * 100 / ref
}
