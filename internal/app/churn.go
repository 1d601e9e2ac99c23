package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	churnAll    bool
	churnGroup  string
	churnRisk   string
	churnFormat string
	churnOut    string
)

var churnCmd = &cobra.Command{
	Use:   "churn [client]",
	Short: "Assess churn risk from purchase cycles",
	Long: `Compare the months since a client's last purchase with the client's
usual purchase cycle.

Risk levels:
  - Low:    gap within 1.5x the usual cycle
  - Medium: gap within 2.5x the usual cycle
  - High:   gap beyond that

Clients with a single active month fall back to fixed gaps (1 month Low,
2 months Medium). The multiples are configurable.

Use --all to scan every client in a group.`,
	Example: `  salesprofile churn "Alpha Stores"
  salesprofile churn --all
  salesprofile churn --all --group All --risk High --format xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChurn,
}

func init() {
	churnCmd.Flags().BoolVar(&churnAll, "all", false, "assess every client in the group")
	churnCmd.Flags().StringVar(&churnGroup, "group", "", "customer group for --all (default from config)")
	churnCmd.Flags().StringVar(&churnRisk, "risk", "", "only show clients at this risk: Low, Medium or High")
	churnCmd.Flags().StringVar(&churnFormat, "format", formatTable, "output format: table, json or xlsx")
	churnCmd.Flags().StringVar(&churnOut, "out", "", "write the report to this directory")

	RootCmd.AddCommand(churnCmd)
}

func runChurn(cmd *cobra.Command, args []string) error {
	if churnAll == (len(args) == 1) {
		return fmt.Errorf("specify either a client name or --all")
	}
	if err := validateFormat(churnFormat); err != nil {
		return err
	}
	var want analyzer.Risk
	if churnRisk != "" {
		r, err := analyzer.ParseRisk(churnRisk)
		if err != nil {
			return err
		}
		want = r
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var rows []analyzer.ClientChurn
	if churnAll {
		clients, err := s.analyzer.Clients(cmd.Context(), churnGroup)
		if err != nil {
			return err
		}
		progress := output.NewProgress(len(clients), "Assessing clients")
		rows, err = s.analyzer.ChurnScan(cmd.Context(), churnGroup, func(analyzer.ClientChurn) {
			progress.Increment()
		})
		progress.Finish()
		if err != nil {
			return err
		}
	} else {
		name, err := exactArg(args, "client")
		if err != nil {
			return err
		}
		c, err := s.analyzer.ClientChurn(cmd.Context(), name)
		if err != nil {
			return err
		}
		rows = []analyzer.ClientChurn{*c}
	}

	rows = filterRisk(rows, want)
	return emit(cmd.OutOrStdout(), s.cfg, churnFormat, churnOut, report{
		kind:   export.KindChurn,
		data:   rows,
		text:   func() string { return output.RenderChurnTable(rows) },
		sheets: func() []export.Sheet { return export.ChurnSheets(rows) },
	})
}

func filterRisk(rows []analyzer.ClientChurn, want analyzer.Risk) []analyzer.ClientChurn {
	if want == "" {
		return rows
	}
	out := make([]analyzer.ClientChurn, 0, len(rows))
	for _, r := range rows {
		if r.Risk == want {
			out = append(out, r)
		}
	}
	return out
}
