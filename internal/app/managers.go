package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	managersMonth   string
	managersProduct string
	managersFormat  string
	managersOut     string
)

var managersCmd = &cobra.Command{
	Use:   "managers [name]",
	Short: "Rank sales managers or profile one of them",
	Long: `Without a name, rank every sales manager by sales for the month and
product and show the team's monthly sales.

With a name, show that manager's rank, how far their sales sit above or
below the team median, their monthly sales against the monthly median, and
their top 5 clients.`,
	Example: `  salesprofile managers
  salesprofile managers --month Jan --product Milk
  salesprofile managers "Grace Otieno" --format xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManagers,
}

func init() {
	managersCmd.Flags().StringVar(&managersMonth, "month", "", "limit totals to one month (default: All)")
	managersCmd.Flags().StringVar(&managersProduct, "product", "", "limit totals to one product (default: All)")
	managersCmd.Flags().StringVar(&managersFormat, "format", formatTable, "output format: table, json or xlsx")
	managersCmd.Flags().StringVar(&managersOut, "out", "", "write the report to this directory")

	RootCmd.AddCommand(managersCmd)
}

func runManagers(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		n, err := exactArg(args, "sales manager")
		if err != nil {
			return err
		}
		name = n
	}
	if err := validateFormat(managersFormat); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	req := analyzer.ManagerRequest{
		Manager: name,
		Month:   managersMonth,
		Product: strings.TrimSpace(managersProduct),
	}

	if name == "" {
		b, err := s.analyzer.Managers(cmd.Context(), req)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), s.cfg, managersFormat, managersOut, report{
			kind:   export.KindManagers,
			data:   b,
			text:   func() string { return output.RenderManagers(b) },
			sheets: func() []export.Sheet { return export.ManagerBoardSheets(b) },
		})
	}

	p, err := s.analyzer.ManagerProfile(cmd.Context(), req)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), s.cfg, managersFormat, managersOut, report{
		kind:   export.KindManagerProfile,
		data:   p,
		text:   func() string { return output.RenderManagerProfile(p) },
		sheets: func() []export.Sheet { return export.ManagerSheets(p) },
	})
}
