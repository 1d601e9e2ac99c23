package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	productMonth      string
	productGroupBelow float64
	productFormat     string
	productOut        string
)

var productCmd = &cobra.Command{
	Use:   "product <name>",
	Short: "Show a product's sales profile",
	Long: `Build the profile of one product: volume, revenue and unit price, the
client Pareto ranking and HHI concentration, route distribution, and the
monthly trend with month-over-month changes.

Routes below --group-below percent of volume are merged into "Other".
A negative value disables grouping.`,
	Example: `  salesprofile product Milk
  salesprofile product Milk --month Jan --group-below 5
  salesprofile product Milk --format json --out reports/`,
	Args: cobra.ExactArgs(1),
	RunE: runProduct,
}

func init() {
	productCmd.Flags().StringVar(&productMonth, "month", "", "limit totals to one month (default: All)")
	productCmd.Flags().Float64Var(&productGroupBelow, "group-below", analyzer.DefaultGroupBelowPct, "merge routes below this share (percent) into Other")
	productCmd.Flags().StringVar(&productFormat, "format", formatTable, "output format: table, json or xlsx")
	productCmd.Flags().StringVar(&productOut, "out", "", "write the report to this directory")

	RootCmd.AddCommand(productCmd)
}

func runProduct(cmd *cobra.Command, args []string) error {
	name, err := exactArg(args, "product")
	if err != nil {
		return err
	}
	if err := validateFormat(productFormat); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	stop := startSpinner("Building product profile")
	p, err := s.analyzer.ProductProfile(cmd.Context(), analyzer.ProductRequest{
		Product:       name,
		Month:         productMonth,
		GroupBelowPct: productGroupBelow,
	})
	stop()
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), s.cfg, productFormat, productOut, report{
		kind:   export.KindProductProfile,
		data:   p,
		text:   func() string { return output.RenderProductProfile(p) },
		sheets: func() []export.Sheet { return export.ProductSheets(p) },
	})
}
