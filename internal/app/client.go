package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	clientMonth  string
	clientAnchor string
	clientMinCo  int
	clientLimit  int
	clientFormat string
	clientOut    string
)

var clientCmd = &cobra.Command{
	Use:   "client <name>",
	Short: "Show a client's sales profile",
	Long: `Build the full profile of one client:

  • basket mix and dependence on top products
  • consistency, volatility and purchase gaps
  • cross-sell pairs for an anchor product
  • churn risk from the client's purchase cycle
  • an EMA forecast of monthly sales
  • the client's share of its route

--month limits basket totals to one month; churn, forecast and trends always
use the full history.`,
	Example: `  salesprofile client "Alpha Stores"
  salesprofile client "Alpha Stores" --month March --anchor Milk
  salesprofile client "Alpha Stores" --format xlsx --out reports/`,
	Args: cobra.ExactArgs(1),
	RunE: runClient,
}

func init() {
	clientCmd.Flags().StringVar(&clientMonth, "month", "", "limit basket totals to one month (default: All)")
	clientCmd.Flags().StringVar(&clientAnchor, "anchor", "", "anchor product for cross-sell (default: top product)")
	clientCmd.Flags().IntVar(&clientMinCo, "min-co", 0, "minimum co-purchase months for a recommendation (default from config)")
	clientCmd.Flags().IntVar(&clientLimit, "limit", 0, "maximum recommendations (default from config)")
	clientCmd.Flags().StringVar(&clientFormat, "format", formatTable, "output format: table, json or xlsx")
	clientCmd.Flags().StringVar(&clientOut, "out", "", "write the report to this directory")

	RootCmd.AddCommand(clientCmd)
}

func runClient(cmd *cobra.Command, args []string) error {
	name, err := exactArg(args, "client")
	if err != nil {
		return err
	}
	if err := validateFormat(clientFormat); err != nil {
		return err
	}
	if clientMinCo < 0 || clientLimit < 0 {
		return fmt.Errorf("--min-co and --limit must not be negative")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	stop := startSpinner("Building client profile")
	p, err := s.analyzer.ClientProfile(cmd.Context(), analyzer.ClientRequest{
		Client:      name,
		Month:       clientMonth,
		Anchor:      clientAnchor,
		MinCoMonths: clientMinCo,
		Limit:       clientLimit,
	})
	stop()
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), s.cfg, clientFormat, clientOut, report{
		kind:   export.KindClientProfile,
		data:   p,
		text:   func() string { return output.RenderClientProfile(p) },
		sheets: func() []export.Sheet { return export.ClientSheets(p) },
	})
}
