package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/export"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	topGroup   string
	topPercent float64
	topFormat  string
	topOut     string
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank a group's top clients by sales",
	Long: `Keep the top floor(n × percent / 100) clients of a group by invoiced
sales and report their combined share of the group and of all sales.`,
	Example: `  salesprofile top
  salesprofile top --percent 20 --group RETAIL
  salesprofile top --format xlsx`,
	Args: cobra.NoArgs,
	RunE: runTop,
}

func init() {
	topCmd.Flags().StringVar(&topGroup, "group", "", "customer group (default from config)")
	topCmd.Flags().Float64Var(&topPercent, "percent", defaultTopPercent, "percentage of clients to keep (0-100)")
	topCmd.Flags().StringVar(&topFormat, "format", formatTable, "output format: table, json or xlsx")
	topCmd.Flags().StringVar(&topOut, "out", "", "write the report to this directory")

	RootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	if topPercent < 0 || topPercent > 100 {
		return fmt.Errorf("invalid percent: %g (must be between 0 and 100)", topPercent)
	}
	if err := validateFormat(topFormat); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.analyzer.TopClients(cmd.Context(), analyzer.TopClientsRequest{
		Group:   topGroup,
		Percent: topPercent,
	})
	if err != nil {
		return err
	}

	return emit(cmd.OutOrStdout(), s.cfg, topFormat, topOut, report{
		kind:   export.KindTopClients,
		data:   r,
		text:   func() string { return output.RenderTopClients(r) },
		sheets: func() []export.Sheet { return export.TopClientsSheets(r) },
	})
}
