package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	clientsGroup  string
	clientsFormat string
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List clients in a customer group",
	Long: `List the clients of a customer group, alphabetically.

Without --group the configured default group is used. Pass --group All to
list every client.`,
	Example: `  salesprofile clients
  salesprofile clients --group RETAIL
  salesprofile clients --group All --format json`,
	Args: cobra.NoArgs,
	RunE: runClients,
}

var productsFormat string

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List every product sold",
	Args:  cobra.NoArgs,
	RunE:  runProducts,
}

func init() {
	clientsCmd.Flags().StringVar(&clientsGroup, "group", "", "customer group (default from config; All for every group)")
	clientsCmd.Flags().StringVar(&clientsFormat, "format", formatTable, "output format: table or json")
	productsCmd.Flags().StringVar(&productsFormat, "format", formatTable, "output format: table or json")

	RootCmd.AddCommand(clientsCmd)
	RootCmd.AddCommand(productsCmd)
}

func runClients(cmd *cobra.Command, args []string) error {
	if err := validateListFormat(clientsFormat); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	clients, err := s.analyzer.Clients(cmd.Context(), clientsGroup)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), s.cfg, clientsFormat, "", report{
		kind: "clients",
		data: clients,
		text: func() string { return output.RenderList("Clients", clients) },
	})
}

func runProducts(cmd *cobra.Command, args []string) error {
	if err := validateListFormat(productsFormat); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	products, err := s.analyzer.Products(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), s.cfg, productsFormat, "", report{
		kind: "products",
		data: products,
		text: func() string { return output.RenderList("Products", products) },
	})
}

func validateListFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("invalid format %q (must be table or json)", format)
	}
	return nil
}
