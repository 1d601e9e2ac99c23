package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/salesprofile/internal/analyzer"
	"github.com/blackwell-systems/salesprofile/internal/output"
)

var (
	crosssellAnchor string
	crosssellMinCo  int
	crosssellLimit  int
	crosssellAll    bool
)

var crosssellCmd = &cobra.Command{
	Use:   "crosssell <client>",
	Short: "Show cross-sell pairs from a client's purchase months",
	Long: `Compute support, confidence and lift for every ordered product pair the
client bought in the same month, then recommend partners for an anchor
product.

Pairs are ranked by confidence, then lift, then co-purchase months.`,
	Example: `  salesprofile crosssell "Alpha Stores"
  salesprofile crosssell "Alpha Stores" --anchor Bread --min-co 2
  salesprofile crosssell "Alpha Stores" --all`,
	Args: cobra.ExactArgs(1),
	RunE: runCrosssell,
}

func init() {
	crosssellCmd.Flags().StringVar(&crosssellAnchor, "anchor", "", "anchor product (default: top product)")
	crosssellCmd.Flags().IntVar(&crosssellMinCo, "min-co", 0, "minimum co-purchase months (default from config)")
	crosssellCmd.Flags().IntVar(&crosssellLimit, "limit", 0, "maximum recommendations (default from config)")
	crosssellCmd.Flags().BoolVar(&crosssellAll, "all", false, "also print every pair, not just the anchor's")

	RootCmd.AddCommand(crosssellCmd)
}

func runCrosssell(cmd *cobra.Command, args []string) error {
	name, err := exactArg(args, "client")
	if err != nil {
		return err
	}
	if crosssellMinCo < 0 || crosssellLimit < 0 {
		return fmt.Errorf("--min-co and --limit must not be negative")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	pairs, recs, anchor, err := s.analyzer.CrossSellPairs(cmd.Context(), analyzer.ClientRequest{
		Client:      name,
		Anchor:      crosssellAnchor,
		MinCoMonths: crosssellMinCo,
		Limit:       crosssellLimit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Client: %s\n", name)
	if anchors := analyzer.Anchors(pairs); len(anchors) > 0 {
		fmt.Fprintf(out, "Anchors: %s\n", strings.Join(anchors, ", "))
	}
	fmt.Fprintf(out, "\nRecommendations for %s\n", anchor)
	fmt.Fprint(out, output.RenderPairs(recs))

	if crosssellAll {
		fmt.Fprintln(out, "\nAll pairs")
		fmt.Fprint(out, output.RenderPairs(pairs))
	}
	return nil
}
