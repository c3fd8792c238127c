package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/market"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Value current holdings at live prices",
	Args:  cobra.NoArgs,
	RunE:  runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		v, err := a.engine.Portfolio(cmd.Context(), a.account)
		if err != nil {
			return fmt.Errorf("portfolio: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "SYMBOL\tNAME\tSHARES\tPRICE\tTOTAL\t")
		for _, p := range v.Positions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n", p.Symbol, p.Name, p.Quantity, market.FormatUSD(p.Price), market.FormatUSD(p.Value))
		}
		fmt.Fprintf(w, "CASH\t\t\t\t%s\t\n", market.FormatUSD(v.Cash))
		fmt.Fprintf(w, "\t\t\t\t%s\t\n", market.FormatUSD(v.Total))
		return w.Flush()
	})
}
