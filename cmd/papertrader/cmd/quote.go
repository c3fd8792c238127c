package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/market"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <SYMBOL>",
	Short: "Look up the current price of a stock",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		q, err := a.engine.Quote(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("quote: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "A share of %s (%s) costs %s.\n", q.Name, q.Symbol, market.FormatUSD(q.Price))
		return nil
	})
}
