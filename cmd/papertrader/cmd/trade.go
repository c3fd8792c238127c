package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/market"
)

var buyCmd = &cobra.Command{
	Use:     "buy <SYMBOL> <QTY>",
	Short:   "Buy shares with available cash",
	Example: `  papertrader buy NFLX 5`,
	Args:    cobra.ExactArgs(2),
	RunE:    runTrade(func(a *app) tradeFunc { return a.engine.Buy }),
}

var sellCmd = &cobra.Command{
	Use:     "sell <SYMBOL> <QTY>",
	Short:   "Sell shares you hold",
	Example: `  papertrader sell NFLX 5`,
	Args:    cobra.ExactArgs(2),
	RunE:    runTrade(func(a *app) tradeFunc { return a.engine.Sell }),
}

type tradeFunc func(ctx context.Context, accountID, symbol string, quantity int64) (broker.TradeResult, error)

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)
}

func runTrade(pick func(a *app) tradeFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("quantity %q: %w", args[1], market.ErrInvalidInput)
		}

		return withApp(cmd.Context(), func(a *app) error {
			res, err := pick(a)(cmd.Context(), a.account, args[0], qty)
			if err != nil {
				return fmt.Errorf("%s %s: %w", cmd.Name(), res.Outcome, err)
			}

			verb := "Bought"
			if cmd.Name() == "sell" {
				verb = "Sold"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ %s %d %s (%s) at %s\n", verb, res.Quantity, res.Symbol, res.Name, market.FormatUSD(res.Price))
			fmt.Fprintf(out, "  Total:   %s\n", market.FormatUSD(res.Total))
			fmt.Fprintf(out, "  Cash:    %s\n", market.FormatUSD(res.Balance))
			fmt.Fprintf(out, "  Trade:   %s\n", res.RecordID)
			return nil
		})
	}
}
