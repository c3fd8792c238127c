package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show trade history",
	Long: `Show an account's trades, oldest first.

Subcommands:
  trade - Get details of a specific trade by ID (sqlite store)
  day   - List trades made on a specific day (sqlite store)

Examples:
  papertrader history
  papertrader history --symbol NFLX --format csv > nflx.csv
  papertrader history trade <trade-id>
  papertrader history day 2024-01-15`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryTrade,
}

var historyDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades made on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDay,
}

var (
	historySymbol string
	historyFormat string
)

// tradeFinder is implemented by ledgers that can look trades up directly.
type tradeFinder interface {
	GetTrade(ctx context.Context, tradeID string) (journal.TradeRecord, error)
	ListTradesBetween(ctx context.Context, accountID string, start, end time.Time) ([]journal.TradeRecord, error)
}

var errNoTradeLookup = errors.New("trade lookup needs the sqlite store")

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyTradeCmd)
	historyCmd.AddCommand(historyDayCmd)

	historyCmd.Flags().StringVarP(&historySymbol, "symbol", "s", "", "only show trades of this symbol")
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", "table", "output format: table, csv or org")
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		recs, err := a.engine.Trades(cmd.Context(), a.account, historySymbol)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		return writeTrades(cmd, recs)
	})
}

func runHistoryTrade(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		f, ok := a.ledger.(tradeFinder)
		if !ok {
			return errNoTradeLookup
		}
		rec, err := f.GetTrade(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get trade: %w", err)
		}
		return writeTrades(cmd, []journal.TradeRecord{rec})
	})
}

func runHistoryDay(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		f, ok := a.ledger.(tradeFinder)
		if !ok {
			return errNoTradeLookup
		}
		start, end, err := dayBounds(time.Local, args[0])
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		recs, err := f.ListTradesBetween(cmd.Context(), a.account, start, end)
		if err != nil {
			return fmt.Errorf("query trades: %w", err)
		}
		return writeTrades(cmd, recs)
	})
}

func writeTrades(cmd *cobra.Command, recs []journal.TradeRecord) error {
	out := cmd.OutOrStdout()
	switch historyFormat {
	case "csv":
		return journal.WriteCSV(out, recs)
	case "org":
		fmt.Fprintln(out, journal.FormatTradesOrg(recs))
		return nil
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tTIME\tSIDE\tSYMBOL\tSHARES\tPRICE\tAMOUNT")
		for _, r := range recs {
			t := r.Time.Local()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				t.Format("2006-01-02"), t.Format("15:04:05"),
				r.Side(), r.Symbol, r.Quantity,
				market.FormatUSD(r.Price), market.FormatUSD(r.Amount()))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table|csv|org)", historyFormat)
	}
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
