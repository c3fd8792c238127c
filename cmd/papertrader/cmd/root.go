package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrader",
	Short: "A paper stock trading ledger",
	Long: `Papertrader buys and sells stocks against a simulated cash balance.

Every trade is written to an append-only ledger; holdings are always derived
from that ledger and valued with live quotes.

It provides tools for:
  - Opening accounts with starting cash
  - Quoting, buying and selling stocks
  - Valuing a portfolio at current prices
  - Exporting trade history as a table, CSV or Org-mode`,
	SilenceUsage: true,
}

var (
	cfgFile   string
	accountID string
	logLevel  string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON; defaults are used when empty)")
	rootCmd.PersistentFlags().StringVarP(&accountID, "account", "a", "", "account id (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}
