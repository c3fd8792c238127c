package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/market"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Open accounts and show balances",
	Long: `Manage paper trading accounts.

Subcommands:
  open    - Open an account with starting cash
  balance - Show an account's cash balance

Examples:
  papertrader account open --cash 25000
  papertrader -a alice account balance`,
}

var accountOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open an account with starting cash",
	Args:  cobra.NoArgs,
	RunE:  runAccountOpen,
}

var accountBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the cash balance",
	Args:  cobra.NoArgs,
	RunE:  runAccountBalance,
}

var accountOpenCash string

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountOpenCmd)
	accountCmd.AddCommand(accountBalanceCmd)

	accountOpenCmd.Flags().StringVar(&accountOpenCash, "cash", "", "opening cash (default from config)")
}

func runAccountOpen(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		opening, err := a.cfg.Account.Opening()
		if err != nil {
			return err
		}
		if accountOpenCash != "" {
			opening, err = decimal.NewFromString(accountOpenCash)
			if err != nil {
				return fmt.Errorf("--cash %q: %w", accountOpenCash, err)
			}
		}

		acct, err := a.engine.OpenAccount(cmd.Context(), a.account, opening)
		if err != nil {
			return fmt.Errorf("open account: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Opened account %s with %s\n", acct.ID, market.FormatUSD(acct.Cash))
		return nil
	})
}

func runAccountBalance(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		bal, err := a.engine.Balance(cmd.Context(), a.account)
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.account, market.FormatUSD(bal))
		return nil
	})
}
