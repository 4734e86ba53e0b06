package cmd

import (
	"context"
	"fmt"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage trading accounts",
	Long: `Create and inspect trading accounts.

Subcommands:
  create    - Create a new account
  show      - Show an account's details and balance
  positions - List an account's open positions

Examples:
  brokerage account create --name "Paper" --currency USD --balance 10000
  brokerage account show <account-id>`,
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new trading account",
	RunE:  runAccountCreate,
}

var accountShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show account details",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountShow,
}

var accountPositionsCmd = &cobra.Command{
	Use:   "positions <account-id>",
	Short: "List the account's open positions",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountPositions,
}

var (
	accountName     string
	accountType     string
	accountCurrency string
	accountBalance  string
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountPositionsCmd)

	accountCreateCmd.Flags().StringVarP(&accountName, "name", "n", "", "account name (required)")
	accountCreateCmd.Flags().StringVarP(&accountType, "type", "t", "practice", "account type: practice or live")
	accountCreateCmd.Flags().StringVar(&accountCurrency, "currency", "USD", "account currency")
	accountCreateCmd.Flags().StringVarP(&accountBalance, "balance", "b", "10000", "starting balance")
	accountCreateCmd.MarkFlagRequired("name")
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	balance, err := decimal.NewFromString(accountBalance)
	if err != nil {
		return fmt.Errorf("parse balance: %w", err)
	}

	acct, err := a.engine.CreateAccount(context.Background(),
		accountName, broker.AccountType(accountType), accountCurrency, balance)
	if err != nil {
		return err
	}

	fmt.Printf("Account created: %s\n", acct.ID)
	fmt.Printf("  Name: %s\n", acct.Name)
	fmt.Printf("  Type: %s\n", acct.Type)
	fmt.Printf("  Balance: %s %s\n", acct.Balance, acct.Currency)
	return nil
}

func runAccountShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	acct, err := a.engine.GetAccount(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Account %s\n", acct.ID)
	fmt.Printf("  Name: %s\n", acct.Name)
	fmt.Printf("  Type: %s\n", acct.Type)
	fmt.Printf("  Balance: %s %s\n", acct.Balance, acct.Currency)
	return nil
}

func runAccountPositions(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	positions, err := a.engine.ListPositions(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return nil
	}

	fmt.Printf("%-12s %12s %14s %14s %14s\n",
		"SYMBOL", "QTY", "AVG PRICE", "REALIZED", "UNREALIZED")
	for _, p := range positions {
		fmt.Printf("%-12s %12s %14s %14s %14s\n",
			p.Symbol, p.Quantity, p.AveragePrice, p.RealizedPnL, p.UnrealizedPnL)
	}
	return nil
}
