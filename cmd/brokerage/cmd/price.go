package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var priceCmd = &cobra.Command{
	Use:   "price <symbol> [symbol...]",
	Short: "Fetch current quotes",
	Long: `Fetch current bid/ask quotes for one or more symbols. Symbols are
routed to the owning venue; multi-symbol requests make one batched call
per venue.

Examples:
  brokerage price EUR_USD
  brokerage price EUR_USD USD_JPY BTC_USDT`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	quotes, err := a.router.GetQuotes(context.Background(), args)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %14s %14s %-10s\n", "SYMBOL", "BID", "ASK", "SOURCE")
	for _, sym := range args {
		q, ok := quotes[sym]
		if !ok {
			fmt.Printf("%-12s %14s %14s %-10s\n", sym, "-", "-", "unavailable")
			continue
		}
		fmt.Printf("%-12s %14s %14s %-10s\n", sym, q.Bid, q.Ask, q.Source)
	}
	return nil
}
