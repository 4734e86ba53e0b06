package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var revalueCmd = &cobra.Command{
	Use:   "revalue",
	Short: "Refresh unrealized P&L from current quotes",
	Long: `Re-mark open positions against fresh quotes and persist the updated
unrealized P&L. Realized P&L and the cash balance are never touched.

Examples:
  brokerage revalue --account <account-id>
  brokerage revalue --position <position-id>`,
	RunE: runRevalue,
}

var (
	revalueAccount  string
	revaluePosition string
)

func init() {
	rootCmd.AddCommand(revalueCmd)

	revalueCmd.Flags().StringVarP(&revalueAccount, "account", "a", "", "revalue all positions of this account")
	revalueCmd.Flags().StringVarP(&revaluePosition, "position", "p", "", "revalue one position")
	revalueCmd.MarkFlagsOneRequired("account", "position")
	revalueCmd.MarkFlagsMutuallyExclusive("account", "position")
}

func runRevalue(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	if revaluePosition != "" {
		p, err := a.reval.Revalue(ctx, revaluePosition)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %12s %14s %14s\n", "SYMBOL", "QTY", "AVG PRICE", "UNREALIZED")
		fmt.Printf("%-12s %12s %14s %14s\n", p.Symbol, p.Quantity, p.AveragePrice, p.UnrealizedPnL)
		return nil
	}

	positions, err := a.reval.RevalueAll(ctx, revalueAccount)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		fmt.Println("No positions revalued.")
		return nil
	}

	fmt.Printf("%-12s %12s %14s %14s\n", "SYMBOL", "QTY", "AVG PRICE", "UNREALIZED")
	for _, p := range positions {
		fmt.Printf("%-12s %12s %14s %14s\n", p.Symbol, p.Quantity, p.AveragePrice, p.UnrealizedPnL)
	}
	return nil
}
