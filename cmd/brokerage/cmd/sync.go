package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the instrument catalog from both venues",
	Long: `Pull the tradable instrument catalogs from the configured venues and
upsert them into the local registry.

Re-running is safe: existing instruments keep their ids and are updated
in place.

Example:
  brokerage sync -c brokerage.yaml`,
	RunE: runSync,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the instrument catalog",
	RunE:  runInstruments,
}

var instrumentsActive bool

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(instrumentsCmd)

	instrumentsCmd.Flags().BoolVar(&instrumentsActive, "active", false, "only active instruments")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.syncer.Sync(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d instruments (%d forex, %d crypto)\n",
		counts.Total, counts.Forex, counts.Crypto)
	return nil
}

func runInstruments(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	instruments, err := a.registry.List(context.Background(), instrumentsActive)
	if err != nil {
		return err
	}
	if len(instruments) == 0 {
		fmt.Println("No instruments. Run 'brokerage sync' first.")
		return nil
	}

	fmt.Printf("%-12s %-24s %-8s %12s %12s %10s\n",
		"SYMBOL", "NAME", "TYPE", "MIN QTY", "MAX QTY", "TICK")
	for _, in := range instruments {
		fmt.Printf("%-12s %-24s %-8s %12s %12s %10s\n",
			in.Symbol, in.Name, in.Type, in.MinQuantity, in.MaxQuantity, in.TickSize)
	}
	return nil
}
