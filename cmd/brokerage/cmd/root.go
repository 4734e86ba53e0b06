package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brokerage",
	Short: "A simulated multi-venue brokerage backend",
	Long: `Brokerage is a simulated trading backend written in Go.

It provides tools for:
  - Managing practice trading accounts with an exact-arithmetic ledger
  - Submitting market, limit, stop and stop-limit orders
  - Position accounting with realized and unrealized P&L
  - Live quotes routed across a forex venue and a crypto futures venue
  - Syncing the tradable instrument catalog from both venues
  - Fetching and caching historical candles

Complete documentation is available at https://github.com/rustyeddy/brokerage`,
}

var cfgPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (YAML or JSON)")
}
