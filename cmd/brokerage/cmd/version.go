package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the brokerage CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brokerage version %s\n", version)
		fmt.Println("A simulated multi-venue brokerage backend")
		fmt.Println("https://github.com/rustyeddy/brokerage")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
