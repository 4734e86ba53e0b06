package main

import (
	"os"

	"github.com/rustyeddy/brokerage/cmd/brokerage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
