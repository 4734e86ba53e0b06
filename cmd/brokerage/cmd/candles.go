package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/brokerage/history"
	"github.com/spf13/cobra"
)

var candlesCmd = &cobra.Command{
	Use:   "candles <symbol>",
	Short: "Fetch historical candles",
	Long: `Fetch OHLCV candles for a symbol. Bars already cached locally are
served from the database; only missing ranges hit the venue.

Supported intervals: ` + strings.Join(history.Intervals(), ", ") + `

Examples:
  brokerage candles EUR_USD --interval 1h --start 2024-01-01 --end 2024-02-01
  brokerage candles BTC_USDT --interval 5m --start 2024-06-01T00:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: runCandles,
}

var (
	candlesInterval string
	candlesStart    string
	candlesEnd      string
)

func init() {
	rootCmd.AddCommand(candlesCmd)

	candlesCmd.Flags().StringVarP(&candlesInterval, "interval", "i", "1h", "bar interval")
	candlesCmd.Flags().StringVar(&candlesStart, "start", "", "range start, RFC 3339 or YYYY-MM-DD (required)")
	candlesCmd.Flags().StringVar(&candlesEnd, "end", "", "range end, defaults to now")
	candlesCmd.MarkFlagRequired("start")
}

func parseTimeArg(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func runCandles(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start, err := parseTimeArg(candlesStart)
	if err != nil {
		return fmt.Errorf("parse start: %w", err)
	}
	end := time.Now().UTC()
	if candlesEnd != "" {
		end, err = parseTimeArg(candlesEnd)
		if err != nil {
			return fmt.Errorf("parse end: %w", err)
		}
	}

	candles, err := a.history.GetCandles(context.Background(), args[0], candlesInterval, start, end)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		fmt.Println("No candles in range.")
		return nil
	}

	fmt.Printf("%-20s %12s %12s %12s %12s %14s\n",
		"TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
	for _, c := range candles {
		fmt.Printf("%-20s %12.5f %12.5f %12.5f %12.5f %14.2f\n",
			c.Time.Format("2006-01-02 15:04:05"), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	fmt.Printf("\n%d candles\n", len(candles))
	return nil
}
