package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rustyeddy/brokerage/engine"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pending-order evaluation loop",
	Long: `Run the background service that periodically re-evaluates pending
limit and stop orders against fresh quotes, filling the ones that
trigger.

The evaluation interval comes from trading.eval_interval in the config
file. Stop with Ctrl-C.

Example:
  brokerage serve -c brokerage.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	interval, err := a.cfg.Trading.ParseEvalInterval()
	if err != nil {
		return fmt.Errorf("eval interval: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := engine.NewScheduler(a.engine, interval, a.log)
	a.log.Info("evaluation loop started", "interval", interval)

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("evaluation loop stopped")
	return nil
}
