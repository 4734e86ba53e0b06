package cmd

import (
	"context"
	"fmt"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/engine"
	"github.com/rustyeddy/brokerage/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Submit, cancel and inspect orders",
	Long: `Submit orders against live quotes and manage their lifecycle.

Subcommands:
  submit - Submit a market, limit, stop or stop-limit order
  cancel - Cancel a pending order
  show   - Show one order
  list   - List orders for an account
  trades - List executed trades for an account

Examples:
  brokerage order submit --account <id> --symbol EUR_USD --side buy --qty 1000
  brokerage order submit --account <id> --symbol BTC_USDT --side sell --qty 0.5 --type limit --price 65000
  brokerage order cancel <order-id>`,
}

var orderSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new order",
	RunE:  runOrderSubmit,
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel a pending order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderCancel,
}

var orderShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderShow,
}

var orderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders for an account",
	RunE:  runOrderList,
}

var orderTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List executed trades for an account",
	RunE:  runOrderTrades,
}

var (
	orderAccount   string
	orderSymbol    string
	orderSide      string
	orderType      string
	orderQty       string
	orderPrice     string
	orderStopPrice string
	orderStatus    string
)

func init() {
	rootCmd.AddCommand(orderCmd)
	orderCmd.AddCommand(orderSubmitCmd)
	orderCmd.AddCommand(orderCancelCmd)
	orderCmd.AddCommand(orderShowCmd)
	orderCmd.AddCommand(orderListCmd)
	orderCmd.AddCommand(orderTradesCmd)

	orderSubmitCmd.Flags().StringVarP(&orderAccount, "account", "a", "", "account id (required)")
	orderSubmitCmd.Flags().StringVarP(&orderSymbol, "symbol", "s", "", "instrument symbol (required)")
	orderSubmitCmd.Flags().StringVar(&orderSide, "side", "", "buy or sell (required)")
	orderSubmitCmd.Flags().StringVarP(&orderType, "type", "t", "market", "order type: market, limit, stop, stop_limit")
	orderSubmitCmd.Flags().StringVarP(&orderQty, "qty", "q", "", "quantity (required)")
	orderSubmitCmd.Flags().StringVarP(&orderPrice, "price", "p", "", "limit price")
	orderSubmitCmd.Flags().StringVar(&orderStopPrice, "stop-price", "", "stop trigger price")
	orderSubmitCmd.MarkFlagRequired("account")
	orderSubmitCmd.MarkFlagRequired("symbol")
	orderSubmitCmd.MarkFlagRequired("side")
	orderSubmitCmd.MarkFlagRequired("qty")

	orderListCmd.Flags().StringVarP(&orderAccount, "account", "a", "", "account id (required)")
	orderListCmd.Flags().StringVar(&orderStatus, "status", "", "filter by status")
	orderListCmd.MarkFlagRequired("account")

	orderTradesCmd.Flags().StringVarP(&orderAccount, "account", "a", "", "account id (required)")
	orderTradesCmd.MarkFlagRequired("account")
}

func runOrderSubmit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	qty, err := decimal.NewFromString(orderQty)
	if err != nil {
		return fmt.Errorf("parse qty: %w", err)
	}

	req := engine.OrderRequest{
		AccountID: orderAccount,
		Symbol:    orderSymbol,
		Type:      broker.OrderType(orderType),
		Side:      broker.Side(orderSide),
		Quantity:  qty,
	}
	if orderPrice != "" {
		p, err := decimal.NewFromString(orderPrice)
		if err != nil {
			return fmt.Errorf("parse price: %w", err)
		}
		req.Price = &p
	}
	if orderStopPrice != "" {
		p, err := decimal.NewFromString(orderStopPrice)
		if err != nil {
			return fmt.Errorf("parse stop price: %w", err)
		}
		req.StopPrice = &p
	}

	o, err := a.engine.SubmitOrder(context.Background(), req)
	if err != nil {
		return err
	}

	printOrder(o)
	return nil
}

func runOrderCancel(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.engine.CancelOrder(context.Background(), args[0])
	if err != nil {
		return err
	}

	printOrder(o)
	return nil
}

func runOrderShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.engine.GetOrder(context.Background(), args[0])
	if err != nil {
		return err
	}

	printOrder(o)
	return nil
}

func runOrderList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	orders, err := a.engine.ListOrders(context.Background(), store.OrderFilter{
		AccountID: orderAccount,
		Status:    broker.OrderStatus(orderStatus),
	})
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders.")
		return nil
	}

	fmt.Printf("%-28s %-12s %-10s %-5s %12s %-16s\n",
		"ID", "SYMBOL", "TYPE", "SIDE", "QTY", "STATUS")
	for _, o := range orders {
		fmt.Printf("%-28s %-12s %-10s %-5s %12s %-16s\n",
			o.ID, o.Symbol, o.Type, o.Side, o.Quantity, o.Status)
	}
	return nil
}

func runOrderTrades(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	trades, err := a.engine.ListTrades(context.Background(), store.TradeFilter{
		AccountID: orderAccount,
	})
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Println("No trades.")
		return nil
	}

	fmt.Printf("%-28s %-12s %-5s %12s %14s %12s %14s\n",
		"ID", "SYMBOL", "SIDE", "QTY", "PRICE", "COMMISSION", "REALIZED")
	for _, t := range trades {
		fmt.Printf("%-28s %-12s %-5s %12s %14s %12s %14s\n",
			t.ID, t.Symbol, t.Side, t.Quantity, t.Price, t.Commission, t.RealizedPnL)
	}
	return nil
}

func printOrder(o broker.Order) {
	fmt.Printf("Order %s\n", o.ID)
	fmt.Printf("  Symbol: %s\n", o.Symbol)
	fmt.Printf("  Type: %s  Side: %s  Qty: %s\n", o.Type, o.Side, o.Quantity)
	if o.Price != nil {
		fmt.Printf("  Limit Price: %s\n", o.Price)
	}
	if o.StopPrice != nil {
		fmt.Printf("  Stop Price: %s\n", o.StopPrice)
	}
	fmt.Printf("  Status: %s\n", o.Status)
	if o.Status == broker.OrderFilled {
		fmt.Printf("  Filled: %s @ %s (commission %s)\n",
			o.FilledQty, o.AvgFillPrice, o.Commission)
	}
	if o.Reason != "" {
		fmt.Printf("  Reason: %s\n", o.Reason)
	}
}
