package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderMarket    OrderType = "market"
	OrderLimit     OrderType = "limit"
	OrderStop      OrderType = "stop"
	OrderStopLimit OrderType = "stop_limit"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Sign returns +1 for buy, -1 for sell.
func (s Side) Sign() decimal.Decimal {
	if s == Sell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderFilled          OrderStatus = "filled"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderCancelled       OrderStatus = "cancelled"
	OrderRejected        OrderStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
// partially_filled is not terminal: it may still fill.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderFilled, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// Order is created once and mutated only by the execution engine.
// Cancellation is a status transition, never a delete.
type Order struct {
	ID           string
	AccountID    string
	InstrumentID string
	Symbol       string
	Type         OrderType
	Side         Side
	Quantity     decimal.Decimal
	Price        *decimal.Decimal // limit price, nil for market/stop
	StopPrice    *decimal.Decimal // nil unless stop/stop_limit
	Status       OrderStatus
	FilledQty    decimal.Decimal
	AvgFillPrice decimal.Decimal
	Commission   decimal.Decimal
	Attempts     int // quote fetch attempts while pending
	Reason       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
