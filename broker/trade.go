package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is immutable once created.
type Trade struct {
	ID           string
	OrderID      string
	AccountID    string
	InstrumentID string
	Symbol       string
	Side         Side
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Commission   decimal.Decimal
	RealizedPnL  decimal.Decimal
	ExecutedAt   time.Time
}

// SignedQuantity is the position-space quantity: positive for buys,
// negative for sells.
func (t Trade) SignedQuantity() decimal.Decimal {
	return t.Quantity.Mul(t.Side.Sign())
}

// Notional is quantity times price, before commission.
func (t Trade) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
