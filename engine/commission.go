package engine

import "github.com/shopspring/decimal"

// CommissionPolicy prices the commission for a fill. The rate is an
// external configuration input, never hardcoded in the engine.
type CommissionPolicy interface {
	Commission(qty, price decimal.Decimal) decimal.Decimal
}

// RateCommission charges rate times notional.
type RateCommission struct {
	Rate decimal.Decimal
}

func (r RateCommission) Commission(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Mul(r.Rate)
}
