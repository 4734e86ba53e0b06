package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the per (account, instrument) aggregate. It is derived
// state: quantity and realized P&L must always equal the fold of all
// trades for the pair.
type Position struct {
	ID            string
	AccountID     string
	InstrumentID  string
	Symbol        string
	Quantity      decimal.Decimal // positive long, negative short
	AveragePrice  decimal.Decimal
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	RevaluedAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p Position) Long() bool  { return p.Quantity.Sign() > 0 }
func (p Position) Short() bool { return p.Quantity.Sign() < 0 }
func (p Position) Flat() bool  { return p.Quantity.IsZero() }
