package pricing

import (
	"context"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
)

// Quote is a normalized snapshot from one venue. It is ephemeral:
// consumed for a fill or a revaluation, never persisted.
type Quote struct {
	Symbol   string
	Bid      decimal.Decimal
	Ask      decimal.Decimal
	Mark     decimal.Decimal
	Last     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	BaseVol  decimal.Decimal
	QuoteVol decimal.Decimal
	Time     time.Time
	Source   string
}

// Validate rejects quotes with no usable price. A missing or zero
// price is a quote-unavailable condition, never a zero fill.
func (q Quote) Validate() error {
	if q.Bid.Sign() > 0 && q.Ask.Sign() > 0 && q.Ask.Cmp(q.Bid) >= 0 {
		return nil
	}
	return broker.ErrQuoteUnavailable
}

// MarkPrice is the valuation price for an open position: the venue
// mark when reported, otherwise the closing side of the book
// (longs value on bid, shorts on ask).
func (q Quote) MarkPrice(long bool) decimal.Decimal {
	if q.Mark.Sign() > 0 {
		return q.Mark
	}
	if long {
		return q.Bid
	}
	return q.Ask
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(decimal.NewFromInt(2))
}

// Provider is the uniform interface over heterogeneous quote venues.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
	GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}
