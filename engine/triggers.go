package engine

import (
	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/pricing"
	"github.com/shopspring/decimal"
)

// evalTrigger decides whether the order executes against the quote and
// at what price. Market orders take the trade side of the book (buy at
// ask, sell at bid). Limit orders trigger when the book reaches the
// limit and fill at the current quote, never at a price worse than the
// limit. Stop orders trigger once the book crosses the stop level and
// then fill like a market order; stop-limits additionally honor their
// limit. Evaluation is stateless: the trigger is not latched between
// passes, so a stop-limit fills only when one quote satisfies both the
// stop and the limit.
func evalTrigger(o broker.Order, q pricing.Quote) (decimal.Decimal, bool) {
	buy := o.Side == broker.Buy

	market := q.Ask
	if !buy {
		market = q.Bid
	}

	switch o.Type {
	case broker.OrderMarket:
		return market, true

	case broker.OrderLimit:
		return limitFill(buy, market, *o.Price)

	case broker.OrderStop:
		if !stopTriggered(buy, market, *o.StopPrice) {
			return decimal.Zero, false
		}
		return market, true

	case broker.OrderStopLimit:
		if !stopTriggered(buy, market, *o.StopPrice) {
			return decimal.Zero, false
		}
		return limitFill(buy, market, *o.Price)
	}

	return decimal.Zero, false
}

// limitFill triggers a buy at or below the limit and a sell at or
// above it, capping the fill so it is never worse than the limit.
func limitFill(buy bool, market, limit decimal.Decimal) (decimal.Decimal, bool) {
	if buy {
		if market.Cmp(limit) > 0 {
			return decimal.Zero, false
		}
		return decimal.Min(market, limit), true
	}
	if market.Cmp(limit) < 0 {
		return decimal.Zero, false
	}
	return decimal.Max(market, limit), true
}

// stopTriggered reports whether the book crossed the stop level: buys
// trigger when the price rises to the stop, sells when it falls to it.
func stopTriggered(buy bool, market, stop decimal.Decimal) bool {
	if buy {
		return market.Cmp(stop) >= 0
	}
	return market.Cmp(stop) <= 0
}
