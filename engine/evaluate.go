package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/pricing"
	"github.com/rustyeddy/brokerage/store"
)

// EvaluatePending is one discrete evaluation point: every pending
// order gets a chance to trigger against a fresh quote. Quotes are
// fetched once per distinct symbol, batched per venue, before any
// order is touched. Returns the number of orders filled this pass.
func (e *Engine) EvaluatePending(ctx context.Context) (int, error) {
	pending, err := e.store.ListOrders(ctx, store.OrderFilter{Status: broker.OrderPending})
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	due := pending[:0]
	seen := make(map[string]struct{})
	var symbols []string
	for _, o := range pending {
		// Orders with failed fetches back off exponentially.
		if o.Attempts > 0 && now.Before(o.UpdatedAt.Add(pricing.Backoff(o.Attempts))) {
			continue
		}
		due = append(due, o)
		if _, ok := seen[o.Symbol]; !ok {
			seen[o.Symbol] = struct{}{}
			symbols = append(symbols, o.Symbol)
		}
	}
	if len(due) == 0 {
		return 0, nil
	}

	quotes, err := e.prices.GetQuotes(ctx, symbols)
	if err != nil {
		if !errors.Is(err, broker.ErrQuoteUnavailable) {
			return 0, err
		}
		// The whole batch failed: charge every due order one attempt.
		for _, o := range due {
			if _, ferr := e.quoteFailed(ctx, o, err); ferr != nil {
				return 0, ferr
			}
		}
		return 0, nil
	}

	filled := 0
	for _, o := range due {
		q, ok := quotes[o.Symbol]
		if !ok {
			if _, ferr := e.quoteFailed(ctx, o, broker.ErrQuoteUnavailable); ferr != nil {
				return filled, ferr
			}
			continue
		}

		res, err := e.executeWithQuote(ctx, o, q)
		switch {
		case errors.Is(err, broker.ErrInvalidStateTransition):
			// Lost to a concurrent cancel; nothing to do.
		case errors.Is(err, broker.ErrInsufficientFunds):
			// Order was rejected inside executeWithQuote.
		case err != nil:
			e.log.Error("evaluation pass failed", "order", o.ID, "err", err)
			return filled, err
		case res.Status == broker.OrderFilled:
			filled++
		}
	}

	return filled, nil
}
