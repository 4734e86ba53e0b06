package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/brokerage/broker"
)

// TypeResolver reports the instrument type for a symbol. The instrument
// registry satisfies this.
type TypeResolver func(ctx context.Context, symbol string) (broker.InstrumentType, error)

// Router is the multi-venue price provider: forex symbols go to the
// forex venue, crypto symbols to the futures venue. Multi-symbol
// requests are batched per venue, one upstream call each.
type Router struct {
	forex  Provider
	crypto Provider
	types  TypeResolver
	log    *slog.Logger
}

func NewRouter(forex, crypto Provider, types TypeResolver, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{forex: forex, crypto: crypto, types: types, log: log}
}

func (r *Router) venueFor(t broker.InstrumentType) (Provider, error) {
	switch t {
	case broker.InstrumentForex:
		if r.forex == nil {
			return nil, fmt.Errorf("forex venue not configured: %w", broker.ErrQuoteUnavailable)
		}
		return r.forex, nil
	case broker.InstrumentCrypto, broker.InstrumentFuture:
		if r.crypto == nil {
			return nil, fmt.Errorf("crypto venue not configured: %w", broker.ErrQuoteUnavailable)
		}
		return r.crypto, nil
	default:
		return nil, fmt.Errorf("no venue for instrument type %q: %w", t, broker.ErrQuoteUnavailable)
	}
}

func (r *Router) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	t, err := r.types(ctx, symbol)
	if err != nil {
		return Quote{}, fmt.Errorf("resolve %s: %w", symbol, err)
	}

	venue, err := r.venueFor(t)
	if err != nil {
		return Quote{}, err
	}

	q, err := venue.GetQuote(ctx, symbol)
	if err != nil {
		r.log.Warn("quote fetch failed", "symbol", symbol, "err", err)
		return Quote{}, err
	}
	return q, nil
}

func (r *Router) GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	byVenue := make(map[Provider][]string)
	for _, s := range symbols {
		t, err := r.types(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", s, err)
		}
		venue, err := r.venueFor(t)
		if err != nil {
			return nil, err
		}
		byVenue[venue] = append(byVenue[venue], s)
	}

	out := make(map[string]Quote, len(symbols))
	for venue, syms := range byVenue {
		quotes, err := venue.GetQuotes(ctx, syms)
		if err != nil {
			return nil, err
		}
		for sym, q := range quotes {
			out[sym] = q
		}
	}
	return out, nil
}
