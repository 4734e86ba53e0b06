// Package reval refreshes unrealized P&L from current market quotes.
// It never touches realized P&L, quantity, average price or the
// ledger.
package reval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/pkg/keymutex"
	"github.com/rustyeddy/brokerage/position"
	"github.com/rustyeddy/brokerage/pricing"
	"github.com/rustyeddy/brokerage/store"
)

type Service struct {
	store  *store.Store
	prices pricing.Provider
	locks  *keymutex.Map
	log    *slog.Logger
}

func New(s *store.Store, prices pricing.Provider, locks *keymutex.Map, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, prices: prices, locks: locks, log: log}
}

func positionKey(accountID, symbol string) string {
	return "pos/" + accountID + "/" + symbol
}

// Revalue refreshes one position. The quote is fetched before the
// position lock is taken; the position is re-read under the lock so a
// racing fill is never seen half-applied.
func (s *Service) Revalue(ctx context.Context, positionID string) (broker.Position, error) {
	pos, err := s.store.GetPositionByID(ctx, positionID)
	if err != nil {
		return broker.Position{}, err
	}

	q, err := s.prices.GetQuote(ctx, pos.Symbol)
	if err != nil {
		return broker.Position{}, err
	}

	return s.apply(ctx, pos.ID, pos.AccountID, pos.Symbol, q)
}

// RevalueAll refreshes every position of the account. Quotes for all
// distinct symbols are fetched in one batched call per venue.
func (s *Service) RevalueAll(ctx context.Context, accountID string) ([]broker.Position, error) {
	positions, err := s.store.ListPositions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, p := range positions {
		if _, ok := seen[p.Symbol]; !ok {
			seen[p.Symbol] = struct{}{}
			symbols = append(symbols, p.Symbol)
		}
	}

	quotes, err := s.prices.GetQuotes(ctx, symbols)
	if err != nil {
		return nil, err
	}

	out := make([]broker.Position, 0, len(positions))
	for _, p := range positions {
		q, ok := quotes[p.Symbol]
		if !ok {
			s.log.Warn("no quote for position, skipping revaluation",
				"position", p.ID, "symbol", p.Symbol)
			continue
		}

		updated, err := s.apply(ctx, p.ID, p.AccountID, p.Symbol, q)
		if err != nil {
			return nil, fmt.Errorf("revalue %s: %w", p.Symbol, err)
		}
		out = append(out, updated)
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, positionID, accountID, symbol string, q pricing.Quote) (broker.Position, error) {
	key := positionKey(accountID, symbol)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// Re-read under the lock: a fill may have landed since listing.
	pos, err := s.store.GetPositionByID(ctx, positionID)
	if err != nil {
		return broker.Position{}, err
	}

	mark := q.MarkPrice(pos.Long() || pos.Flat())
	unrealized := position.Unrealized(pos, mark)
	now := time.Now().UTC()

	if err := s.store.UpdatePositionValuation(ctx, pos.ID, unrealized.String(), now); err != nil {
		return broker.Position{}, err
	}

	pos.UnrealizedPnL = unrealized
	pos.RevaluedAt = now
	return pos, nil
}
