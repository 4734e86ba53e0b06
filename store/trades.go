package store

import (
	"context"
	"fmt"

	"github.com/rustyeddy/brokerage/broker"
)

// TradeFilter narrows ListTrades. Zero values mean no constraint.
type TradeFilter struct {
	AccountID string
	OrderID   string
	Symbol    string
}

func (s *Store) ListTrades(ctx context.Context, f TradeFilter) ([]broker.Trade, error) {
	q := tradeSelect + ` WHERE 1=1`
	var args []any
	if f.AccountID != "" {
		q += ` AND t.account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.OrderID != "" {
		q += ` AND t.order_id = ?`
		args = append(args, f.OrderID)
	}
	if f.Symbol != "" {
		q += ` AND i.symbol = ?`
		args = append(args, f.Symbol)
	}
	q += ` ORDER BY t.executed_at`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []broker.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

const tradeSelect = `
	SELECT t.id, t.order_id, t.account_id, t.instrument_id, i.symbol, t.side,
	       t.quantity, t.price, t.commission, t.realized_pnl, t.executed_at
	FROM trades t JOIN instruments i ON i.id = t.instrument_id`

func scanTrade(row rowScanner) (broker.Trade, error) {
	var (
		t                     broker.Trade
		side                  string
		qty, price, comm, rpl string
	)
	err := row.Scan(&t.ID, &t.OrderID, &t.AccountID, &t.InstrumentID, &t.Symbol,
		&side, &qty, &price, &comm, &rpl, &t.ExecutedAt)
	if err != nil {
		return broker.Trade{}, fmt.Errorf("scan trade: %w", err)
	}

	t.Side = broker.Side(side)
	if t.Quantity, err = parseDec(qty); err != nil {
		return broker.Trade{}, fmt.Errorf("parse quantity: %w", err)
	}
	if t.Price, err = parseDec(price); err != nil {
		return broker.Trade{}, fmt.Errorf("parse price: %w", err)
	}
	if t.Commission, err = parseDec(comm); err != nil {
		return broker.Trade{}, fmt.Errorf("parse commission: %w", err)
	}
	if t.RealizedPnL, err = parseDec(rpl); err != nil {
		return broker.Trade{}, fmt.Errorf("parse realized_pnl: %w", err)
	}
	return t, nil
}
