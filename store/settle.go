package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/ledger"
	"github.com/shopspring/decimal"
)

// Settlement is the all-or-nothing unit a fill commits: the trade
// record, the post-fill position, the order transition and the balance
// movement either all apply or none do.
type Settlement struct {
	Trade         broker.Trade
	Position      broker.Position // post-fill state
	Order         broker.Order    // with fill fields set
	BalanceDelta  decimal.Decimal // signed cash flow including commission
	AllowNegative bool
}

// Settle commits a fill in one transaction. The order transition is a
// compare-and-set from pending: if a concurrent cancellation already
// won, nothing is applied and ErrInvalidStateTransition is returned.
// A balance that would go negative under the default policy rolls
// everything back with ErrInsufficientFunds.
func (s *Store) Settle(ctx context.Context, p Settlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	// Order first: the CAS guards the whole settlement.
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, filled_quantity = ?, average_fill_price = ?,
			commission = ?, reason = '', updated_at = ?
		WHERE id = ? AND status = ?`,
		string(broker.OrderFilled), p.Order.FilledQty.String(),
		p.Order.AvgFillPrice.String(), p.Order.Commission.String(), now,
		p.Order.ID, string(broker.OrderPending),
	)
	if err != nil {
		return fmt.Errorf("fill order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fill order: %w", err)
	}
	if n == 0 {
		return broker.ErrInvalidStateTransition
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(id, order_id, account_id, instrument_id, side, quantity, price,
		 commission, realized_pnl, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Trade.ID, p.Trade.OrderID, p.Trade.AccountID, p.Trade.InstrumentID,
		string(p.Trade.Side), p.Trade.Quantity.String(), p.Trade.Price.String(),
		p.Trade.Commission.String(), p.Trade.RealizedPnL.String(), p.Trade.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO positions
		(id, account_id, instrument_id, quantity, average_price, realized_pnl,
		 unrealized_pnl, revalued_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, instrument_id) DO UPDATE SET
			quantity = excluded.quantity,
			average_price = excluded.average_price,
			realized_pnl = excluded.realized_pnl,
			updated_at = excluded.updated_at`,
		p.Position.ID, p.Position.AccountID, p.Position.InstrumentID,
		p.Position.Quantity.String(), p.Position.AveragePrice.String(),
		p.Position.RealizedPnL.String(), p.Position.UnrealizedPnL.String(),
		nullTime(p.Position.RevaluedAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	balance, err := ledger.Apply(ctx, tx, p.Trade.AccountID, p.BalanceDelta)
	if err != nil {
		return err
	}
	if balance.Sign() < 0 && !p.AllowNegative {
		return broker.ErrInsufficientFunds
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement: %w", err)
	}
	return nil
}
