package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/brokerage/broker"
)

func (s *Store) CreateOrder(ctx context.Context, o broker.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders
		(id, account_id, instrument_id, order_type, side, quantity, price,
		 stop_price, status, filled_quantity, average_fill_price, commission,
		 attempts, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.AccountID, o.InstrumentID, string(o.Type), string(o.Side),
		o.Quantity.String(), nullDec(o.Price), nullDec(o.StopPrice),
		string(o.Status), o.FilledQty.String(), o.AvgFillPrice.String(),
		o.Commission.String(), o.Attempts, o.Reason, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (broker.Order, error) {
	row := s.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, id)
	return scanOrder(row)
}

// OrderFilter narrows ListOrders. Zero values mean no constraint.
type OrderFilter struct {
	AccountID string
	Status    broker.OrderStatus
	Symbol    string
}

func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]broker.Order, error) {
	q := orderSelect + ` WHERE 1=1`
	var args []any
	if f.AccountID != "" {
		q += ` AND o.account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.Status != "" {
		q += ` AND o.status = ?`
		args = append(args, string(f.Status))
	}
	if f.Symbol != "" {
		q += ` AND i.symbol = ?`
		args = append(args, f.Symbol)
	}
	q += ` ORDER BY o.created_at`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []broker.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// TransitionOrder is the compare-and-set status guard: the update
// applies only while the order still holds the expected status.
// Returns ErrInvalidStateTransition when another writer won.
func (s *Store) TransitionOrder(ctx context.Context, id string, from, to broker.OrderStatus, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), reason, time.Now().UTC(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("transition order: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition order: %w", err)
	}
	if n == 0 {
		// Either the order does not exist or it already left `from`.
		if _, err := s.GetOrder(ctx, id); err != nil {
			return err
		}
		return broker.ErrInvalidStateTransition
	}
	return nil
}

// MarkOrderAttempt records a failed quote fetch for a pending order.
func (s *Store) MarkOrderAttempt(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET attempts = attempts + 1, updated_at = ?
		WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark order attempt: %w", err)
	}
	return nil
}

const orderSelect = `
	SELECT o.id, o.account_id, o.instrument_id, i.symbol, o.order_type, o.side,
	       o.quantity, o.price, o.stop_price, o.status, o.filled_quantity,
	       o.average_fill_price, o.commission, o.attempts, o.reason,
	       o.created_at, o.updated_at
	FROM orders o JOIN instruments i ON i.id = o.instrument_id`

func scanOrder(row rowScanner) (broker.Order, error) {
	var (
		o                broker.Order
		typ, side, stat  string
		qty, filled, avg string
		comm             string
		price, stop      sql.NullString
	)
	err := row.Scan(&o.ID, &o.AccountID, &o.InstrumentID, &o.Symbol, &typ, &side,
		&qty, &price, &stop, &stat, &filled, &avg, &comm, &o.Attempts, &o.Reason,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return broker.Order{}, fmt.Errorf("order: %w", broker.ErrNotFound)
	}
	if err != nil {
		return broker.Order{}, fmt.Errorf("scan order: %w", err)
	}

	o.Type = broker.OrderType(typ)
	o.Side = broker.Side(side)
	o.Status = broker.OrderStatus(stat)
	if o.Quantity, err = parseDec(qty); err != nil {
		return broker.Order{}, fmt.Errorf("parse quantity: %w", err)
	}
	if o.FilledQty, err = parseDec(filled); err != nil {
		return broker.Order{}, fmt.Errorf("parse filled_quantity: %w", err)
	}
	if o.AvgFillPrice, err = parseDec(avg); err != nil {
		return broker.Order{}, fmt.Errorf("parse average_fill_price: %w", err)
	}
	if o.Commission, err = parseDec(comm); err != nil {
		return broker.Order{}, fmt.Errorf("parse commission: %w", err)
	}
	if o.Price, err = parseNullDec(price); err != nil {
		return broker.Order{}, fmt.Errorf("parse price: %w", err)
	}
	if o.StopPrice, err = parseNullDec(stop); err != nil {
		return broker.Order{}, fmt.Errorf("parse stop_price: %w", err)
	}
	return o, nil
}
