package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/brokerage/broker"
)

func (s *Store) GetPositionByID(ctx context.Context, id string) (broker.Position, error) {
	row := s.db.QueryRowContext(ctx, positionSelect+` WHERE p.id = ?`, id)
	return scanPosition(row)
}

func (s *Store) GetPosition(ctx context.Context, accountID, instrumentID string) (broker.Position, error) {
	row := s.db.QueryRowContext(ctx,
		positionSelect+` WHERE p.account_id = ? AND p.instrument_id = ?`,
		accountID, instrumentID)
	return scanPosition(row)
}

func (s *Store) ListPositions(ctx context.Context, accountID string) ([]broker.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		positionSelect+` WHERE p.account_id = ? ORDER BY i.symbol`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	var positions []broker.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// UpdatePositionValuation persists only the unrealized figure and the
// revaluation timestamp; quantity, average price and realized P&L are
// settlement-owned and never touched here.
func (s *Store) UpdatePositionValuation(ctx context.Context, id string, unrealized string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE positions SET unrealized_pnl = ?, revalued_at = ?, updated_at = ?
		WHERE id = ?`, unrealized, at, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update valuation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update valuation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("position: %w", broker.ErrNotFound)
	}
	return nil
}

const positionSelect = `
	SELECT p.id, p.account_id, p.instrument_id, i.symbol, p.quantity,
	       p.average_price, p.realized_pnl, p.unrealized_pnl, p.revalued_at,
	       p.created_at, p.updated_at
	FROM positions p JOIN instruments i ON i.id = p.instrument_id`

func scanPosition(row rowScanner) (broker.Position, error) {
	var (
		p                  broker.Position
		qty, avg, rpl, upl string
		revaluedAt         sql.NullTime
	)
	err := row.Scan(&p.ID, &p.AccountID, &p.InstrumentID, &p.Symbol, &qty,
		&avg, &rpl, &upl, &revaluedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return broker.Position{}, fmt.Errorf("position: %w", broker.ErrNotFound)
	}
	if err != nil {
		return broker.Position{}, fmt.Errorf("scan position: %w", err)
	}

	if revaluedAt.Valid {
		p.RevaluedAt = revaluedAt.Time
	}
	if p.Quantity, err = parseDec(qty); err != nil {
		return broker.Position{}, fmt.Errorf("parse quantity: %w", err)
	}
	if p.AveragePrice, err = parseDec(avg); err != nil {
		return broker.Position{}, fmt.Errorf("parse average_price: %w", err)
	}
	if p.RealizedPnL, err = parseDec(rpl); err != nil {
		return broker.Position{}, fmt.Errorf("parse realized_pnl: %w", err)
	}
	if p.UnrealizedPnL, err = parseDec(upl); err != nil {
		return broker.Position{}, fmt.Errorf("parse unrealized_pnl: %w", err)
	}
	return p, nil
}
