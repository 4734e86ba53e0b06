// Package ledger applies atomic balance movements. It is a dumb store
// of truth: policy decisions (margin, rejection) belong to the engine.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
)

// Apply adds delta (signed) to the account balance inside tx and
// returns the resulting balance. The caller owns the transaction and
// the account lock.
func Apply(ctx context.Context, tx *sql.Tx, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, broker.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read balance: %w", err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance: %w", err)
	}

	balance = balance.Add(delta)

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), time.Now().UTC(), accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("write balance: %w", err)
	}

	return balance, nil
}
