package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateAccount(ctx context.Context, a broker.Account) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts
		(id, name, account_type, currency, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.Currency, a.Balance.String(),
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (broker.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, account_type, currency, balance, created_at, updated_at
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context) ([]broker.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_type, currency, balance, created_at, updated_at
		FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []broker.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (broker.Account, error) {
	var (
		a       broker.Account
		typ     string
		balance string
	)
	err := row.Scan(&a.ID, &a.Name, &typ, &a.Currency, &balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return broker.Account{}, fmt.Errorf("account: %w", broker.ErrNotFound)
	}
	if err != nil {
		return broker.Account{}, fmt.Errorf("scan account: %w", err)
	}

	a.Type = broker.AccountType(typ)
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return broker.Account{}, fmt.Errorf("parse balance: %w", err)
	}
	return a, nil
}
