package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/brokerage/broker"
)

// UpsertInstrument inserts the instrument or refreshes an existing row
// with the same symbol. Symbols are never duplicated, which keeps the
// catalog sync idempotent.
func (s *Store) UpsertInstrument(ctx context.Context, in broker.Instrument) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instruments
		(id, symbol, name, instrument_type, base_currency, quote_currency,
		 min_quantity, max_quantity, tick_size, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			instrument_type = excluded.instrument_type,
			base_currency = excluded.base_currency,
			quote_currency = excluded.quote_currency,
			min_quantity = excluded.min_quantity,
			max_quantity = excluded.max_quantity,
			tick_size = excluded.tick_size,
			is_active = excluded.is_active`,
		in.ID, in.Symbol, in.Name, string(in.Type), in.BaseCurrency, in.QuoteCurrency,
		in.MinQuantity.String(), in.MaxQuantity.String(), in.TickSize.String(),
		in.Active, in.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert instrument %s: %w", in.Symbol, err)
	}
	return nil
}

func (s *Store) GetInstrumentBySymbol(ctx context.Context, symbol string) (broker.Instrument, error) {
	row := s.db.QueryRowContext(ctx, instrumentSelect+` WHERE symbol = ?`, symbol)
	return scanInstrument(row)
}

func (s *Store) GetInstrumentByID(ctx context.Context, id string) (broker.Instrument, error) {
	row := s.db.QueryRowContext(ctx, instrumentSelect+` WHERE id = ?`, id)
	return scanInstrument(row)
}

func (s *Store) ListInstruments(ctx context.Context, activeOnly bool) ([]broker.Instrument, error) {
	q := instrumentSelect
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY symbol`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []broker.Instrument
	for rows.Next() {
		in, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, in)
	}
	return instruments, rows.Err()
}

const instrumentSelect = `
	SELECT id, symbol, name, instrument_type, base_currency, quote_currency,
	       min_quantity, max_quantity, tick_size, is_active, created_at
	FROM instruments`

func scanInstrument(row rowScanner) (broker.Instrument, error) {
	var (
		in             broker.Instrument
		typ            string
		minQ, maxQ, tk string
	)
	err := row.Scan(&in.ID, &in.Symbol, &in.Name, &typ, &in.BaseCurrency, &in.QuoteCurrency,
		&minQ, &maxQ, &tk, &in.Active, &in.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return broker.Instrument{}, fmt.Errorf("instrument: %w", broker.ErrNotFound)
	}
	if err != nil {
		return broker.Instrument{}, fmt.Errorf("scan instrument: %w", err)
	}

	in.Type = broker.InstrumentType(typ)
	if in.MinQuantity, err = parseDec(minQ); err != nil {
		return broker.Instrument{}, fmt.Errorf("parse min_quantity: %w", err)
	}
	if in.MaxQuantity, err = parseDec(maxQ); err != nil {
		return broker.Instrument{}, fmt.Errorf("parse max_quantity: %w", err)
	}
	if in.TickSize, err = parseDec(tk); err != nil {
		return broker.Instrument{}, fmt.Errorf("parse tick_size: %w", err)
	}
	return in, nil
}
