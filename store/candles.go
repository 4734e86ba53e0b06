package store

import (
	"context"
	"fmt"
	"time"
)

// Candle is one cached OHLCV bar.
type Candle struct {
	Symbol   string
	Interval string
	Source   string
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// StoreCandles inserts bars, skipping timestamps already cached.
// Returns the number of newly stored bars.
func (s *Store) StoreCandles(ctx context.Context, candles []Candle) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin candle store: %w", err)
	}
	defer tx.Rollback()

	stored := 0
	for _, c := range candles {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO candles
			(symbol, interval, source, ts, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Symbol, c.Interval, c.Source, c.Time.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return 0, fmt.Errorf("insert candle: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert candle: %w", err)
		}
		stored += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit candle store: %w", err)
	}
	return stored, nil
}

// GetCandles reads cached bars for [start, end) in ascending order.
func (s *Store) GetCandles(ctx context.Context, symbol, interval, source string, start, end time.Time) ([]Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, interval, source, ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND interval = ? AND source = ? AND ts >= ? AND ts < ?
		ORDER BY ts`,
		symbol, interval, source, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var c Candle
		if err := rows.Scan(&c.Symbol, &c.Interval, &c.Source, &c.Time,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}
