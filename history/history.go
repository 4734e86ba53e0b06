// Package history serves OHLCV candles, reading through a local cache
// and fetching gaps from the owning venue in chunks the venue accepts.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/instrument"
	"github.com/rustyeddy/brokerage/pricing/bitunix"
	"github.com/rustyeddy/brokerage/pricing/oanda"
	"github.com/rustyeddy/brokerage/store"
)

const (
	sourceOanda   = "oanda"
	sourceBitunix = "bitunix"
)

// intervalDurations maps the canonical interval notation to bar width.
var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// forexGranularities maps canonical intervals to the forex venue's
// granularity names. The crypto venue uses the canonical notation
// directly.
var forexGranularities = map[string]oanda.Granularity{
	"1m":  oanda.M1,
	"5m":  oanda.M5,
	"15m": oanda.M15,
	"30m": oanda.M30,
	"1h":  oanda.H1,
	"4h":  oanda.H4,
	"1d":  oanda.D,
}

type Service struct {
	store    *store.Store
	registry *instrument.Registry
	forex    *oanda.Client
	crypto   *bitunix.Client
	log      *slog.Logger
}

func New(s *store.Store, reg *instrument.Registry, forex *oanda.Client, crypto *bitunix.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, registry: reg, forex: forex, crypto: crypto, log: log}
}

// GetCandles returns bars for [start, end) at the given interval.
// Cached bars are served as-is; only the range past the newest cached
// bar is fetched from the venue, stored, and merged in.
func (s *Service) GetCandles(ctx context.Context, symbol, interval string, start, end time.Time) ([]store.Candle, error) {
	width, ok := intervalDurations[interval]
	if !ok {
		return nil, &broker.ValidationError{Field: "interval", Reason: "unknown interval " + interval}
	}
	if !start.Before(end) {
		return nil, &broker.ValidationError{Field: "start", Reason: "must be before end"}
	}

	in, err := s.registry.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	source := sourceBitunix
	if in.Type == broker.InstrumentForex {
		source = sourceOanda
	}

	start = start.UTC().Truncate(width)
	end = end.UTC()

	cached, err := s.store.GetCandles(ctx, in.Symbol, interval, source, start, end)
	if err != nil {
		return nil, err
	}

	fetchStart := start
	if len(cached) > 0 {
		fetchStart = cached[len(cached)-1].Time.Add(width)
	}
	if !fetchStart.Before(end) {
		return cached, nil
	}

	var fetched []store.Candle
	if source == sourceOanda {
		fetched, err = s.fetchForex(ctx, in.Symbol, interval, width, fetchStart, end)
	} else {
		fetched, err = s.fetchCrypto(ctx, in.Symbol, interval, width, fetchStart, end)
	}
	if err != nil {
		return nil, err
	}

	if len(fetched) > 0 {
		stored, err := s.store.StoreCandles(ctx, fetched)
		if err != nil {
			return nil, err
		}
		s.log.Debug("cached candles", "symbol", in.Symbol, "interval", interval, "stored", stored)
	}

	return s.store.GetCandles(ctx, in.Symbol, interval, source, start, end)
}

// fetchForex pulls the range from the forex venue in chunks no wider
// than the venue's per-request candle ceiling.
func (s *Service) fetchForex(ctx context.Context, symbol, interval string, width time.Duration, start, end time.Time) ([]store.Candle, error) {
	if s.forex == nil {
		return nil, fmt.Errorf("forex venue not configured: %w", broker.ErrQuoteUnavailable)
	}

	gran := forexGranularities[interval]
	chunk := width * oanda.MaxCandles

	var out []store.Candle
	for cur := start; cur.Before(end); cur = cur.Add(chunk) {
		chunkEnd := cur.Add(chunk)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		from, to := cur, chunkEnd

		candles, err := s.forex.GetCandles(ctx, oanda.CandlesRequest{
			Instrument:  symbol,
			Granularity: gran,
			From:        &from,
			To:          &to,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s candles: %w", symbol, err)
		}
		for _, c := range candles {
			out = append(out, store.Candle{
				Symbol:   symbol,
				Interval: interval,
				Source:   sourceOanda,
				Time:     c.Time,
				Open:     c.Open,
				High:     c.High,
				Low:      c.Low,
				Close:    c.Close,
				Volume:   c.Volume,
			})
		}
	}
	return out, nil
}

// fetchCrypto pulls the range from the crypto venue, whose kline limit
// is much tighter, so long ranges take many requests. The client's
// rate limiter paces them.
func (s *Service) fetchCrypto(ctx context.Context, symbol, interval string, width time.Duration, start, end time.Time) ([]store.Candle, error) {
	if s.crypto == nil {
		return nil, fmt.Errorf("crypto venue not configured: %w", broker.ErrQuoteUnavailable)
	}

	chunk := width * bitunix.MaxKlines

	var out []store.Candle
	for cur := start; cur.Before(end); cur = cur.Add(chunk) {
		chunkEnd := cur.Add(chunk)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		from, to := cur, chunkEnd

		klines, err := s.crypto.GetKlines(ctx, bitunix.KlinesRequest{
			Symbol:   symbol,
			Interval: interval,
			Limit:    bitunix.MaxKlines,
			Start:    &from,
			End:      &to,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch %s klines: %w", symbol, err)
		}
		for _, k := range klines {
			out = append(out, store.Candle{
				Symbol:   symbol,
				Interval: interval,
				Source:   sourceBitunix,
				Time:     k.Time,
				Open:     k.Open,
				High:     k.High,
				Low:      k.Low,
				Close:    k.Close,
				Volume:   k.Volume,
			})
		}
	}
	return out, nil
}

// Intervals lists the supported canonical interval names.
func Intervals() []string {
	return []string{"1m", "5m", "15m", "30m", "1h", "4h", "1d"}
}
