package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/pkg/id"
	"github.com/rustyeddy/brokerage/pricing/bitunix"
	"github.com/rustyeddy/brokerage/pricing/oanda"
	"github.com/rustyeddy/brokerage/store"
	"github.com/shopspring/decimal"
)

// Syncer pulls the tradable catalogs from both venues and upserts them
// by symbol. Runs are idempotent: re-syncing never duplicates a symbol
// and never changes an existing instrument's id.
type Syncer struct {
	store  *store.Store
	forex  *oanda.Client
	crypto *bitunix.Client
	log    *slog.Logger
}

func NewSyncer(s *store.Store, forex *oanda.Client, crypto *bitunix.Client, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{store: s, forex: forex, crypto: crypto, log: log}
}

// Counts reports how many instruments each venue contributed.
type Counts struct {
	Forex  int
	Crypto int
	Total  int
}

func (s *Syncer) Sync(ctx context.Context) (Counts, error) {
	var counts Counts

	if s.forex != nil {
		n, err := s.syncForex(ctx)
		if err != nil {
			return counts, fmt.Errorf("sync forex instruments: %w", err)
		}
		counts.Forex = n
	}

	if s.crypto != nil {
		n, err := s.syncCrypto(ctx)
		if err != nil {
			return counts, fmt.Errorf("sync crypto instruments: %w", err)
		}
		counts.Crypto = n
	}

	counts.Total = counts.Forex + counts.Crypto
	s.log.Info("instrument sync complete",
		"forex", counts.Forex, "crypto", counts.Crypto)
	return counts, nil
}

func (s *Syncer) syncForex(ctx context.Context) (int, error) {
	venue, err := s.forex.GetInstruments(ctx, nil)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, vi := range venue {
		parts := strings.Split(vi.Name, "_")
		if len(parts) != 2 {
			continue
		}

		minQty := decimal.RequireFromString("0.01")
		if vi.MinimumTradeSize != "" {
			if d, err := decimal.NewFromString(vi.MinimumTradeSize); err == nil {
				minQty = d
			}
		}
		maxQty := decimal.NewFromInt(1_000_000)
		if vi.MaximumOrderUnits != "" {
			if d, err := decimal.NewFromString(vi.MaximumOrderUnits); err == nil {
				maxQty = d
			}
		}

		// Venue tick is a tenth of a pip.
		tick := decimal.RequireFromString("0.00001")
		if vi.PipLocation < 0 {
			tick = decimal.New(1, int32(vi.PipLocation-1))
		}

		name := vi.DisplayName
		if name == "" {
			name = parts[0] + "/" + parts[1]
		}

		err := s.store.UpsertInstrument(ctx, broker.Instrument{
			ID:            id.New(),
			Symbol:        vi.Name,
			Name:          name,
			Type:          broker.InstrumentForex,
			BaseCurrency:  parts[0],
			QuoteCurrency: parts[1],
			MinQuantity:   minQty,
			MaxQuantity:   maxQty,
			TickSize:      tick,
			Active:        true,
		})
		if err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

func (s *Syncer) syncCrypto(ctx context.Context) (int, error) {
	symbols, err := s.crypto.GetSymbols(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, venueSym := range symbols {
		base, quote, ok := splitCryptoSymbol(venueSym)
		if !ok {
			s.log.Warn("skipping unparseable crypto symbol", "symbol", venueSym)
			continue
		}

		err := s.store.UpsertInstrument(ctx, broker.Instrument{
			ID:            id.New(),
			Symbol:        base + "_" + quote,
			Name:          base + "/" + quote + " Perpetual",
			Type:          broker.InstrumentCrypto,
			BaseCurrency:  base,
			QuoteCurrency: quote,
			MinQuantity:   cryptoMinQuantity(base),
			MaxQuantity:   decimal.NewFromInt(1_000_000),
			TickSize:      cryptoTickSize(base),
			Active:        true,
		})
		if err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

var quoteCurrencies = []string{"USDT", "USDC", "USD"}

// splitCryptoSymbol parses venue form (BTCUSDT) into base and quote.
func splitCryptoSymbol(symbol string) (base, quote string, ok bool) {
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return strings.TrimSuffix(symbol, q), q, true
		}
	}
	return "", "", false
}

func cryptoMinQuantity(base string) decimal.Decimal {
	switch base {
	case "BTC":
		return decimal.RequireFromString("0.001")
	case "ETH":
		return decimal.RequireFromString("0.01")
	default:
		return decimal.RequireFromString("0.01")
	}
}

func cryptoTickSize(base string) decimal.Decimal {
	switch base {
	case "BTC":
		return decimal.RequireFromString("0.1")
	case "ETH":
		return decimal.RequireFromString("0.01")
	default:
		return decimal.RequireFromString("0.0001")
	}
}
