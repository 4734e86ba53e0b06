package instrument

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/pricing/bitunix"
	"github.com/rustyeddy/brokerage/pricing/oanda"
	"github.com/rustyeddy/brokerage/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

const oandaCatalog = `{
	"instruments": [
		{"name": "EUR_USD", "type": "CURRENCY", "displayName": "EUR/USD",
		 "pipLocation": -4, "minimumTradeSize": "1", "maximumOrderUnits": "100000000"},
		{"name": "USD_JPY", "type": "CURRENCY", "displayName": "USD/JPY",
		 "pipLocation": -2, "minimumTradeSize": "1", "maximumOrderUnits": "100000000"}
	]
}`

const bitunixTickers = `{
	"code": 0,
	"data": [
		{"symbol": "BTCUSDT", "markPrice": "50000"},
		{"symbol": "ETHUSDT", "markPrice": "3000"},
		{"symbol": "WEIRD", "markPrice": "1"}
	],
	"msg": ""
}`

func newVenues(t *testing.T) (*oanda.Client, *bitunix.Client) {
	t.Helper()

	forexSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oandaCatalog))
	}))
	t.Cleanup(forexSrv.Close)

	cryptoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bitunixTickers))
	}))
	t.Cleanup(cryptoSrv.Close)

	forex := oanda.NewClient("test-token", "acct-1", true)
	forex.SetBaseURL(forexSrv.URL)
	crypto := bitunix.NewClient()
	crypto.SetBaseURL(cryptoSrv.URL)
	return forex, crypto
}

func TestSyncBothVenues(t *testing.T) {
	s := newStore(t)
	forex, crypto := newVenues(t)
	ctx := context.Background()

	counts, err := NewSyncer(s, forex, crypto, nil).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Forex)
	assert.Equal(t, 2, counts.Crypto, "unparseable venue symbols are skipped")
	assert.Equal(t, 4, counts.Total)

	reg := NewRegistry(s)

	eur, err := reg.Resolve(ctx, "EUR_USD")
	require.NoError(t, err)
	assert.Equal(t, broker.InstrumentForex, eur.Type)
	assert.Equal(t, "EUR", eur.BaseCurrency)
	assert.Equal(t, "USD", eur.QuoteCurrency)
	assert.Equal(t, "0.00001", eur.TickSize.String(), "pipLocation -4 means a tenth-pip tick")
	assert.True(t, eur.Active)

	jpy, err := reg.Resolve(ctx, "USD_JPY")
	require.NoError(t, err)
	assert.Equal(t, "0.001", jpy.TickSize.String())

	btc, err := reg.Resolve(ctx, "BTC_USDT")
	require.NoError(t, err)
	assert.Equal(t, broker.InstrumentCrypto, btc.Type)
	assert.Equal(t, "BTC", btc.BaseCurrency)
	assert.Equal(t, "USDT", btc.QuoteCurrency)
	assert.Equal(t, "0.001", btc.MinQuantity.String())
	assert.Equal(t, "0.1", btc.TickSize.String())
}

func TestSyncIdempotent(t *testing.T) {
	s := newStore(t)
	forex, crypto := newVenues(t)
	ctx := context.Background()

	syncer := NewSyncer(s, forex, crypto, nil)

	_, err := syncer.Sync(ctx)
	require.NoError(t, err)

	first, err := s.GetInstrumentBySymbol(ctx, "EUR_USD")
	require.NoError(t, err)

	// Second run updates in place: same row count, same ids.
	counts, err := syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total)

	all, err := s.ListInstruments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	again, err := s.GetInstrumentBySymbol(ctx, "EUR_USD")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "re-sync never changes an instrument id")
}

func TestSyncNilVenues(t *testing.T) {
	s := newStore(t)

	counts, err := NewSyncer(s, nil, nil, nil).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total)
}

func TestRegistryResolveByID(t *testing.T) {
	s := newStore(t)
	forex, crypto := newVenues(t)
	ctx := context.Background()

	_, err := NewSyncer(s, forex, crypto, nil).Sync(ctx)
	require.NoError(t, err)

	reg := NewRegistry(s)
	bySymbol, err := reg.Resolve(ctx, "EUR_USD")
	require.NoError(t, err)

	byID, err := reg.Resolve(ctx, bySymbol.ID)
	require.NoError(t, err)
	assert.Equal(t, bySymbol.Symbol, byID.Symbol)

	_, err = reg.Resolve(ctx, "NOPE")
	assert.ErrorIs(t, err, broker.ErrNotFound)
}

func TestRegistryTypeOf(t *testing.T) {
	s := newStore(t)
	forex, crypto := newVenues(t)
	ctx := context.Background()

	_, err := NewSyncer(s, forex, crypto, nil).Sync(ctx)
	require.NoError(t, err)

	typ, err := NewRegistry(s).TypeOf(ctx, "BTC_USDT")
	require.NoError(t, err)
	assert.Equal(t, broker.InstrumentCrypto, typ)
}

func TestSplitCryptoSymbol(t *testing.T) {
	tests := []struct {
		in    string
		base  string
		quote string
		ok    bool
	}{
		{"BTCUSDT", "BTC", "USDT", true},
		{"ETHUSDC", "ETH", "USDC", true},
		{"SOLUSD", "SOL", "USD", true},
		{"USDT", "", "", false},
		{"WEIRD", "", "", false},
	}

	for _, tt := range tests {
		base, quote, ok := splitCryptoSymbol(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.base, base, tt.in)
		assert.Equal(t, tt.quote, quote, tt.in)
	}
}
