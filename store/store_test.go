package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedAccount(t *testing.T, s *Store, id, balance string) broker.Account {
	t.Helper()
	a := broker.Account{
		ID:       id,
		Name:     "Test Account",
		Type:     broker.AccountPractice,
		Currency: "USD",
		Balance:  dec(balance),
	}
	require.NoError(t, s.CreateAccount(context.Background(), a))
	return a
}

func seedInstrument(t *testing.T, s *Store, id, symbol string) broker.Instrument {
	t.Helper()
	in := broker.Instrument{
		ID:            id,
		Symbol:        symbol,
		Name:          symbol,
		Type:          broker.InstrumentForex,
		BaseCurrency:  "EUR",
		QuoteCurrency: "USD",
		MinQuantity:   dec("1"),
		MaxQuantity:   dec("1000000"),
		TickSize:      dec("0.0001"),
		Active:        true,
	}
	require.NoError(t, s.UpsertInstrument(context.Background(), in))
	return in
}

func seedOrder(t *testing.T, s *Store, id, accountID, instrumentID string) broker.Order {
	t.Helper()
	o := broker.Order{
		ID:           id,
		AccountID:    accountID,
		InstrumentID: instrumentID,
		Type:         broker.OrderMarket,
		Side:         broker.Buy,
		Quantity:     dec("1000"),
		Status:       broker.OrderPending,
		FilledQty:    decimal.Zero,
		AvgFillPrice: decimal.Zero,
		Commission:   decimal.Zero,
	}
	require.NoError(t, s.CreateOrder(context.Background(), o))
	return o
}

func TestAccountRoundTrip(t *testing.T) {
	s := newStore(t)
	seedAccount(t, s, "acct-1", "10000.50")

	got, err := s.GetAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Test Account", got.Name)
	assert.Equal(t, broker.AccountPractice, got.Type)
	assert.True(t, got.Balance.Equal(dec("10000.50")))
}

func TestGetAccountNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.GetAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, broker.ErrNotFound)
}

func TestUpsertInstrumentKeepsID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := seedInstrument(t, s, "inst-1", "EUR_USD")

	// Re-upserting the same symbol with a new candidate id must keep
	// the original id and update the rest in place.
	again := first
	again.ID = "inst-other"
	again.Name = "Euro / US Dollar"
	require.NoError(t, s.UpsertInstrument(ctx, again))

	got, err := s.GetInstrumentBySymbol(ctx, "EUR_USD")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", got.ID)
	assert.Equal(t, "Euro / US Dollar", got.Name)

	all, err := s.ListInstruments(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListInstrumentsActiveOnly(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	seedInstrument(t, s, "inst-1", "EUR_USD")
	inactive := seedInstrument(t, s, "inst-2", "USD_JPY")
	inactive.Active = false
	require.NoError(t, s.UpsertInstrument(ctx, inactive))

	active, err := s.ListInstruments(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "EUR_USD", active[0].Symbol)
}

func TestOrderRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "10000")
	seedInstrument(t, s, "inst-1", "EUR_USD")

	price := dec("1.1000")
	o := broker.Order{
		ID:           "ord-1",
		AccountID:    "acct-1",
		InstrumentID: "inst-1",
		Type:         broker.OrderLimit,
		Side:         broker.Sell,
		Quantity:     dec("500"),
		Price:        &price,
		Status:       broker.OrderPending,
		FilledQty:    decimal.Zero,
		AvgFillPrice: decimal.Zero,
		Commission:   decimal.Zero,
	}
	require.NoError(t, s.CreateOrder(ctx, o))

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "EUR_USD", got.Symbol, "symbol joined from instruments")
	assert.Equal(t, broker.OrderLimit, got.Type)
	require.NotNil(t, got.Price)
	assert.True(t, got.Price.Equal(dec("1.1000")))
	assert.Nil(t, got.StopPrice)
}

func TestTransitionOrderCAS(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "10000")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	seedOrder(t, s, "ord-1", "acct-1", "inst-1")

	// First transition wins.
	err := s.TransitionOrder(ctx, "ord-1", broker.OrderPending, broker.OrderCancelled, "cancelled by client")
	require.NoError(t, err)

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, broker.OrderCancelled, got.Status)
	assert.Equal(t, "cancelled by client", got.Reason)

	// Second writer expecting pending loses.
	err = s.TransitionOrder(ctx, "ord-1", broker.OrderPending, broker.OrderRejected, "late")
	assert.ErrorIs(t, err, broker.ErrInvalidStateTransition)

	// Status unchanged by the losing writer.
	got, err = s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, broker.OrderCancelled, got.Status)
}

func TestTransitionOrderNotFound(t *testing.T) {
	s := newStore(t)

	err := s.TransitionOrder(context.Background(), "missing",
		broker.OrderPending, broker.OrderCancelled, "")
	assert.ErrorIs(t, err, broker.ErrNotFound)
}

func TestMarkOrderAttempt(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "10000")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	seedOrder(t, s, "ord-1", "acct-1", "inst-1")

	require.NoError(t, s.MarkOrderAttempt(ctx, "ord-1"))
	require.NoError(t, s.MarkOrderAttempt(ctx, "ord-1"))

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
}

func settlementFor(o broker.Order, accountID, instrumentID string) Settlement {
	fillPrice := dec("1.10")
	o.Status = broker.OrderFilled
	o.FilledQty = o.Quantity
	o.AvgFillPrice = fillPrice
	o.Commission = dec("1.10")

	return Settlement{
		Trade: broker.Trade{
			ID:           "trade-1",
			OrderID:      o.ID,
			AccountID:    accountID,
			InstrumentID: instrumentID,
			Side:         broker.Buy,
			Quantity:     o.Quantity,
			Price:        fillPrice,
			Commission:   o.Commission,
			RealizedPnL:  decimal.Zero,
			ExecutedAt:   time.Now().UTC(),
		},
		Position: broker.Position{
			ID:           "pos-1",
			AccountID:    accountID,
			InstrumentID: instrumentID,
			Quantity:     o.Quantity,
			AveragePrice: fillPrice,
			RealizedPnL:  decimal.Zero,
		},
		Order: o,
		// 1000 * 1.10 + 1.10 commission
		BalanceDelta: dec("-1101.10"),
	}
}

func TestSettleCommit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "10000")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	o := seedOrder(t, s, "ord-1", "acct-1", "inst-1")

	require.NoError(t, s.Settle(ctx, settlementFor(o, "acct-1", "inst-1")))

	acct, err := s.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("8898.90")), "balance %s", acct.Balance)

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, broker.OrderFilled, got.Status)
	assert.True(t, got.AvgFillPrice.Equal(dec("1.10")))

	pos, err := s.GetPosition(ctx, "acct-1", "inst-1")
	require.NoError(t, err)
	assert.True(t, pos.Quantity.Equal(dec("1000")))

	trades, err := s.ListTrades(ctx, TradeFilter{AccountID: "acct-1"})
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestSettleLosesToCancel(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "10000")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	o := seedOrder(t, s, "ord-1", "acct-1", "inst-1")

	require.NoError(t, s.TransitionOrder(ctx, "ord-1",
		broker.OrderPending, broker.OrderCancelled, "cancelled by client"))

	err := s.Settle(ctx, settlementFor(o, "acct-1", "inst-1"))
	assert.ErrorIs(t, err, broker.ErrInvalidStateTransition)

	// Nothing was applied.
	acct, err := s.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("10000")))

	trades, err := s.ListTrades(ctx, TradeFilter{AccountID: "acct-1"})
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, err = s.GetPosition(ctx, "acct-1", "inst-1")
	assert.ErrorIs(t, err, broker.ErrNotFound)
}

func TestSettleInsufficientFundsRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "100")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	o := seedOrder(t, s, "ord-1", "acct-1", "inst-1")

	err := s.Settle(ctx, settlementFor(o, "acct-1", "inst-1"))
	assert.ErrorIs(t, err, broker.ErrInsufficientFunds)

	// Everything rolled back, including the order transition.
	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, broker.OrderPending, got.Status)

	acct, err := s.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("100")))

	trades, err := s.ListTrades(ctx, TradeFilter{AccountID: "acct-1"})
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestSettleAllowNegative(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "100")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	o := seedOrder(t, s, "ord-1", "acct-1", "inst-1")

	p := settlementFor(o, "acct-1", "inst-1")
	p.AllowNegative = true
	require.NoError(t, s.Settle(ctx, p))

	acct, err := s.GetAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("-1001.10")), "balance %s", acct.Balance)
}

func TestUpdatePositionValuation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedAccount(t, s, "acct-1", "10000")
	seedInstrument(t, s, "inst-1", "EUR_USD")
	o := seedOrder(t, s, "ord-1", "acct-1", "inst-1")
	require.NoError(t, s.Settle(ctx, settlementFor(o, "acct-1", "inst-1")))

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdatePositionValuation(ctx, "pos-1", "30", at))

	pos, err := s.GetPositionByID(ctx, "pos-1")
	require.NoError(t, err)
	assert.True(t, pos.UnrealizedPnL.Equal(dec("30")))
	assert.True(t, pos.RevaluedAt.Equal(at))
	// Settlement-owned fields untouched.
	assert.True(t, pos.Quantity.Equal(dec("1000")))
	assert.True(t, pos.AveragePrice.Equal(dec("1.10")))
}

func TestUpdatePositionValuationNotFound(t *testing.T) {
	s := newStore(t)

	err := s.UpdatePositionValuation(context.Background(), "missing", "0", time.Now())
	assert.ErrorIs(t, err, broker.ErrNotFound)
}

func TestCandleCache(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := []Candle{
		{Symbol: "EUR_USD", Interval: "1h", Source: "oanda", Time: base, Open: 1.10, High: 1.11, Low: 1.09, Close: 1.105, Volume: 100},
		{Symbol: "EUR_USD", Interval: "1h", Source: "oanda", Time: base.Add(time.Hour), Open: 1.105, High: 1.12, Low: 1.10, Close: 1.115, Volume: 120},
	}

	stored, err := s.StoreCandles(ctx, candles)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	// Re-storing the same bars is a no-op.
	stored, err = s.StoreCandles(ctx, candles)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)

	got, err := s.GetCandles(ctx, "EUR_USD", "1h", "oanda", base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.10, got[0].Open)

	// Range end is exclusive.
	got, err = s.GetCandles(ctx, "EUR_USD", "1h", "oanda", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
