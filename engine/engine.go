// Package engine is the order state machine: it validates submissions,
// orchestrates quote lookup, computes fills and commits settlement.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/rustyeddy/brokerage/instrument"
	"github.com/rustyeddy/brokerage/pkg/id"
	"github.com/rustyeddy/brokerage/pkg/keymutex"
	"github.com/rustyeddy/brokerage/position"
	"github.com/rustyeddy/brokerage/pricing"
	"github.com/rustyeddy/brokerage/store"
	"github.com/shopspring/decimal"
)

// Options carry the engine's policy knobs.
type Options struct {
	// AllowNegativeBalance permits fills that take the balance below
	// zero (margin-style). Off by default: such fills reject with
	// ErrInsufficientFunds.
	AllowNegativeBalance bool

	// QuoteRetryLimit is how many failed quote fetches a pending order
	// survives before it is rejected.
	QuoteRetryLimit int
}

type Engine struct {
	store    *store.Store
	registry *instrument.Registry
	prices   pricing.Provider
	policy   CommissionPolicy
	locks    *keymutex.Map
	opts     Options
	log      *slog.Logger
}

func New(s *store.Store, reg *instrument.Registry, prices pricing.Provider,
	policy CommissionPolicy, locks *keymutex.Map, opts Options, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if opts.QuoteRetryLimit <= 0 {
		opts.QuoteRetryLimit = 3
	}
	return &Engine{
		store:    s,
		registry: reg,
		prices:   prices,
		policy:   policy,
		locks:    locks,
		opts:     opts,
		log:      log,
	}
}

func accountKey(accountID string) string {
	return "acct/" + accountID
}

func positionKey(accountID, symbol string) string {
	return "pos/" + accountID + "/" + symbol
}

// OrderRequest is the plain-data submission the routing layer hands in.
type OrderRequest struct {
	AccountID string
	Symbol    string
	Type      broker.OrderType
	Side      broker.Side
	Quantity  decimal.Decimal
	Price     *decimal.Decimal // limit price
	StopPrice *decimal.Decimal
}

// SubmitOrder statically validates the request, persists the order as
// pending and immediately attempts execution. Limit and stop orders
// that do not trigger yet stay pending for the evaluation passes.
func (e *Engine) SubmitOrder(ctx context.Context, req OrderRequest) (broker.Order, error) {
	if _, err := e.store.GetAccount(ctx, req.AccountID); err != nil {
		return broker.Order{}, err
	}

	in, err := e.registry.Resolve(ctx, req.Symbol)
	if err != nil {
		return broker.Order{}, err
	}

	if err := validateRequest(req, in); err != nil {
		return broker.Order{}, err
	}

	o := broker.Order{
		ID:           id.New(),
		AccountID:    req.AccountID,
		InstrumentID: in.ID,
		Symbol:       in.Symbol,
		Type:         req.Type,
		Side:         req.Side,
		Quantity:     req.Quantity,
		Price:        req.Price,
		StopPrice:    req.StopPrice,
		Status:       broker.OrderPending,
		FilledQty:    decimal.Zero,
		AvgFillPrice: decimal.Zero,
		Commission:   decimal.Zero,
	}
	if err := e.store.CreateOrder(ctx, o); err != nil {
		return broker.Order{}, err
	}

	e.log.Info("order submitted",
		"order", o.ID, "account", o.AccountID, "symbol", o.Symbol,
		"type", o.Type, "side", o.Side, "qty", o.Quantity)

	return e.Execute(ctx, o.ID)
}

// CancelOrder transitions a pending order to cancelled. Terminal
// orders fail with ErrInvalidStateTransition; cancellation of an
// in-flight execution is best-effort and loses to a committed fill.
func (e *Engine) CancelOrder(ctx context.Context, orderID string) (broker.Order, error) {
	err := e.store.TransitionOrder(ctx, orderID,
		broker.OrderPending, broker.OrderCancelled, "cancelled by client")
	if err != nil {
		return broker.Order{}, err
	}

	e.log.Info("order cancelled", "order", orderID)
	return e.store.GetOrder(ctx, orderID)
}

func (e *Engine) GetOrder(ctx context.Context, orderID string) (broker.Order, error) {
	return e.store.GetOrder(ctx, orderID)
}

func (e *Engine) ListOrders(ctx context.Context, f store.OrderFilter) ([]broker.Order, error) {
	return e.store.ListOrders(ctx, f)
}

func (e *Engine) GetAccount(ctx context.Context, accountID string) (broker.Account, error) {
	return e.store.GetAccount(ctx, accountID)
}

// CreateAccount registers a new trading account.
func (e *Engine) CreateAccount(ctx context.Context, name string, typ broker.AccountType, currency string, balance decimal.Decimal) (broker.Account, error) {
	if name == "" {
		return broker.Account{}, &broker.ValidationError{Field: "name", Reason: "required"}
	}
	if currency == "" {
		return broker.Account{}, &broker.ValidationError{Field: "currency", Reason: "required"}
	}
	if balance.Sign() < 0 {
		return broker.Account{}, &broker.ValidationError{Field: "balance", Reason: "must not be negative"}
	}
	if typ == "" {
		typ = broker.AccountPractice
	}

	a := broker.Account{
		ID:       id.New(),
		Name:     name,
		Type:     typ,
		Currency: currency,
		Balance:  balance,
	}
	if err := e.store.CreateAccount(ctx, a); err != nil {
		return broker.Account{}, err
	}
	return a, nil
}

func (e *Engine) ListPositions(ctx context.Context, accountID string) ([]broker.Position, error) {
	return e.store.ListPositions(ctx, accountID)
}

func (e *Engine) ListTrades(ctx context.Context, f store.TradeFilter) ([]broker.Trade, error) {
	return e.store.ListTrades(ctx, f)
}

// Execute attempts to fill one pending order: fetch a quote, check the
// trigger, commit settlement. Quotes are fetched before any lock is
// taken (fetch-then-commit).
func (e *Engine) Execute(ctx context.Context, orderID string) (broker.Order, error) {
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return broker.Order{}, err
	}
	if o.Status != broker.OrderPending {
		return o, broker.ErrInvalidStateTransition
	}

	q, err := e.prices.GetQuote(ctx, o.Symbol)
	if err != nil {
		if errors.Is(err, broker.ErrQuoteUnavailable) {
			return e.quoteFailed(ctx, o, err)
		}
		return o, err
	}

	return e.executeWithQuote(ctx, o, q)
}

// quoteFailed records a failed fetch; the order stays pending and
// retries on a later pass until the retry budget runs out.
func (e *Engine) quoteFailed(ctx context.Context, o broker.Order, cause error) (broker.Order, error) {
	if err := e.store.MarkOrderAttempt(ctx, o.ID); err != nil {
		return o, err
	}

	attempts := o.Attempts + 1
	if attempts >= e.opts.QuoteRetryLimit {
		reason := fmt.Sprintf("quote unavailable after %d attempts", attempts)
		if err := e.store.TransitionOrder(ctx, o.ID,
			broker.OrderPending, broker.OrderRejected, reason); err != nil {
			return o, err
		}
		e.log.Warn("order rejected", "order", o.ID, "reason", reason)
		return e.store.GetOrder(ctx, o.ID)
	}

	e.log.Warn("quote fetch failed, order stays pending",
		"order", o.ID, "symbol", o.Symbol, "attempt", attempts, "err", cause)
	return e.store.GetOrder(ctx, o.ID)
}

func (e *Engine) executeWithQuote(ctx context.Context, o broker.Order, q pricing.Quote) (broker.Order, error) {
	fillPrice, triggered := evalTrigger(o, q)
	if !triggered {
		return o, nil
	}

	commission := e.policy.Commission(o.Quantity, fillPrice)
	notional := o.Quantity.Mul(fillPrice)

	// Cash flow: buys pay notional plus commission, sells receive
	// notional minus commission.
	delta := notional.Mul(o.Side.Sign().Neg()).Sub(commission)

	e.locks.Lock(accountKey(o.AccountID))
	defer e.locks.Unlock(accountKey(o.AccountID))
	e.locks.Lock(positionKey(o.AccountID, o.Symbol))
	defer e.locks.Unlock(positionKey(o.AccountID, o.Symbol))

	acct, err := e.store.GetAccount(ctx, o.AccountID)
	if err != nil {
		return o, err
	}
	if acct.Balance.Add(delta).Sign() < 0 && !e.opts.AllowNegativeBalance {
		reason := "insufficient funds"
		if err := e.store.TransitionOrder(ctx, o.ID,
			broker.OrderPending, broker.OrderRejected, reason); err != nil {
			return o, err
		}
		e.log.Warn("order rejected", "order", o.ID, "reason", reason)
		o, getErr := e.store.GetOrder(ctx, o.ID)
		if getErr != nil {
			return o, getErr
		}
		return o, broker.ErrInsufficientFunds
	}

	pos, err := e.store.GetPosition(ctx, o.AccountID, o.InstrumentID)
	if errors.Is(err, broker.ErrNotFound) {
		pos = broker.Position{
			ID:           id.New(),
			AccountID:    o.AccountID,
			InstrumentID: o.InstrumentID,
			Symbol:       o.Symbol,
		}
	} else if err != nil {
		return o, err
	}

	signedQty := o.Quantity.Mul(o.Side.Sign())
	newPos, realized := position.ApplyFill(pos, signedQty, fillPrice)

	trade := broker.Trade{
		ID:           id.New(),
		OrderID:      o.ID,
		AccountID:    o.AccountID,
		InstrumentID: o.InstrumentID,
		Symbol:       o.Symbol,
		Side:         o.Side,
		Quantity:     o.Quantity,
		Price:        fillPrice,
		Commission:   commission,
		RealizedPnL:  realized,
		ExecutedAt:   time.Now().UTC(),
	}

	o.Status = broker.OrderFilled
	o.FilledQty = o.Quantity
	o.AvgFillPrice = fillPrice
	o.Commission = commission

	err = e.store.Settle(ctx, store.Settlement{
		Trade:         trade,
		Position:      newPos,
		Order:         o,
		BalanceDelta:  delta,
		AllowNegative: e.opts.AllowNegativeBalance,
	})
	if errors.Is(err, broker.ErrInvalidStateTransition) {
		// A concurrent cancellation won; nothing was applied.
		cur, getErr := e.store.GetOrder(ctx, o.ID)
		if getErr != nil {
			return o, getErr
		}
		return cur, err
	}
	if errors.Is(err, broker.ErrInsufficientFunds) {
		if terr := e.store.TransitionOrder(ctx, o.ID,
			broker.OrderPending, broker.OrderRejected, "insufficient funds"); terr != nil {
			return o, terr
		}
		cur, getErr := e.store.GetOrder(ctx, o.ID)
		if getErr != nil {
			return o, getErr
		}
		return cur, err
	}
	if err != nil {
		return o, err
	}

	e.log.Info("order filled",
		"order", o.ID, "symbol", o.Symbol, "side", o.Side,
		"qty", o.Quantity, "price", fillPrice, "commission", commission,
		"realized_pnl", realized)

	return e.store.GetOrder(ctx, o.ID)
}
