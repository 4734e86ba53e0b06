package broker

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSideSign(t *testing.T) {
	assert.True(t, Buy.Sign().Equal(dec("1")))
	assert.True(t, Sell.Sign().Equal(dec("-1")))
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderPending.Terminal())
	assert.False(t, OrderPartiallyFilled.Terminal(), "a partial fill may still complete")
	assert.True(t, OrderFilled.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.True(t, OrderRejected.Terminal())
}

func TestInstrumentAlignsToTick(t *testing.T) {
	in := Instrument{TickSize: dec("0.0001")}

	assert.True(t, in.AlignsToTick(dec("1.1000")))
	assert.True(t, in.AlignsToTick(dec("1.1234")))
	assert.False(t, in.AlignsToTick(dec("1.10005")))

	// Zero tick means any price is acceptable.
	free := Instrument{}
	assert.True(t, free.AlignsToTick(dec("1.123456789")))
}

func TestInstrumentQuantityInBounds(t *testing.T) {
	in := Instrument{MinQuantity: dec("0.01"), MaxQuantity: dec("100")}

	assert.True(t, in.QuantityInBounds(dec("0.01")))
	assert.True(t, in.QuantityInBounds(dec("100")))
	assert.False(t, in.QuantityInBounds(dec("0.001")))
	assert.False(t, in.QuantityInBounds(dec("100.5")))

	// Zero max means unbounded above.
	open := Instrument{MinQuantity: dec("1")}
	assert.True(t, open.QuantityInBounds(dec("1000000000")))
}

func TestPositionDirection(t *testing.T) {
	assert.True(t, Position{Quantity: dec("10")}.Long())
	assert.True(t, Position{Quantity: dec("-10")}.Short())
	assert.True(t, Position{}.Flat())
}

func TestTradeHelpers(t *testing.T) {
	buy := Trade{Side: Buy, Quantity: dec("100"), Price: dec("1.10")}
	assert.True(t, buy.SignedQuantity().Equal(dec("100")))
	assert.True(t, buy.Notional().Equal(dec("110")))

	sell := Trade{Side: Sell, Quantity: dec("100"), Price: dec("1.10")}
	assert.True(t, sell.SignedQuantity().Equal(dec("-100")))
	assert.True(t, sell.Notional().Equal(dec("110")))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "quantity", Reason: "must be positive"}
	assert.Equal(t, "validation: quantity: must be positive", err.Error())

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
