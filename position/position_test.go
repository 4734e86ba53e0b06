package position

import (
	"math/rand"
	"testing"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyFill_OpenLong(t *testing.T) {
	pos, realized := ApplyFill(broker.Position{}, dec("1000"), dec("1.10"))

	assert.True(t, realized.IsZero())
	assert.True(t, pos.Quantity.Equal(dec("1000")))
	assert.True(t, pos.AveragePrice.Equal(dec("1.10")))
}

func TestApplyFill_ExtendWeightedAverage(t *testing.T) {
	pos, realized := ApplyFill(broker.Position{}, dec("100"), dec("10"))
	require.True(t, realized.IsZero())

	pos, realized = ApplyFill(pos, dec("100"), dec("20"))

	assert.True(t, realized.IsZero())
	assert.True(t, pos.Quantity.Equal(dec("200")))
	assert.True(t, pos.AveragePrice.Equal(dec("15")), "got %s", pos.AveragePrice)
}

func TestApplyFill_ReduceKeepsEntryPrice(t *testing.T) {
	pos, _ := ApplyFill(broker.Position{}, dec("1000"), dec("1.10"))

	pos, realized := ApplyFill(pos, dec("-400"), dec("1.15"))

	assert.True(t, realized.Equal(dec("20")), "realized %s", realized)
	assert.True(t, pos.Quantity.Equal(dec("600")))
	assert.True(t, pos.AveragePrice.Equal(dec("1.10")))
	assert.True(t, pos.RealizedPnL.Equal(dec("20")))
}

func TestApplyFill_FullClose(t *testing.T) {
	pos, _ := ApplyFill(broker.Position{}, dec("1000"), dec("1.10"))

	pos, realized := ApplyFill(pos, dec("-1000"), dec("1.05"))

	assert.True(t, realized.Equal(dec("-50")), "realized %s", realized)
	assert.True(t, pos.Quantity.IsZero())
	assert.True(t, pos.AveragePrice.IsZero())
}

func TestApplyFill_FlipLongToShort(t *testing.T) {
	// Long 1000 @ 1.10, sell 1500 @ 1.12: the long closes for +20,
	// the remaining 500 opens short at 1.12.
	pos, _ := ApplyFill(broker.Position{}, dec("1000"), dec("1.10"))

	pos, realized := ApplyFill(pos, dec("-1500"), dec("1.12"))

	assert.True(t, realized.Equal(dec("20")), "realized %s", realized)
	assert.True(t, pos.Quantity.Equal(dec("-500")), "quantity %s", pos.Quantity)
	assert.True(t, pos.AveragePrice.Equal(dec("1.12")))
	assert.True(t, pos.RealizedPnL.Equal(dec("20")))
}

func TestApplyFill_ShortSide(t *testing.T) {
	pos, _ := ApplyFill(broker.Position{}, dec("-200"), dec("50"))

	// Covering half below entry profits a short.
	pos, realized := ApplyFill(pos, dec("100"), dec("45"))

	assert.True(t, realized.Equal(dec("500")), "realized %s", realized)
	assert.True(t, pos.Quantity.Equal(dec("-100")))
	assert.True(t, pos.AveragePrice.Equal(dec("50")))
}

func TestApplyFill_ZeroQuantityNoop(t *testing.T) {
	pos, _ := ApplyFill(broker.Position{}, dec("100"), dec("10"))

	got, realized := ApplyFill(pos, decimal.Zero, dec("99"))

	assert.True(t, realized.IsZero())
	assert.True(t, got.Quantity.Equal(pos.Quantity))
	assert.True(t, got.AveragePrice.Equal(pos.AveragePrice))
}

func TestUnrealized(t *testing.T) {
	t.Run("long gains when mark rises", func(t *testing.T) {
		pos, _ := ApplyFill(broker.Position{}, dec("1000"), dec("1.10"))
		u := Unrealized(pos, dec("1.13"))
		assert.True(t, u.Equal(dec("30")), "unrealized %s", u)
	})

	t.Run("short gains when mark falls", func(t *testing.T) {
		pos, _ := ApplyFill(broker.Position{}, dec("-1000"), dec("1.10"))
		u := Unrealized(pos, dec("1.07"))
		assert.True(t, u.Equal(dec("30")), "unrealized %s", u)
	})

	t.Run("flat position has none", func(t *testing.T) {
		u := Unrealized(broker.Position{}, dec("1.10"))
		assert.True(t, u.IsZero())
	})
}

// TestApplyFill_ReconcilesWithTradeFold folds random fill sequences and
// checks the invariant that the position quantity equals the sum of
// signed fill quantities, and that realized plus open P&L equals the
// cash P&L of liquidating at the last price.
func TestApplyFill_ReconcilesWithTradeFold(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for seq := 0; seq < 50; seq++ {
		pos := broker.Position{}
		sumQty := decimal.Zero
		cash := decimal.Zero
		last := decimal.Zero

		for i := 0; i < 20; i++ {
			qty := decimal.NewFromInt(int64(rng.Intn(200) - 100))
			if qty.IsZero() {
				continue
			}
			price := decimal.NewFromInt(int64(100 + rng.Intn(20)))
			last = price

			pos, _ = ApplyFill(pos, qty, price)
			sumQty = sumQty.Add(qty)
			cash = cash.Sub(qty.Mul(price))
		}

		require.True(t, pos.Quantity.Equal(sumQty),
			"seq %d: quantity %s, fold %s", seq, pos.Quantity, sumQty)

		if last.IsZero() {
			continue
		}
		// Liquidate at the last price: total P&L must match cash flow.
		// The weighted average rounds at division precision, so allow
		// a hair of drift.
		total := pos.RealizedPnL.Add(Unrealized(pos, last))
		liquidation := cash.Add(pos.Quantity.Mul(last))
		drift := total.Sub(liquidation).Abs()
		require.True(t, drift.LessThan(dec("0.0000000001")),
			"seq %d: total %s, liquidation %s", seq, total, liquidation)
	}
}
