// Package position owns the fill-application math: weighted-average
// entry price and realized P&L accumulation. All functions are pure so
// the settlement transaction can apply their results atomically.
package position

import (
	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
)

// ApplyFill folds one fill of signed quantity qty at price into pos
// and returns the post-fill position plus the realized P&L this fill
// produced. Three cases:
//
//   - extending (same sign, or flat): quantity adds, entry price
//     becomes the weighted average, nothing is realized;
//   - reducing (opposite sign, |qty| <= |position|): quantity shrinks,
//     entry price is unchanged, the closed portion realizes
//     |qty| * (price - entry) * direction;
//   - flipping (opposite sign, |qty| > |position|): the whole position
//     realizes as above, the remainder opens at the fill price.
func ApplyFill(pos broker.Position, qty, price decimal.Decimal) (broker.Position, decimal.Decimal) {
	if qty.IsZero() {
		return pos, decimal.Zero
	}

	q0 := pos.Quantity
	p0 := pos.AveragePrice

	// Extending or opening.
	if q0.IsZero() || q0.Sign() == qty.Sign() {
		newQty := q0.Add(qty)
		cost := q0.Mul(p0).Add(qty.Mul(price))
		pos.Quantity = newQty
		pos.AveragePrice = cost.Div(newQty)
		return pos, decimal.Zero
	}

	direction := decimal.NewFromInt(int64(q0.Sign()))
	closed := decimal.Min(qty.Abs(), q0.Abs())
	realized := closed.Mul(price.Sub(p0)).Mul(direction)

	pos.RealizedPnL = pos.RealizedPnL.Add(realized)
	pos.Quantity = q0.Add(qty)

	switch {
	case pos.Quantity.IsZero():
		// Fully closed.
		pos.AveragePrice = decimal.Zero
	case pos.Quantity.Sign() != q0.Sign():
		// Flipped: the remainder opens at the fill price.
		pos.AveragePrice = price
	}
	// Reduced but not closed: entry price stays p0.

	return pos, realized
}

// Unrealized is the mark-to-market P&L of the open quantity:
// (mark - entry) * quantity. The signed quantity carries direction, so
// the same formula serves longs and shorts. Always recomputed from
// scratch, never adjusted incrementally.
func Unrealized(pos broker.Position, mark decimal.Decimal) decimal.Decimal {
	if pos.Quantity.IsZero() {
		return decimal.Zero
	}
	return mark.Sub(pos.AveragePrice).Mul(pos.Quantity)
}
