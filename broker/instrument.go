package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstrumentType string

const (
	InstrumentForex  InstrumentType = "forex"
	InstrumentCrypto InstrumentType = "crypto"
	InstrumentEquity InstrumentType = "equity"
	InstrumentFuture InstrumentType = "future"
)

// Instrument is read-only to the execution engine; the registry sync
// collaborator is the only writer.
type Instrument struct {
	ID            string
	Symbol        string
	Name          string
	Type          InstrumentType
	BaseCurrency  string
	QuoteCurrency string
	MinQuantity   decimal.Decimal
	MaxQuantity   decimal.Decimal
	TickSize      decimal.Decimal
	Active        bool
	CreatedAt     time.Time
}

// AlignsToTick reports whether price is a whole multiple of the
// instrument's tick size.
func (i Instrument) AlignsToTick(price decimal.Decimal) bool {
	if i.TickSize.IsZero() {
		return true
	}
	return price.Mod(i.TickSize).IsZero()
}

// QuantityInBounds reports whether qty falls within [min, max].
// A zero max means unbounded.
func (i Instrument) QuantityInBounds(qty decimal.Decimal) bool {
	if qty.Cmp(i.MinQuantity) < 0 {
		return false
	}
	if !i.MaxQuantity.IsZero() && qty.Cmp(i.MaxQuantity) > 0 {
		return false
	}
	return true
}
