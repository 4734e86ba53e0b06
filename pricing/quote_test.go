package pricing

import (
	"testing"

	"github.com/rustyeddy/brokerage/broker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuoteValidate(t *testing.T) {
	tests := []struct {
		name    string
		bid     string
		ask     string
		wantErr bool
	}{
		{"valid spread", "1.1000", "1.1002", false},
		{"equal bid and ask", "1.1000", "1.1000", false},
		{"zero bid", "0", "1.1002", true},
		{"zero ask", "1.1000", "0", true},
		{"inverted book", "1.1002", "1.1000", true},
		{"negative prices", "-1", "-0.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Quote{Bid: dec(tt.bid), Ask: dec(tt.ask)}
			err := q.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, broker.ErrQuoteUnavailable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteMarkPrice(t *testing.T) {
	t.Run("venue mark wins", func(t *testing.T) {
		q := Quote{Bid: dec("99"), Ask: dec("101"), Mark: dec("100.5")}
		assert.True(t, q.MarkPrice(true).Equal(dec("100.5")))
		assert.True(t, q.MarkPrice(false).Equal(dec("100.5")))
	})

	t.Run("falls back to closing side", func(t *testing.T) {
		q := Quote{Bid: dec("99"), Ask: dec("101")}
		assert.True(t, q.MarkPrice(true).Equal(dec("99")), "longs close on bid")
		assert.True(t, q.MarkPrice(false).Equal(dec("101")), "shorts close on ask")
	})
}

func TestQuoteMid(t *testing.T) {
	q := Quote{Bid: dec("1.10"), Ask: dec("1.12")}
	assert.True(t, q.Mid().Equal(dec("1.11")))
}
