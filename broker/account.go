package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountPractice AccountType = "practice"
	AccountLive     AccountType = "live"
)

// Account is a dumb store of truth for balance: the execution engine
// decides whether a fill is allowed, the ledger only applies the math.
type Account struct {
	ID        string
	Name      string
	Type      AccountType
	Currency  string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
