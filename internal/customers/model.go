// Package customers maintains the customer ledger: contact details, credit
// limit and the server-maintained outstanding balance.
package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

// CacheNamespace versions cached customer reads. Writers that change a
// customer's outstanding balance bump it as well.
const CacheNamespace = "customers"

// Customer is a buyer of goods.
type Customer struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Email             string          `json:"email" db:"email"`
	Phone             string          `json:"phone" db:"phone"`
	Address           string          `json:"address" db:"address"`
	CreditLimit       decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount" db:"outstanding_amount"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// AvailableCredit returns the headroom left under the credit limit. A zero
// limit means no limit and reports ok=false.
func (c Customer) AvailableCredit() (decimal.Decimal, bool) {
	if !c.CreditLimit.IsPositive() {
		return decimal.Zero, false
	}
	return c.CreditLimit.Sub(c.OutstandingAmount), true
}
