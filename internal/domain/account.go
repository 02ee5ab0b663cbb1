package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebitAccount is a bank-side account. Balance is mutated only by
// successful settlements and never goes negative.
type DebitAccount struct {
	ID            int32           `json:"id"`
	CustomerID    int32           `json:"customerId"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

type AccountRepository interface {
	GetByNumber(accountNumber string) (*DebitAccount, error)

	// DebitAndRecord debits the account and appends the matching payment
	// record in a single transaction. The debit is conditional on the
	// balance covering the amount; ErrInsufficientFunds is returned and
	// nothing is written when it does not. Returns the new balance.
	DebitAndRecord(accountNumber string, amount decimal.Decimal, invoiceNumber string, paidAt time.Time) (decimal.Decimal, error)
}
