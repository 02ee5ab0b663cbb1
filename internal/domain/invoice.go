package domain

import "github.com/shopspring/decimal"

// Invoice is a telecom-side outstanding invoice. The outstanding balance is
// monotonically non-increasing and never negative.
type Invoice struct {
	ID                 int32           `json:"id"`
	CustomerID         int32           `json:"customerId"`
	InvoiceNumber      string          `json:"invoiceNumber"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
}

// OutstandingInvoice is the wire shape shared by both services for debt
// queries.
type OutstandingInvoice struct {
	InvoiceNumber      string          `json:"invoiceNumber"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
}

// ValidatePaymentAmount checks a payment amount against an outstanding
// balance. Amounts must be strictly positive and must not exceed what is
// still owed.
func ValidatePaymentAmount(amount, outstanding decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(outstanding) {
		return ErrInvalidAmount
	}
	return nil
}

type InvoiceRepository interface {
	GetByNumber(invoiceNumber string) (*Invoice, error)

	// ListOutstandingByCustomer returns the customer's invoices in a stable
	// order (by invoice number). An empty result is not an error.
	ListOutstandingByCustomer(customerID int32) ([]*Invoice, error)

	// ApplyPayment decrements the invoice's outstanding balance under a
	// per-invoice lock so concurrent payments cannot both read the
	// pre-payment balance. The decrement and the idempotency record are one
	// transaction; a key that already succeeded returns the original
	// balance with replayed=true and no second decrement.
	ApplyPayment(invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (newBalance decimal.Decimal, replayed bool, err error)
}
