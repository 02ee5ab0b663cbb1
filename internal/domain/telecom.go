package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TelecomGateway is the bank's view of the telecom ledger: an abstract
// invoice-settlement capability. The concrete address lives in
// configuration, never in the coordinator.
//
// Error contract:
//   - unknown customer/invoice       -> ErrCustomerNotFound / ErrInvoiceNotFound
//   - rejected amount                -> ErrInvalidAmount
//   - transport failure, timeout,5xx -> ErrTelecomUnavailable (indeterminate)
//   - any other remote error         -> *UpstreamError
type TelecomGateway interface {
	ListOutstandingInvoices(ctx context.Context, nationalID string) ([]OutstandingInvoice, error)

	// ApplyPayment applies a payment to the remote invoice. Replaying the
	// same idempotency key returns the original outstanding balance without
	// decrementing it again.
	ApplyPayment(ctx context.Context, invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error)
}
