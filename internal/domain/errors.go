package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrCustomerNotFound          = errors.New("customer not found")
	ErrAccountNotFound           = errors.New("account not found")
	ErrInvoiceNotFound           = errors.New("invoice not found")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrTelecomUnavailable        = errors.New("telecom ledger unavailable")
	ErrSettlementPending         = errors.New("settlement pending reconciliation")
	ErrPendingSettlementNotFound = errors.New("pending settlement not found")
	ErrInternalError             = errors.New("internal error")
)

// UpstreamError reports an unexpected response from the telecom ledger.
// The remote service answered, so the failure is not assumed transient;
// status and body are kept for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("unexpected telecom ledger response: status %d: %s", e.Status, e.Body)
}
