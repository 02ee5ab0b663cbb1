package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementInput represents a request to settle one invoice from one
// debit account. IdempotencyKey is optional; the coordinator derives one
// when the caller does not supply it.
type SettlementInput struct {
	AccountNumber  string          `json:"accountNumber"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// SettlementResult represents a fully committed settlement.
type SettlementResult struct {
	SettlementID            uuid.UUID       `json:"settlementId"`
	SettledAt               time.Time       `json:"settledAt"`
	RemainingAccountBalance decimal.Decimal `json:"remainingAccountBalance"`
}

// PendingSettlementStatus tracks a settlement whose remote outcome could
// not be confirmed within the retry budget.
type PendingSettlementStatus string

const (
	// StatusPendingReconciliation: the remote outcome is unknown and the
	// account has NOT been debited. The reconciliation worker owns it.
	StatusPendingReconciliation PendingSettlementStatus = "pending_reconciliation"
	// StatusCompleted: reconciliation confirmed the remote payment and the
	// local debit plus payment record were committed.
	StatusCompleted PendingSettlementStatus = "completed"
	// StatusVoided: reconciliation got a definite remote rejection; no
	// local mutation ever happened.
	StatusVoided PendingSettlementStatus = "voided"
)

// PendingSettlement is a reconciliation-queue entry for an indeterminate
// remote outcome. The stored idempotency key makes the later replay safe.
type PendingSettlement struct {
	ID             uuid.UUID               `json:"id"`
	AccountNumber  string                  `json:"accountNumber"`
	InvoiceNumber  string                  `json:"invoiceNumber"`
	Amount         decimal.Decimal         `json:"amount"`
	IdempotencyKey string                  `json:"idempotencyKey"`
	Status         PendingSettlementStatus `json:"status"`
	Attempts       int32                   `json:"attempts"`
	CreatedAt      time.Time               `json:"createdAt"`
	ResolvedAt     *time.Time              `json:"resolvedAt,omitempty"`
}

type PendingSettlementRepository interface {
	Create(p *PendingSettlement) (*PendingSettlement, error)
	GetByID(id uuid.UUID) (*PendingSettlement, error)
	ListPending() ([]*PendingSettlement, error)
	IncrementAttempts(id uuid.UUID) error

	// Complete commits the local half of a reconciled settlement: the
	// account debit, the payment record, and the status flip to completed
	// are one transaction, so a failed pass leaves no partial state for the
	// next pass to repeat. Only an entry still in pending_reconciliation
	// can complete. Returns the new account balance.
	Complete(id uuid.UUID, resolvedAt time.Time) (decimal.Decimal, error)

	MarkVoided(id uuid.UUID, resolvedAt time.Time) error
}
