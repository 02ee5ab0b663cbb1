package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is an append-only bank-side ledger entry created exactly
// once per settlement that reaches local commit. Records are never mutated
// or deleted.
type PaymentRecord struct {
	ID            int32           `json:"id"`
	AccountID     int32           `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceNumber string          `json:"invoiceNumber"`
	PaidAt        time.Time       `json:"paidAt"`
}

type PaymentRecordRepository interface {
	ListByAccount(accountID int32) ([]*PaymentRecord, error)
	CountByAccount(accountID int32) (int64, error)
}
