package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/telepay/telepay-backend/internal/domain"
)

// PaymentRecordRepository implements domain.PaymentRecordRepository using
// PostgreSQL. Records are inserted by AccountRepository.DebitAndRecord;
// this repository is read-only, matching the append-only ledger contract.
type PaymentRecordRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRecordRepository creates a new PaymentRecordRepository
func NewPaymentRecordRepository(pool *pgxpool.Pool) *PaymentRecordRepository {
	return &PaymentRecordRepository{pool: pool}
}

// ListByAccount retrieves an account's payment history, newest first
func (r *PaymentRecordRepository) ListByAccount(accountID int32) ([]*domain.PaymentRecord, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, amount, invoice_number, paid_at
		 FROM payment_records WHERE account_id = $1 ORDER BY paid_at DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.PaymentRecord, 0)
	for rows.Next() {
		var rec domain.PaymentRecord
		var amount pgtype.Numeric
		if err := rows.Scan(&rec.ID, &rec.AccountID, &amount, &rec.InvoiceNumber, &rec.PaidAt); err != nil {
			return nil, err
		}
		rec.Amount = pgNumericToDecimal(amount)
		result = append(result, &rec)
	}
	return result, rows.Err()
}

// CountByAccount returns the number of payment records for an account
func (r *PaymentRecordRepository) CountByAccount(accountID int32) (int64, error) {
	ctx := context.Background()

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_records WHERE account_id = $1`,
		accountID,
	).Scan(&count)
	return count, err
}
