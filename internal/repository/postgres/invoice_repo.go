package postgres

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
)

// InvoiceRepository implements domain.InvoiceRepository using PostgreSQL
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// GetByNumber retrieves an invoice by its invoice number
func (r *InvoiceRepository) GetByNumber(invoiceNumber string) (*domain.Invoice, error) {
	ctx := context.Background()

	var inv domain.Invoice
	var outstanding pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT id, customer_id, invoice_number, outstanding_balance
		 FROM invoices WHERE invoice_number = $1`,
		invoiceNumber,
	).Scan(&inv.ID, &inv.CustomerID, &inv.InvoiceNumber, &outstanding)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	inv.OutstandingBalance = pgNumericToDecimal(outstanding)
	return &inv, nil
}

// ListOutstandingByCustomer retrieves a customer's invoices ordered by
// invoice number, so repeated calls without intervening payments return the
// same sequence
func (r *InvoiceRepository) ListOutstandingByCustomer(customerID int32) ([]*domain.Invoice, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT id, customer_id, invoice_number, outstanding_balance
		 FROM invoices WHERE customer_id = $1 ORDER BY invoice_number`,
		customerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Invoice, 0)
	for rows.Next() {
		var inv domain.Invoice
		var outstanding pgtype.Numeric
		if err := rows.Scan(&inv.ID, &inv.CustomerID, &inv.InvoiceNumber, &outstanding); err != nil {
			return nil, err
		}
		inv.OutstandingBalance = pgNumericToDecimal(outstanding)
		result = append(result, &inv)
	}
	return result, rows.Err()
}

// ApplyPayment decrements the invoice's outstanding balance. The invoice
// row is locked for the whole transaction, the idempotency key is checked
// under a per-key advisory lock, and the decrement plus the idempotency
// record commit together. A key that already succeeded returns the stored
// balance without touching the invoice.
func (r *InvoiceRepository) ApplyPayment(invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, bool, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize concurrent requests carrying the same key
	if err := lockKey(ctx, tx, idempotencyKey); err != nil {
		return decimal.Zero, false, err
	}

	var stored pgtype.Numeric
	err = tx.QueryRow(ctx,
		`SELECT result_balance FROM idempotency_keys WHERE key = $1`,
		idempotencyKey,
	).Scan(&stored)
	if err == nil {
		return pgNumericToDecimal(stored), true, nil
	}
	if err != pgx.ErrNoRows {
		return decimal.Zero, false, err
	}

	var outstanding pgtype.Numeric
	err = tx.QueryRow(ctx,
		`SELECT outstanding_balance FROM invoices WHERE invoice_number = $1 FOR UPDATE`,
		invoiceNumber,
	).Scan(&outstanding)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, false, domain.ErrInvoiceNotFound
		}
		return decimal.Zero, false, err
	}

	if err := domain.ValidatePaymentAmount(amount, pgNumericToDecimal(outstanding)); err != nil {
		return decimal.Zero, false, err
	}

	newBalance := pgNumericToDecimal(outstanding).Sub(amount)
	newBalanceNum, err := decimalToPgNumeric(newBalance)
	if err != nil {
		return decimal.Zero, false, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET outstanding_balance = $1 WHERE invoice_number = $2`,
		newBalanceNum, invoiceNumber,
	); err != nil {
		return decimal.Zero, false, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO idempotency_keys (key, result_balance, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		idempotencyKey, newBalanceNum, time.Now().UTC(),
	); err != nil {
		return decimal.Zero, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, false, err
	}
	return newBalance, false, nil
}

func lockKey(ctx context.Context, tx pgx.Tx, key string) error {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(h.Sum64()))
	return err
}
