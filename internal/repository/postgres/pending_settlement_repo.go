package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
)

// PendingSettlementRepository implements domain.PendingSettlementRepository
// using PostgreSQL. This is the bank's reconciliation queue.
type PendingSettlementRepository struct {
	pool *pgxpool.Pool
}

// NewPendingSettlementRepository creates a new PendingSettlementRepository
func NewPendingSettlementRepository(pool *pgxpool.Pool) *PendingSettlementRepository {
	return &PendingSettlementRepository{pool: pool}
}

// Create inserts a new pending settlement
func (r *PendingSettlementRepository) Create(p *domain.PendingSettlement) (*domain.PendingSettlement, error) {
	ctx := context.Background()

	amountNum, err := decimalToPgNumeric(p.Amount)
	if err != nil {
		return nil, err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO pending_settlements
		   (id, account_number, invoice_number, amount, idempotency_key, status, attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.AccountNumber, p.InvoiceNumber, amountNum, p.IdempotencyKey,
		string(p.Status), p.Attempts, p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a pending settlement by its ID
func (r *PendingSettlementRepository) GetByID(id uuid.UUID) (*domain.PendingSettlement, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT id, account_number, invoice_number, amount, idempotency_key,
		        status, attempts, created_at, resolved_at
		 FROM pending_settlements WHERE id = $1`,
		id,
	)
	return scanPendingSettlement(row)
}

// ListPending retrieves settlements still awaiting reconciliation, oldest
// first
func (r *PendingSettlementRepository) ListPending() ([]*domain.PendingSettlement, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT id, account_number, invoice_number, amount, idempotency_key,
		        status, attempts, created_at, resolved_at
		 FROM pending_settlements WHERE status = $1 ORDER BY created_at`,
		string(domain.StatusPendingReconciliation),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.PendingSettlement, 0)
	for rows.Next() {
		p, err := scanPendingSettlement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// IncrementAttempts bumps the reconciliation attempt counter
func (r *PendingSettlementRepository) IncrementAttempts(id uuid.UUID) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx,
		`UPDATE pending_settlements SET attempts = attempts + 1 WHERE id = $1`,
		id,
	)
	return err
}

// Complete commits the local half of a reconciled settlement in a single
// transaction: debit, payment record, and status flip all land together or
// not at all. The pending row is locked first so two reconciliation passes
// cannot both commit the same settlement; the UNIQUE constraint on
// payment_records.pending_settlement_id backstops that guard.
func (r *PendingSettlementRepository) Complete(id uuid.UUID, resolvedAt time.Time) (decimal.Decimal, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var accountNumber, invoiceNumber string
	var amountNum pgtype.Numeric
	err = tx.QueryRow(ctx,
		`SELECT account_number, invoice_number, amount
		 FROM pending_settlements
		 WHERE id = $1 AND status = $2 FOR UPDATE`,
		id, string(domain.StatusPendingReconciliation),
	).Scan(&accountNumber, &invoiceNumber, &amountNum)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, domain.ErrPendingSettlementNotFound
		}
		return decimal.Zero, err
	}
	amount := pgNumericToDecimal(amountNum)

	var accountID int32
	var balanceNum pgtype.Numeric
	err = tx.QueryRow(ctx,
		`SELECT id, balance FROM debit_accounts WHERE account_number = $1 FOR UPDATE`,
		accountNumber,
	).Scan(&accountID, &balanceNum)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	balance := pgNumericToDecimal(balanceNum)
	if balance.LessThan(amount) {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	newBalance := balance.Sub(amount)
	newBalanceNum, err := decimalToPgNumeric(newBalance)
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE debit_accounts SET balance = $1 WHERE id = $2`,
		newBalanceNum, accountID,
	); err != nil {
		return decimal.Zero, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO payment_records (account_id, amount, invoice_number, paid_at, pending_settlement_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		accountID, amountNum, invoiceNumber, resolvedAt, id,
	); err != nil {
		return decimal.Zero, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE pending_settlements SET status = $1, resolved_at = $2 WHERE id = $3`,
		string(domain.StatusCompleted), resolvedAt, id,
	); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// MarkVoided resolves a pending settlement as rejected remotely
func (r *PendingSettlementRepository) MarkVoided(id uuid.UUID, resolvedAt time.Time) error {
	return r.resolve(id, domain.StatusVoided, resolvedAt)
}

func (r *PendingSettlementRepository) resolve(id uuid.UUID, status domain.PendingSettlementStatus, resolvedAt time.Time) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`UPDATE pending_settlements SET status = $1, resolved_at = $2
		 WHERE id = $3 AND status = $4`,
		string(status), resolvedAt, id, string(domain.StatusPendingReconciliation),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPendingSettlementNotFound
	}
	return nil
}

func scanPendingSettlement(row pgx.Row) (*domain.PendingSettlement, error) {
	var p domain.PendingSettlement
	var amount pgtype.Numeric
	var status string
	var resolvedAt pgtype.Timestamptz
	err := row.Scan(&p.ID, &p.AccountNumber, &p.InvoiceNumber, &amount, &p.IdempotencyKey,
		&status, &p.Attempts, &p.CreatedAt, &resolvedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPendingSettlementNotFound
		}
		return nil, err
	}
	p.Amount = pgNumericToDecimal(amount)
	p.Status = domain.PendingSettlementStatus(status)
	if resolvedAt.Valid {
		p.ResolvedAt = &resolvedAt.Time
	}
	return &p, nil
}
