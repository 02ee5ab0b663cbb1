package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetByNumber retrieves a debit account by its account number
func (r *AccountRepository) GetByNumber(accountNumber string) (*domain.DebitAccount, error) {
	ctx := context.Background()

	var acc domain.DebitAccount
	var balance pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT id, customer_id, account_number, balance
		 FROM debit_accounts WHERE account_number = $1`,
		accountNumber,
	).Scan(&acc.ID, &acc.CustomerID, &acc.AccountNumber, &balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	acc.Balance = pgNumericToDecimal(balance)
	return &acc, nil
}

// DebitAndRecord debits the account and appends the payment record in one
// transaction. The account row is locked so the balance check and the debit
// cannot interleave with a concurrent settlement; a balance short of the
// amount fails the whole transaction with ErrInsufficientFunds.
func (r *AccountRepository) DebitAndRecord(accountNumber string, amount decimal.Decimal, invoiceNumber string, paidAt time.Time) (decimal.Decimal, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var accountID int32
	var balance pgtype.Numeric
	err = tx.QueryRow(ctx,
		`SELECT id, balance FROM debit_accounts WHERE account_number = $1 FOR UPDATE`,
		accountNumber,
	).Scan(&accountID, &balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	current := pgNumericToDecimal(balance)
	if current.LessThan(amount) {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	newBalance := current.Sub(amount)
	newBalanceNum, err := decimalToPgNumeric(newBalance)
	if err != nil {
		return decimal.Zero, err
	}
	amountNum, err := decimalToPgNumeric(amount)
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
		`INSERT INTO payment_records (account_id, amount, invoice_number, paid_at)
		 VALUES ($1, $2, $3, $4)`,
		accountID, amountNum, invoiceNumber, paidAt,
	); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}
