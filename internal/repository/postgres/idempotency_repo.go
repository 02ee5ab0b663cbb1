package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/telepay/telepay-backend/internal/domain"
)

// IdempotencyRepository implements domain.IdempotencyRepository using
// PostgreSQL. Records are written by InvoiceRepository.ApplyPayment inside
// the payment transaction; this repository only serves the fast-path read.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository creates a new IdempotencyRepository
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

// Find returns the stored record for a key, or nil when the key is unseen
func (r *IdempotencyRepository) Find(key string) (*domain.IdempotencyRecord, error) {
	ctx := context.Background()

	rec := domain.IdempotencyRecord{Key: key}
	var balance pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT result_balance, created_at FROM idempotency_keys WHERE key = $1`,
		key,
	).Scan(&balance, &rec.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.ResultBalance = pgNumericToDecimal(balance)
	return &rec, nil
}
