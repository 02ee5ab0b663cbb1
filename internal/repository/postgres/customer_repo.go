package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/telepay/telepay-backend/internal/domain"
)

// CustomerRepository implements domain.CustomerRepository using PostgreSQL.
// Both services carry their own customer registry; the table layout is the
// same on either side.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByNationalID retrieves a customer by their national identifier
func (r *CustomerRepository) GetByNationalID(nationalID string) (*domain.Customer, error) {
	ctx := context.Background()

	var c domain.Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, national_id FROM customers WHERE national_id = $1`,
		nationalID,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.NationalID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}
