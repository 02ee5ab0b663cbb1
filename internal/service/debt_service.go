package service

import (
	"context"

	"github.com/telepay/telepay-backend/internal/domain"
)

// DebtService answers outstanding-debt queries by delegating to the
// telecom ledger after checking the bank's own customer registry.
type DebtService struct {
	customerRepo domain.CustomerRepository
	telecom      domain.TelecomGateway
}

// NewDebtService creates a new DebtService
func NewDebtService(customerRepo domain.CustomerRepository, telecom domain.TelecomGateway) *DebtService {
	return &DebtService{
		customerRepo: customerRepo,
		telecom:      telecom,
	}
}

// QueryOutstandingDebt returns the customer's outstanding telecom invoices.
// The local registry is checked first so an unknown local customer never
// produces a remote call, and remote-service errors are never mistaken for
// a local lookup failure.
func (s *DebtService) QueryOutstandingDebt(ctx context.Context, nationalID string) ([]domain.OutstandingInvoice, error) {
	if _, err := s.customerRepo.GetByNationalID(nationalID); err != nil {
		return nil, err
	}
	return s.telecom.ListOutstandingInvoices(ctx, nationalID)
}
