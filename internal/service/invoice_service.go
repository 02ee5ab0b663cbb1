package service

import (
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
)

// InvoiceService handles the telecom ledger operations: listing a
// customer's outstanding invoices and applying payments to them.
type InvoiceService struct {
	customerRepo    domain.CustomerRepository
	invoiceRepo     domain.InvoiceRepository
	idempotencyRepo domain.IdempotencyRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(customerRepo domain.CustomerRepository, invoiceRepo domain.InvoiceRepository, idempotencyRepo domain.IdempotencyRepository) *InvoiceService {
	return &InvoiceService{
		customerRepo:    customerRepo,
		invoiceRepo:     invoiceRepo,
		idempotencyRepo: idempotencyRepo,
	}
}

// ListOutstandingInvoices returns the customer's outstanding invoices.
// An unknown customer is an error; a known customer with no invoices is an
// empty list.
func (s *InvoiceService) ListOutstandingInvoices(nationalID string) ([]domain.OutstandingInvoice, error) {
	customer, err := s.customerRepo.GetByNationalID(nationalID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.ListOutstandingByCustomer(customer.ID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.OutstandingInvoice, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, domain.OutstandingInvoice{
			InvoiceNumber:      inv.InvoiceNumber,
			OutstandingBalance: inv.OutstandingBalance,
		})
	}
	return result, nil
}

// PaymentResult is the outcome of ApplyPayment. Replayed is true when the
// idempotency key had already succeeded and the stored result was returned.
type PaymentResult struct {
	OutstandingBalance decimal.Decimal
	Replayed           bool
}

// ApplyPayment applies a payment to an invoice. A repeated idempotency key
// returns the original result without decrementing the balance again.
func (s *InvoiceService) ApplyPayment(invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (*PaymentResult, error) {
	// Fast path: the key already succeeded
	if rec, err := s.idempotencyRepo.Find(idempotencyKey); err != nil {
		return nil, err
	} else if rec != nil {
		return &PaymentResult{OutstandingBalance: rec.ResultBalance, Replayed: true}, nil
	}

	newBalance, replayed, err := s.invoiceRepo.ApplyPayment(invoiceNumber, amount, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{OutstandingBalance: newBalance, Replayed: replayed}, nil
}
