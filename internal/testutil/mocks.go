package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
)

// MockCustomerRepository is a mock implementation of domain.CustomerRepository
type MockCustomerRepository struct {
	Customers map[string]*domain.Customer
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{Customers: make(map[string]*domain.Customer)}
}

// AddCustomer registers a customer under its national ID
func (m *MockCustomerRepository) AddCustomer(c *domain.Customer) {
	m.Customers[c.NationalID] = c
}

// GetByNationalID retrieves a customer by national ID
func (m *MockCustomerRepository) GetByNationalID(nationalID string) (*domain.Customer, error) {
	if c, ok := m.Customers[nationalID]; ok {
		return c, nil
	}
	return nil, domain.ErrCustomerNotFound
}

// MockAccountRepository is a mock implementation of domain.AccountRepository.
// It is safe for concurrent use so settlement serialization can be tested.
type MockAccountRepository struct {
	mu       sync.Mutex
	Accounts map[string]*domain.DebitAccount
	Records  []*domain.PaymentRecord
	DebitFn  func(accountNumber string, amount decimal.Decimal) error
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{Accounts: make(map[string]*domain.DebitAccount)}
}

// AddAccount registers an account under its account number
func (m *MockAccountRepository) AddAccount(a *domain.DebitAccount) {
	m.Accounts[a.AccountNumber] = a
}

// GetByNumber retrieves an account by account number
func (m *MockAccountRepository) GetByNumber(accountNumber string) (*domain.DebitAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Accounts[accountNumber]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

// DebitAndRecord debits the account and appends a payment record, mirroring
// the single-transaction contract of the real repository
func (m *MockAccountRepository) DebitAndRecord(accountNumber string, amount decimal.Decimal, invoiceNumber string, paidAt time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DebitFn != nil {
		if err := m.DebitFn(accountNumber, amount); err != nil {
			return decimal.Zero, err
		}
	}

	a, ok := m.Accounts[accountNumber]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	if a.Balance.LessThan(amount) {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	m.Records = append(m.Records, &domain.PaymentRecord{
		ID:            int32(len(m.Records) + 1),
		AccountID:     a.ID,
		Amount:        amount,
		InvoiceNumber: invoiceNumber,
		PaidAt:        paidAt,
	})
	return a.Balance, nil
}

// RecordCount returns the number of appended payment records
func (m *MockAccountRepository) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
}

// MockPaymentRecordRepository is a mock implementation of
// domain.PaymentRecordRepository backed by a MockAccountRepository's records
type MockPaymentRecordRepository struct {
	Accounts *MockAccountRepository
}

// NewMockPaymentRecordRepository creates a new MockPaymentRecordRepository
func NewMockPaymentRecordRepository(accounts *MockAccountRepository) *MockPaymentRecordRepository {
	return &MockPaymentRecordRepository{Accounts: accounts}
}

// ListByAccount retrieves payment records for an account
func (m *MockPaymentRecordRepository) ListByAccount(accountID int32) ([]*domain.PaymentRecord, error) {
	m.Accounts.mu.Lock()
	defer m.Accounts.mu.Unlock()
	result := make([]*domain.PaymentRecord, 0)
	for _, r := range m.Accounts.Records {
		if r.AccountID == accountID {
			result = append(result, r)
		}
	}
	return result, nil
}

// CountByAccount counts payment records for an account
func (m *MockPaymentRecordRepository) CountByAccount(accountID int32) (int64, error) {
	records, _ := m.ListByAccount(accountID)
	return int64(len(records)), nil
}

// MockInvoiceRepository is a mock implementation of domain.InvoiceRepository
// with the same idempotent-replay semantics as the PostgreSQL repository
type MockInvoiceRepository struct {
	mu       sync.Mutex
	Invoices map[string]*domain.Invoice
	ByCust   map[int32][]*domain.Invoice
	Replays  map[string]decimal.Decimal
}

// NewMockInvoiceRepository creates a new MockInvoiceRepository
func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		Invoices: make(map[string]*domain.Invoice),
		ByCust:   make(map[int32][]*domain.Invoice),
		Replays:  make(map[string]decimal.Decimal),
	}
}

// AddInvoice registers an invoice under its invoice number
func (m *MockInvoiceRepository) AddInvoice(inv *domain.Invoice) {
	m.Invoices[inv.InvoiceNumber] = inv
	m.ByCust[inv.CustomerID] = append(m.ByCust[inv.CustomerID], inv)
}

// GetByNumber retrieves an invoice by invoice number
func (m *MockInvoiceRepository) GetByNumber(invoiceNumber string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.Invoices[invoiceNumber]; ok {
		return inv, nil
	}
	return nil, domain.ErrInvoiceNotFound
}

// ListOutstandingByCustomer retrieves a customer's invoices in insertion order
func (m *MockInvoiceRepository) ListOutstandingByCustomer(customerID int32) ([]*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Invoice, 0)
	result = append(result, m.ByCust[customerID]...)
	return result, nil
}

// ApplyPayment decrements the invoice balance, replaying stored results for
// repeated idempotency keys
func (m *MockInvoiceRepository) ApplyPayment(invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.Replays[idempotencyKey]; ok {
		return stored, true, nil
	}

	inv, ok := m.Invoices[invoiceNumber]
	if !ok {
		return decimal.Zero, false, domain.ErrInvoiceNotFound
	}
	if err := domain.ValidatePaymentAmount(amount, inv.OutstandingBalance); err != nil {
		return decimal.Zero, false, err
	}
	inv.OutstandingBalance = inv.OutstandingBalance.Sub(amount)
	m.Replays[idempotencyKey] = inv.OutstandingBalance
	return inv.OutstandingBalance, false, nil
}

// MockIdempotencyRepository is a mock implementation of
// domain.IdempotencyRepository backed by a MockInvoiceRepository
type MockIdempotencyRepository struct {
	Invoices *MockInvoiceRepository
}

// NewMockIdempotencyRepository creates a new MockIdempotencyRepository
func NewMockIdempotencyRepository(invoices *MockInvoiceRepository) *MockIdempotencyRepository {
	return &MockIdempotencyRepository{Invoices: invoices}
}

// Find returns the stored record for a key, or nil when unseen
func (m *MockIdempotencyRepository) Find(key string) (*domain.IdempotencyRecord, error) {
	m.Invoices.mu.Lock()
	defer m.Invoices.mu.Unlock()
	if balance, ok := m.Invoices.Replays[key]; ok {
		return &domain.IdempotencyRecord{Key: key, ResultBalance: balance, CreatedAt: time.Now()}, nil
	}
	return nil, nil
}

// MockPendingSettlementRepository is a mock implementation of
// domain.PendingSettlementRepository. Complete mirrors the real
// repository's single-transaction contract by committing through the
// account mock: either the debit, the record, and the status flip all
// happen, or none do.
type MockPendingSettlementRepository struct {
	mu         sync.Mutex
	Pending    map[uuid.UUID]*domain.PendingSettlement
	Accounts   *MockAccountRepository
	CreateFn   func(p *domain.PendingSettlement) error
	CompleteFn func(id uuid.UUID) error
}

// NewMockPendingSettlementRepository creates a new MockPendingSettlementRepository
func NewMockPendingSettlementRepository(accounts *MockAccountRepository) *MockPendingSettlementRepository {
	return &MockPendingSettlementRepository{
		Pending:  make(map[uuid.UUID]*domain.PendingSettlement),
		Accounts: accounts,
	}
}

// Create inserts a pending settlement
func (m *MockPendingSettlementRepository) Create(p *domain.PendingSettlement) (*domain.PendingSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateFn != nil {
		if err := m.CreateFn(p); err != nil {
			return nil, err
		}
	}
	m.Pending[p.ID] = p
	return p, nil
}

// GetByID retrieves a pending settlement
func (m *MockPendingSettlementRepository) GetByID(id uuid.UUID) (*domain.PendingSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Pending[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPendingSettlementNotFound
}

// ListPending retrieves unresolved settlements
func (m *MockPendingSettlementRepository) ListPending() ([]*domain.PendingSettlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.PendingSettlement, 0)
	for _, p := range m.Pending {
		if p.Status == domain.StatusPendingReconciliation {
			result = append(result, p)
		}
	}
	return result, nil
}

// IncrementAttempts bumps the attempt counter
func (m *MockPendingSettlementRepository) IncrementAttempts(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Pending[id]; ok {
		p.Attempts++
		return nil
	}
	return domain.ErrPendingSettlementNotFound
}

// Complete commits the debit, the payment record, and the status flip as
// one unit. CompleteFn simulates a transaction that fails before anything
// lands.
func (m *MockPendingSettlementRepository) Complete(id uuid.UUID, resolvedAt time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	p, ok := m.Pending[id]
	if !ok || p.Status != domain.StatusPendingReconciliation {
		m.mu.Unlock()
		return decimal.Zero, domain.ErrPendingSettlementNotFound
	}
	m.mu.Unlock()

	if m.CompleteFn != nil {
		if err := m.CompleteFn(id); err != nil {
			return decimal.Zero, err
		}
	}

	newBalance, err := m.Accounts.DebitAndRecord(p.AccountNumber, p.Amount, p.InvoiceNumber, resolvedAt)
	if err != nil {
		return decimal.Zero, err
	}

	m.mu.Lock()
	p.Status = domain.StatusCompleted
	p.ResolvedAt = &resolvedAt
	m.mu.Unlock()
	return newBalance, nil
}

// MarkVoided resolves a settlement as rejected remotely
func (m *MockPendingSettlementRepository) MarkVoided(id uuid.UUID, resolvedAt time.Time) error {
	return m.resolve(id, domain.StatusVoided, resolvedAt)
}

func (m *MockPendingSettlementRepository) resolve(id uuid.UUID, status domain.PendingSettlementStatus, resolvedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Pending[id]
	if !ok || p.Status != domain.StatusPendingReconciliation {
		return domain.ErrPendingSettlementNotFound
	}
	p.Status = status
	p.ResolvedAt = &resolvedAt
	return nil
}

// MockTelecomGateway is a scripted mock implementation of
// domain.TelecomGateway. Each ApplyPayment call consumes the next scripted
// outcome; when the script runs out the last outcome repeats.
type MockTelecomGateway struct {
	mu sync.Mutex

	Invoices    map[string][]domain.OutstandingInvoice
	ListErr     error
	ListCalls   int
	ApplyCalls  int
	AppliedKeys []string
	Script      []ApplyOutcome
}

// ApplyOutcome is one scripted result for ApplyPayment
type ApplyOutcome struct {
	Balance decimal.Decimal
	Err     error
}

// NewMockTelecomGateway creates a new MockTelecomGateway
func NewMockTelecomGateway() *MockTelecomGateway {
	return &MockTelecomGateway{Invoices: make(map[string][]domain.OutstandingInvoice)}
}

// ListOutstandingInvoices returns the scripted invoice list
func (m *MockTelecomGateway) ListOutstandingInvoices(ctx context.Context, nationalID string) ([]domain.OutstandingInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	invoices, ok := m.Invoices[nationalID]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return invoices, nil
}

// ApplyPayment consumes the next scripted outcome
func (m *MockTelecomGateway) ApplyPayment(ctx context.Context, invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.ApplyCalls
	m.ApplyCalls++
	m.AppliedKeys = append(m.AppliedKeys, idempotencyKey)
	if len(m.Script) == 0 {
		return decimal.Zero, domain.ErrTelecomUnavailable
	}
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	out := m.Script[idx]
	return out.Balance, out.Err
}
