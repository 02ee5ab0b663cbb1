package service

import (
	"github.com/telepay/telepay-backend/internal/domain"
)

// AccountService handles bank-side account reads
type AccountService struct {
	accountRepo domain.AccountRepository
	recordRepo  domain.PaymentRecordRepository
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.AccountRepository, recordRepo domain.PaymentRecordRepository) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		recordRepo:  recordRepo,
	}
}

// GetPaymentHistory returns the account and its settlement ledger entries
func (s *AccountService) GetPaymentHistory(accountNumber string) (*domain.DebitAccount, []*domain.PaymentRecord, error) {
	account, err := s.accountRepo.GetByNumber(accountNumber)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.recordRepo.ListByAccount(account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, records, nil
}
