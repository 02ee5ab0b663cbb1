package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/websocket"
)

// SettlementConfig bounds the remote retry budget for one settlement
// attempt. Retries only ever target indeterminate outcomes and always
// reuse the attempt's idempotency key.
type SettlementConfig struct {
	MaxAttempts int           // Remote attempts before the settlement parks for reconciliation
	RetryDelay  time.Duration // Base delay, doubled per retry
}

// DefaultSettlementConfig returns sensible defaults
func DefaultSettlementConfig() SettlementConfig {
	return SettlementConfig{
		MaxAttempts: 3,
		RetryDelay:  200 * time.Millisecond,
	}
}

// SettlementService coordinates the cross-service settlement: local
// validation, remote invoice payment, then local debit plus payment record.
// The two ledgers share no transaction, so the remote step is made
// retriable with an idempotency key and indeterminate outcomes park in the
// reconciliation queue instead of guessing.
type SettlementService struct {
	accountRepo    domain.AccountRepository
	pendingRepo    domain.PendingSettlementRepository
	telecom        domain.TelecomGateway
	config         SettlementConfig
	eventPublisher websocket.EventPublisher

	// Per-account locks serialize the balance check and the debit so two
	// concurrent settlements cannot both pass validation on a stale balance
	lockMu       sync.Mutex
	accountLocks map[string]*sync.Mutex
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(accountRepo domain.AccountRepository, pendingRepo domain.PendingSettlementRepository, telecom domain.TelecomGateway, config SettlementConfig) *SettlementService {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &SettlementService{
		accountRepo:  accountRepo,
		pendingRepo:  pendingRepo,
		telecom:      telecom,
		config:       config,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SettlementService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *SettlementService) publishEvent(accountNumber string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(accountNumber, event)
	}
}

// Settle runs one settlement attempt through the state machine:
// validate-local, remote-settle, commit-local.
//
// The returned PendingSettlement is non-nil only when the error is
// ErrSettlementPending; it carries the marker the caller can poll.
// The account is never debited before the remote payment is confirmed.
func (s *SettlementService) Settle(ctx context.Context, input domain.SettlementInput) (*domain.SettlementResult, *domain.PendingSettlement, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, domain.ErrInvalidAmount
	}

	lock := s.accountLock(input.AccountNumber)
	lock.Lock()
	defer lock.Unlock()

	// Validate-Local
	account, err := s.accountRepo.GetByNumber(input.AccountNumber)
	if err != nil {
		return nil, nil, err
	}
	if account.Balance.LessThan(input.Amount) {
		return nil, nil, domain.ErrInsufficientFunds
	}

	// One key per settlement attempt, reused across every retry below and,
	// if the outcome stays unknown, by the reconciliation worker
	key := input.IdempotencyKey
	if key == "" {
		key = domain.DeriveIdempotencyKey(input.AccountNumber, input.InvoiceNumber, input.Amount, uuid.NewString())
	}

	// Remote-Settle
	if err := s.remoteSettle(ctx, input, key); err != nil {
		if errors.Is(err, domain.ErrTelecomUnavailable) {
			pending, perr := s.parkForReconciliation(input, key)
			if perr != nil {
				return nil, nil, perr
			}
			return nil, pending, domain.ErrSettlementPending
		}
		// Definite remote rejection: no local mutation happened or will
		return nil, nil, err
	}

	// Commit-Local
	settledAt := time.Now().UTC()
	newBalance, err := s.accountRepo.DebitAndRecord(input.AccountNumber, input.Amount, input.InvoiceNumber, settledAt)
	if err != nil {
		// The invoice side is already reduced; the stored key lets the
		// reconciliation worker replay the remote call for free and finish
		// the local commit once the store recovers
		log.Error().Err(err).
			Str("account_number", input.AccountNumber).
			Str("invoice_number", input.InvoiceNumber).
			Msg("Local commit failed after confirmed remote payment")
		pending, perr := s.parkForReconciliation(input, key)
		if perr != nil {
			return nil, nil, perr
		}
		return nil, pending, domain.ErrSettlementPending
	}

	result := &domain.SettlementResult{
		SettlementID:            uuid.New(),
		SettledAt:               settledAt,
		RemainingAccountBalance: newBalance,
	}
	s.publishEvent(input.AccountNumber, websocket.SettlementCreated(result))
	return result, nil, nil
}

// GetPendingSettlement returns the reconciliation-queue entry for polling
func (s *SettlementService) GetPendingSettlement(id uuid.UUID) (*domain.PendingSettlement, error) {
	return s.pendingRepo.GetByID(id)
}

// remoteSettle applies the payment remotely, retrying indeterminate
// outcomes with exponential backoff until the budget runs out
func (s *SettlementService) remoteSettle(ctx context.Context, input domain.SettlementInput, key string) error {
	delay := s.config.RetryDelay
	var err error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		_, err = s.telecom.ApplyPayment(ctx, input.InvoiceNumber, input.Amount, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrTelecomUnavailable) {
			return err
		}
		if attempt < s.config.MaxAttempts {
			log.Warn().
				Int("attempt", attempt).
				Str("invoice_number", input.InvoiceNumber).
				Dur("backoff", delay).
				Msg("Telecom ledger unreachable, retrying payment with same idempotency key")
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}

// parkForReconciliation records the attempt for the reconciliation worker.
// The account has not been debited.
func (s *SettlementService) parkForReconciliation(input domain.SettlementInput, key string) (*domain.PendingSettlement, error) {
	pending := &domain.PendingSettlement{
		ID:             uuid.New(),
		AccountNumber:  input.AccountNumber,
		InvoiceNumber:  input.InvoiceNumber,
		Amount:         input.Amount,
		IdempotencyKey: key,
		Status:         domain.StatusPendingReconciliation,
		CreatedAt:      time.Now().UTC(),
	}
	created, err := s.pendingRepo.Create(pending)
	if err != nil {
		return nil, err
	}
	log.Warn().
		Str("pending_id", created.ID.String()).
		Str("account_number", input.AccountNumber).
		Str("invoice_number", input.InvoiceNumber).
		Msg("Settlement outcome indeterminate, parked for reconciliation")
	s.publishEvent(input.AccountNumber, websocket.SettlementPending(created))
	return created, nil
}

func (s *SettlementService) accountLock(accountNumber string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.accountLocks[accountNumber]
	if !ok {
		lock = &sync.Mutex{}
		s.accountLocks[accountNumber] = lock
	}
	return lock
}
