package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/websocket"
)

// ReconciliationWorker is a background worker that resolves settlements
// left in pending_reconciliation. It replays the remote payment with the
// stored idempotency key: the telecom ledger either returns the original
// result (the payment landed), applies it now, or rejects it definitively.
// Only a definitive answer moves the entry out of pending.
type ReconciliationWorker struct {
	pendingRepo    domain.PendingSettlementRepository
	telecom        domain.TelecomGateway
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
	mu             sync.Mutex
	running        bool
}

// NewReconciliationWorker creates a new reconciliation worker
func NewReconciliationWorker(
	pendingRepo domain.PendingSettlementRepository,
	telecom domain.TelecomGateway,
	logger zerolog.Logger,
	interval time.Duration,
) *ReconciliationWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ReconciliationWorker{
		pendingRepo: pendingRepo,
		telecom:     telecom,
		logger:      logger.With().Str("component", "reconciliation_worker").Logger(),
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (w *ReconciliationWorker) SetEventPublisher(publisher websocket.EventPublisher) {
	w.eventPublisher = publisher
}

// Start begins the background reconciliation loop
func (w *ReconciliationWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting reconciliation worker")
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *ReconciliationWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping reconciliation worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Reconciliation worker stopped")
}

func (w *ReconciliationWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Run immediately on startup
	w.ReconcilePending(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setStopped()
			return
		case <-w.stopCh:
			w.setStopped()
			return
		case <-ticker.C:
			w.ReconcilePending(ctx)
		}
	}
}

// ReconcilePending runs a single reconciliation pass over the queue
func (w *ReconciliationWorker) ReconcilePending(ctx context.Context) {
	pending, err := w.pendingRepo.ListPending()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list pending settlements")
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Info().Int("count", len(pending)).Msg("Reconciling pending settlements")
	for _, p := range pending {
		w.reconcileOne(ctx, p)
	}
}

func (w *ReconciliationWorker) reconcileOne(ctx context.Context, p *domain.PendingSettlement) {
	if err := w.pendingRepo.IncrementAttempts(p.ID); err != nil {
		w.logger.Error().Err(err).Str("pending_id", p.ID.String()).Msg("Failed to bump attempt counter")
		return
	}

	_, err := w.telecom.ApplyPayment(ctx, p.InvoiceNumber, p.Amount, p.IdempotencyKey)
	switch {
	case err == nil:
		w.complete(p)
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvoiceNotFound):
		// Definitive rejection: the original payment never landed
		w.void(p, err)
	case errors.Is(err, domain.ErrTelecomUnavailable):
		w.logger.Warn().
			Str("pending_id", p.ID.String()).
			Int32("attempts", p.Attempts+1).
			Msg("Telecom ledger still unreachable, leaving settlement pending")
	default:
		// Unexpected remote answer is not definitive either way; keep the
		// entry pending and let a later pass decide
		w.logger.Error().Err(err).
			Str("pending_id", p.ID.String()).
			Msg("Unexpected telecom response during reconciliation")
	}
}

// complete finishes the local half of a settlement whose remote payment is
// confirmed. Debit, payment record, and status flip are one repository
// transaction; a failed commit leaves the entry pending with no partial
// state, so replaying the pass cannot debit twice.
func (w *ReconciliationWorker) complete(p *domain.PendingSettlement) {
	resolvedAt := time.Now().UTC()
	if _, err := w.pendingRepo.Complete(p.ID, resolvedAt); err != nil {
		// Leave pending: the remote result is stored under the key, so the
		// next pass replays it without side effects and retries the commit
		w.logger.Error().Err(err).
			Str("pending_id", p.ID.String()).
			Str("account_number", p.AccountNumber).
			Msg("Remote payment confirmed but local commit failed, will retry")
		return
	}
	w.logger.Info().
		Str("pending_id", p.ID.String()).
		Str("invoice_number", p.InvoiceNumber).
		Msg("Pending settlement completed")
	w.publish(p.AccountNumber, websocket.SettlementReconciled(p))
}

func (w *ReconciliationWorker) void(p *domain.PendingSettlement, cause error) {
	if err := w.pendingRepo.MarkVoided(p.ID, time.Now().UTC()); err != nil {
		w.logger.Error().Err(err).Str("pending_id", p.ID.String()).Msg("Failed to void settlement")
		return
	}
	w.logger.Info().
		Str("pending_id", p.ID.String()).
		Str("invoice_number", p.InvoiceNumber).
		AnErr("cause", cause).
		Msg("Pending settlement voided, no local mutation")
	w.publish(p.AccountNumber, websocket.SettlementVoided(p))
}

func (w *ReconciliationWorker) publish(accountNumber string, event websocket.Event) {
	if w.eventPublisher != nil {
		w.eventPublisher.Publish(accountNumber, event)
	}
}

func (w *ReconciliationWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}
