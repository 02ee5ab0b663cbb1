package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/service"
)

// SettlementHandler handles settlement HTTP requests
type SettlementHandler struct {
	settlementService *service.SettlementService
	accountService    *service.AccountService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *service.SettlementService, accountService *service.AccountService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		accountService:    accountService,
	}
}

// SettlementRequest represents the JSON request for creating a settlement
type SettlementRequest struct {
	AccountNumber  string `json:"accountNumber"`
	InvoiceNumber  string `json:"invoiceNumber"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// SettlementResponse represents the JSON response for a completed settlement
type SettlementResponse struct {
	SettlementID            string `json:"settlementId"`
	SettledAt               string `json:"settledAt"`
	RemainingAccountBalance string `json:"remainingAccountBalance"`
}

// Create settles one invoice from one debit account
func (h *SettlementHandler) Create(c echo.Context) error {
	var req SettlementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	// Validate required fields
	if req.AccountNumber == "" {
		return NewValidationError(c, "Account number is required", nil)
	}
	if req.InvoiceNumber == "" {
		return NewValidationError(c, "Invoice number is required", nil)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Amount must be a decimal number"},
		})
	}

	input := domain.SettlementInput{
		AccountNumber:  req.AccountNumber,
		InvoiceNumber:  req.InvoiceNumber,
		Amount:         amount,
		IdempotencyKey: req.IdempotencyKey,
	}

	// The attempt must run to completion even if the caller disconnects:
	// an abandoned request must not leave the remote outcome unresolved
	ctx := context.WithoutCancel(c.Request().Context())

	result, pending, err := h.settlementService.Settle(ctx, input)
	if err != nil {
		return h.handleServiceError(c, err, pending, req)
	}

	return c.JSON(http.StatusOK, SettlementResponse{
		SettlementID:            result.SettlementID.String(),
		SettledAt:               result.SettledAt.Format(time.RFC3339),
		RemainingAccountBalance: result.RemainingAccountBalance.StringFixed(2),
	})
}

// PendingSettlementResponse represents a reconciliation-queue entry
type PendingSettlementResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"accountNumber"`
	InvoiceNumber string `json:"invoiceNumber"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	Attempts      int32  `json:"attempts"`
	CreatedAt     string `json:"createdAt"`
	ResolvedAt    string `json:"resolvedAt,omitempty"`
}

// GetPending returns the state of an indeterminate settlement for polling
func (h *SettlementHandler) GetPending(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid pending settlement ID", nil)
	}

	pending, err := h.settlementService.GetPendingSettlement(id)
	if err != nil {
		if errors.Is(err, domain.ErrPendingSettlementNotFound) {
			return NewNotFoundError(c, "Pending settlement not found")
		}
		log.Error().Err(err).Str("pending_id", id.String()).Msg("Failed to load pending settlement")
		return NewInternalError(c, "Failed to load pending settlement")
	}

	resp := PendingSettlementResponse{
		ID:            pending.ID.String(),
		AccountNumber: pending.AccountNumber,
		InvoiceNumber: pending.InvoiceNumber,
		Amount:        pending.Amount.StringFixed(2),
		Status:        string(pending.Status),
		Attempts:      pending.Attempts,
		CreatedAt:     pending.CreatedAt.Format(time.RFC3339),
	}
	if pending.ResolvedAt != nil {
		resp.ResolvedAt = pending.ResolvedAt.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

// PaymentRecordResponse is one payment-history entry
type PaymentRecordResponse struct {
	Amount        string `json:"amount"`
	InvoiceNumber string `json:"invoiceNumber"`
	PaidAt        string `json:"paidAt"`
}

// PaymentHistoryResponse represents an account's settlement history
type PaymentHistoryResponse struct {
	AccountNumber string                  `json:"accountNumber"`
	Balance       string                  `json:"balance"`
	Payments      []PaymentRecordResponse `json:"payments"`
}

// GetPaymentHistory returns an account's payment records
func (h *SettlementHandler) GetPaymentHistory(c echo.Context) error {
	accountNumber := c.Param("accountNumber")

	account, records, err := h.accountService.GetPaymentHistory(accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return NewNotFoundError(c, "Account "+accountNumber+" not found")
		}
		log.Error().Err(err).Str("account_number", accountNumber).Msg("Failed to load payment history")
		return NewInternalError(c, "Failed to load payment history")
	}

	payments := make([]PaymentRecordResponse, 0, len(records))
	for _, rec := range records {
		payments = append(payments, PaymentRecordResponse{
			Amount:        rec.Amount.StringFixed(2),
			InvoiceNumber: rec.InvoiceNumber,
			PaidAt:        rec.PaidAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, PaymentHistoryResponse{
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance.StringFixed(2),
		Payments:      payments,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses
func (h *SettlementHandler) handleServiceError(c echo.Context, err error, pending *domain.PendingSettlement, req SettlementRequest) error {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return NewNotFoundError(c, "Account "+req.AccountNumber+" not found")
	case errors.Is(err, domain.ErrInvoiceNotFound):
		return NewValidationError(c, "Invoice "+req.InvoiceNumber+" was rejected by the telecom ledger", nil)
	case errors.Is(err, domain.ErrInsufficientFunds):
		return NewValidationError(c, "Insufficient funds", []ValidationError{
			{Field: "amount", Message: "Account balance does not cover the amount"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Amount was rejected", []ValidationError{
			{Field: "amount", Message: "Amount must be positive and within the invoice's outstanding balance"},
		})
	case errors.Is(err, domain.ErrSettlementPending):
		pendingID := ""
		if pending != nil {
			pendingID = pending.ID.String()
		}
		return NewServiceUnavailableError(c, "Settlement outcome is unresolved and queued for reconciliation", pendingID)
	case errors.As(err, &upstream):
		log.Error().Int("upstream_status", upstream.Status).Str("upstream_body", upstream.Body).
			Str("invoice_number", req.InvoiceNumber).Msg("Unexpected telecom response during settlement")
		return NewBadGatewayError(c, "Telecom ledger returned an unexpected error")
	default:
		log.Error().Err(err).Str("account_number", req.AccountNumber).Msg("Settlement failed")
		return NewInternalError(c, "Settlement failed")
	}
}
