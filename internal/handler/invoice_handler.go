package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/service"
)

// InvoiceHandler handles the telecom ledger's HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// OutstandingInvoiceResponse is one element of the invoice list
type OutstandingInvoiceResponse struct {
	InvoiceNumber      string `json:"invoiceNumber"`
	OutstandingBalance string `json:"outstandingBalance"`
}

// ListOutstanding returns a customer's outstanding invoices
func (h *InvoiceHandler) ListOutstanding(c echo.Context) error {
	nationalID := c.Param("customerId")

	invoices, err := h.invoiceService.ListOutstandingInvoices(nationalID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return NewNotFoundError(c, "Customer "+nationalID+" not found")
		}
		log.Error().Err(err).Str("national_id", nationalID).Msg("Failed to list outstanding invoices")
		return NewInternalError(c, "Failed to list outstanding invoices")
	}

	response := make([]OutstandingInvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		response = append(response, OutstandingInvoiceResponse{
			InvoiceNumber:      inv.InvoiceNumber,
			OutstandingBalance: inv.OutstandingBalance.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, response)
}

// ApplyPaymentRequest is the JSON request for applying a payment
type ApplyPaymentRequest struct {
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// ApplyPaymentResponse is the JSON response for a payment
type ApplyPaymentResponse struct {
	OutstandingBalance string `json:"outstandingBalance"`
}

// ApplyPayment applies a payment to an invoice. Replaying an idempotency
// key that already succeeded returns the original result with no second
// decrement.
func (h *InvoiceHandler) ApplyPayment(c echo.Context) error {
	invoiceNumber := c.Param("invoiceId")

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.IdempotencyKey == "" {
		return NewValidationError(c, "Idempotency key is required", []ValidationError{
			{Field: "idempotencyKey", Message: "Idempotency key is required"},
		})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Amount must be a decimal number"},
		})
	}

	result, err := h.invoiceService.ApplyPayment(invoiceNumber, amount, req.IdempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvoiceNotFound):
			return NewNotFoundError(c, "Invoice "+invoiceNumber+" not found")
		case errors.Is(err, domain.ErrInvalidAmount):
			return NewValidationError(c, "Amount must be positive and must not exceed the outstanding balance", []ValidationError{
				{Field: "amount", Message: "Amount must be positive and within the outstanding balance"},
			})
		default:
			log.Error().Err(err).Str("invoice_number", invoiceNumber).Msg("Failed to apply payment")
			return NewInternalError(c, "Failed to apply payment")
		}
	}

	if result.Replayed {
		log.Info().
			Str("invoice_number", invoiceNumber).
			Str("idempotency_key", req.IdempotencyKey).
			Msg("Replayed idempotent payment, returning original result")
	}

	return c.JSON(http.StatusOK, ApplyPaymentResponse{
		OutstandingBalance: result.OutstandingBalance.StringFixed(2),
	})
}
