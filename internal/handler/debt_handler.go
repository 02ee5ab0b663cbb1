package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/service"
)

// DebtHandler handles the bank's outstanding-debt queries
type DebtHandler struct {
	debtService *service.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService *service.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// QueryDebt returns the customer's outstanding telecom invoices
func (h *DebtHandler) QueryDebt(c echo.Context) error {
	nationalID := c.Param("customerId")

	invoices, err := h.debtService.QueryOutstandingDebt(c.Request().Context(), nationalID)
	if err != nil {
		var upstream *domain.UpstreamError
		switch {
		case errors.Is(err, domain.ErrCustomerNotFound):
			return NewNotFoundError(c, "Customer "+nationalID+" not found")
		case errors.Is(err, domain.ErrTelecomUnavailable):
			return NewServiceUnavailableError(c, "Telecom ledger is unreachable", "")
		case errors.As(err, &upstream):
			log.Error().Int("upstream_status", upstream.Status).Str("upstream_body", upstream.Body).
				Str("national_id", nationalID).Msg("Unexpected telecom response during debt query")
			return NewBadGatewayError(c, "Telecom ledger returned an unexpected error")
		default:
			log.Error().Err(err).Str("national_id", nationalID).Msg("Failed to query outstanding debt")
			return NewInternalError(c, "Failed to query outstanding debt")
		}
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
