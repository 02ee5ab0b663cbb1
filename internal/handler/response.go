package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`

	// PendingSettlementID marks an indeterminate settlement the caller can
	// poll at /settlements/pending/{id}
	PendingSettlementID string `json:"pendingSettlementId,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation  = "https://telepay.app/errors/validation"
	ErrorTypeNotFound    = "https://telepay.app/errors/not-found"
	ErrorTypeUnavailable = "https://telepay.app/errors/service-unavailable"
	ErrorTypeUpstream    = "https://telepay.app/errors/upstream"
	ErrorTypeInternal    = "https://telepay.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError creates a service unavailable error response.
// pendingSettlementID may be empty when no reconciliation entry exists.
func NewServiceUnavailableError(c echo.Context, detail string, pendingSettlementID string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:                ErrorTypeUnavailable,
		Title:               "Service Unavailable",
		Status:              http.StatusServiceUnavailable,
		Detail:              detail,
		Instance:            c.Request().URL.Path,
		PendingSettlementID: pendingSettlementID,
	})
}

// NewBadGatewayError creates a bad gateway error response for unexpected
// upstream answers
func NewBadGatewayError(c echo.Context, detail string) error {
	return c.JSON(http.StatusBadGateway, ProblemDetails{
		Type:     ErrorTypeUpstream,
		Title:    "Upstream Error",
		Status:   http.StatusBadGateway,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}
