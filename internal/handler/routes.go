package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/telepay/telepay-backend/internal/middleware"
)

// RegisterTelecomRoutes sets up the telecom ledger's API routes
func RegisterTelecomRoutes(e *echo.Echo, invoiceHandler *InvoiceHandler) {
	invoices := e.Group("/invoices")
	invoices.GET("/:customerId", invoiceHandler.ListOutstanding)
	invoices.POST("/:invoiceId/payments", invoiceHandler.ApplyPayment)
}

// RegisterBankRoutes sets up the bank ledger's API routes
func RegisterBankRoutes(e *echo.Echo, rateLimiter *middleware.RateLimiter, debtHandler *DebtHandler, settlementHandler *SettlementHandler, wsHandler *WebSocketHandler) {
	e.GET("/debt/:customerId", debtHandler.QueryDebt)

	settlements := e.Group("/settlements")
	settlements.POST("", settlementHandler.Create, middleware.RateLimitMiddleware(rateLimiter))
	settlements.GET("/pending/:id", settlementHandler.GetPending)

	e.GET("/accounts/:accountNumber/payments", settlementHandler.GetPaymentHistory)

	if wsHandler != nil {
		e.GET("/ws", wsHandler.Connect)
	}
}
