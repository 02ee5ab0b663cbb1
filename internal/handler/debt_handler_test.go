package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/service"
	"github.com/telepay/telepay-backend/internal/testutil"
)

func newDebtHandlerFixture() (*DebtHandler, *testutil.MockCustomerRepository, *testutil.MockTelecomGateway) {
	customerRepo := testutil.NewMockCustomerRepository()
	gateway := testutil.NewMockTelecomGateway()
	debtService := service.NewDebtService(customerRepo, gateway)
	return NewDebtHandler(debtService), customerRepo, gateway
}

func queryDebt(t *testing.T, handler *DebtHandler, nationalID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/customers/"+nationalID+"/debts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("customerId")
	c.SetParamValues(nationalID)

	if err := handler.QueryDebt(c); err != nil {
		t.Fatalf("expected nil error (error in response), got %v", err)
	}
	return rec
}

func TestDebtHandler_QueryDebt(t *testing.T) {
	handler, customerRepo, gateway := newDebtHandlerFixture()

	customerRepo.AddCustomer(&domain.Customer{ID: 1, FirstName: "Juan", LastName: "Pérez", NationalID: "1234567"})
	gateway.Invoices["1234567"] = []domain.OutstandingInvoice{
		{InvoiceNumber: "F-001", OutstandingBalance: decimal.NewFromFloat(1500.00)},
	}

	rec := queryDebt(t, handler, "1234567")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response []OutstandingInvoiceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(response))
	}
	if response[0].InvoiceNumber != "F-001" || response[0].OutstandingBalance != "1500.00" {
		t.Errorf("unexpected invoice: %+v", response[0])
	}
}

func TestDebtHandler_QueryDebt_UnknownCustomer(t *testing.T) {
	handler, _, gateway := newDebtHandlerFixture()

	rec := queryDebt(t, handler, "0000000")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if gateway.ListCalls != 0 {
		t.Errorf("unknown local customer must not reach the telecom ledger, got %d calls", gateway.ListCalls)
	}
}

func TestDebtHandler_QueryDebt_TelecomUnavailable(t *testing.T) {
	handler, customerRepo, gateway := newDebtHandlerFixture()

	customerRepo.AddCustomer(&domain.Customer{ID: 1, FirstName: "Juan", LastName: "Pérez", NationalID: "1234567"})
	gateway.ListErr = domain.ErrTelecomUnavailable

	rec := queryDebt(t, handler, "1234567")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestDebtHandler_QueryDebt_UpstreamError(t *testing.T) {
	handler, customerRepo, gateway := newDebtHandlerFixture()

	customerRepo.AddCustomer(&domain.Customer{ID: 1, FirstName: "Juan", LastName: "Pérez", NationalID: "1234567"})
	gateway.ListErr = &domain.UpstreamError{Status: 418, Body: "teapot"}

	rec := queryDebt(t, handler, "1234567")

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}
