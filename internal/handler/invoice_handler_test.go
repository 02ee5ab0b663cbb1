package handler

import (
	"bytes"
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

func newInvoiceHandlerFixture() (*InvoiceHandler, *testutil.MockCustomerRepository, *testutil.MockInvoiceRepository) {
	customerRepo := testutil.NewMockCustomerRepository()
	invoiceRepo := testutil.NewMockInvoiceRepository()
	idempotencyRepo := testutil.NewMockIdempotencyRepository(invoiceRepo)
	invoiceService := service.NewInvoiceService(customerRepo, invoiceRepo, idempotencyRepo)
	return NewInvoiceHandler(invoiceService), customerRepo, invoiceRepo
}

func seedTelecomCustomer(customerRepo *testutil.MockCustomerRepository, invoiceRepo *testutil.MockInvoiceRepository) {
	customerRepo.AddCustomer(&domain.Customer{ID: 1, FirstName: "Juan", LastName: "Pérez", NationalID: "1234567"})
	invoiceRepo.AddInvoice(&domain.Invoice{ID: 1, CustomerID: 1, InvoiceNumber: "F-001", OutstandingBalance: decimal.NewFromFloat(1500.00)})
}

func TestInvoiceHandler_ListOutstanding(t *testing.T) {
	handler, customerRepo, invoiceRepo := newInvoiceHandlerFixture()
	seedTelecomCustomer(customerRepo, invoiceRepo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices/1234567", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("customerId")
	c.SetParamValues("1234567")

	if err := handler.ListOutstanding(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
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

func TestInvoiceHandler_ListOutstanding_UnknownCustomer(t *testing.T) {
	handler, _, _ := newInvoiceHandlerFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices/0000000", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("customerId")
	c.SetParamValues("0000000")

	if err := handler.ListOutstanding(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestInvoiceHandler_ListOutstanding_NoInvoices(t *testing.T) {
	handler, customerRepo, _ := newInvoiceHandlerFixture()
	customerRepo.AddCustomer(&domain.Customer{ID: 2, FirstName: "Ana", LastName: "Gómez", NationalID: "7654321"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/invoices/7654321", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("customerId")
	c.SetParamValues("7654321")

	if err := handler.ListOutstanding(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func postPayment(t *testing.T, handler *InvoiceHandler, invoiceNumber string, reqBody ApplyPaymentRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(reqBody)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/invoices/"+invoiceNumber+"/payments", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("invoiceId")
	c.SetParamValues(invoiceNumber)

	if err := handler.ApplyPayment(c); err != nil {
		t.Fatalf("expected nil error (error in response), got %v", err)
	}
	return rec
}

func TestInvoiceHandler_ApplyPayment(t *testing.T) {
	handler, customerRepo, invoiceRepo := newInvoiceHandlerFixture()
	seedTelecomCustomer(customerRepo, invoiceRepo)

	rec := postPayment(t, handler, "F-001", ApplyPaymentRequest{Amount: "500.00", IdempotencyKey: "key-1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var response ApplyPaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.OutstandingBalance != "1000.00" {
		t.Errorf("expected outstanding balance 1000.00, got %s", response.OutstandingBalance)
	}
}

func TestInvoiceHandler_ApplyPayment_ReplaySameKey(t *testing.T) {
	handler, customerRepo, invoiceRepo := newInvoiceHandlerFixture()
	seedTelecomCustomer(customerRepo, invoiceRepo)

	first := postPayment(t, handler, "F-001", ApplyPaymentRequest{Amount: "500.00", IdempotencyKey: "key-1"})
	second := postPayment(t, handler, "F-001", ApplyPaymentRequest{Amount: "500.00", IdempotencyKey: "key-1"})

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both 200, got %d and %d", first.Code, second.Code)
	}
	// Same body, one decrement
	if first.Body.String() != second.Body.String() {
		t.Errorf("replay returned a different body: %q vs %q", first.Body.String(), second.Body.String())
	}
	inv, _ := invoiceRepo.GetByNumber("F-001")
	if !inv.OutstandingBalance.Equal(decimal.NewFromFloat(1000.00)) {
		t.Errorf("expected one decrement, balance is %s", inv.OutstandingBalance)
	}
}

func TestInvoiceHandler_ApplyPayment_MissingKey(t *testing.T) {
	handler, customerRepo, invoiceRepo := newInvoiceHandlerFixture()
	seedTelecomCustomer(customerRepo, invoiceRepo)

	rec := postPayment(t, handler, "F-001", ApplyPaymentRequest{Amount: "500.00"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestInvoiceHandler_ApplyPayment_UnknownInvoice(t *testing.T) {
	handler, _, _ := newInvoiceHandlerFixture()

	rec := postPayment(t, handler, "F-999", ApplyPaymentRequest{Amount: "500.00", IdempotencyKey: "key-1"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestInvoiceHandler_ApplyPayment_RejectedAmounts(t *testing.T) {
	handler, customerRepo, invoiceRepo := newInvoiceHandlerFixture()
	seedTelecomCustomer(customerRepo, invoiceRepo)

	cases := []struct {
		name   string
		amount string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"negative", "-10.00"},
		{"exceeds outstanding", "2000.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postPayment(t, handler, "F-001", ApplyPaymentRequest{Amount: tc.amount, IdempotencyKey: "key-" + tc.name})
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}

	// Rejections leave the ledger untouched
	inv, _ := invoiceRepo.GetByNumber("F-001")
	if !inv.OutstandingBalance.Equal(decimal.NewFromFloat(1500.00)) {
		t.Errorf("balance changed after rejected payments: %s", inv.OutstandingBalance)
	}
}
