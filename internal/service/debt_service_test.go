package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
	"github.com/telepay/telepay-backend/internal/testutil"
)

func TestDebtService_QueryOutstandingDebt_Success(t *testing.T) {
	customerRepo := testutil.NewMockCustomerRepository()
	customerRepo.AddCustomer(&domain.Customer{ID: 1, NationalID: "1234567"})

	gateway := testutil.NewMockTelecomGateway()
	gateway.Invoices["1234567"] = []domain.OutstandingInvoice{
		{InvoiceNumber: "F-001", OutstandingBalance: decimal.NewFromFloat(1500.00)},
	}

	svc := NewDebtService(customerRepo, gateway)

	invoices, err := svc.QueryOutstandingDebt(context.Background(), "1234567")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(invoices) != 1 || invoices[0].InvoiceNumber != "F-001" {
		t.Errorf("unexpected invoices: %+v", invoices)
	}
}

func TestDebtService_QueryOutstandingDebt_UnknownLocalCustomer(t *testing.T) {
	customerRepo := testutil.NewMockCustomerRepository()
	gateway := testutil.NewMockTelecomGateway()
	svc := NewDebtService(customerRepo, gateway)

	_, err := svc.QueryOutstandingDebt(context.Background(), "0000000")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
	// Unknown local customers never reach the telecom ledger
	if gateway.ListCalls != 0 {
		t.Errorf("expected 0 remote calls, got %d", gateway.ListCalls)
	}
}

func TestDebtService_QueryOutstandingDebt_RemoteNotFound(t *testing.T) {
	customerRepo := testutil.NewMockCustomerRepository()
	customerRepo.AddCustomer(&domain.Customer{ID: 1, NationalID: "1234567"})

	// Known locally, unknown remotely
	gateway := testutil.NewMockTelecomGateway()
	svc := NewDebtService(customerRepo, gateway)

	_, err := svc.QueryOutstandingDebt(context.Background(), "1234567")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestDebtService_QueryOutstandingDebt_RemoteUnavailable(t *testing.T) {
	customerRepo := testutil.NewMockCustomerRepository()
	customerRepo.AddCustomer(&domain.Customer{ID: 1, NationalID: "1234567"})

	gateway := testutil.NewMockTelecomGateway()
	gateway.ListErr = domain.ErrTelecomUnavailable
	svc := NewDebtService(customerRepo, gateway)

	_, err := svc.QueryOutstandingDebt(context.Background(), "1234567")
	if !errors.Is(err, domain.ErrTelecomUnavailable) {
		t.Errorf("expected ErrTelecomUnavailable, got %v", err)
	}
}

func TestDebtService_QueryOutstandingDebt_UpstreamError(t *testing.T) {
	customerRepo := testutil.NewMockCustomerRepository()
	customerRepo.AddCustomer(&domain.Customer{ID: 1, NationalID: "1234567"})

	gateway := testutil.NewMockTelecomGateway()
	gateway.ListErr = &domain.UpstreamError{Status: 418, Body: "teapot"}
	svc := NewDebtService(customerRepo, gateway)

	_, err := svc.QueryOutstandingDebt(context.Background(), "1234567")
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != 418 {
		t.Errorf("expected status 418 preserved, got %d", upstream.Status)
	}
}
