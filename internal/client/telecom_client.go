package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/telepay/telepay-backend/internal/domain"
)

// TelecomClient implements domain.TelecomGateway against the telecom
// ledger's REST API. Every call carries a bounded timeout; a call that
// fails to complete maps to ErrTelecomUnavailable, which callers treat as
// indeterminate.
type TelecomClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTelecomClient creates a new TelecomClient for the given base URL
func NewTelecomClient(baseURL string, timeout time.Duration) *TelecomClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &TelecomClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type outstandingInvoiceDTO struct {
	InvoiceNumber      string `json:"invoiceNumber"`
	OutstandingBalance string `json:"outstandingBalance"`
}

type applyPaymentRequest struct {
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type applyPaymentResponse struct {
	OutstandingBalance string `json:"outstandingBalance"`
}

// ListOutstandingInvoices fetches a customer's outstanding invoices
func (c *TelecomClient) ListOutstandingInvoices(ctx context.Context, nationalID string) ([]domain.OutstandingInvoice, error) {
	endpoint := fmt.Sprintf("%s/invoices/%s", c.baseURL, url.PathEscape(nationalID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.ErrTelecomUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrTelecomUnavailable
	}

	if err := c.mapStatus(resp.StatusCode, body, domain.ErrCustomerNotFound, nil); err != nil {
		return nil, err
	}

	var dtos []outstandingInvoiceDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	result := make([]domain.OutstandingInvoice, 0, len(dtos))
	for _, dto := range dtos {
		balance, err := decimal.NewFromString(dto.OutstandingBalance)
		if err != nil {
			return nil, &domain.UpstreamError{Status: resp.StatusCode, Body: string(body)}
		}
		result = append(result, domain.OutstandingInvoice{
			InvoiceNumber:      dto.InvoiceNumber,
			OutstandingBalance: balance,
		})
	}
	return result, nil
}

// ApplyPayment applies a payment to a remote invoice under an idempotency
// key and returns the new outstanding balance
func (c *TelecomClient) ApplyPayment(ctx context.Context, invoiceNumber string, amount decimal.Decimal, idempotencyKey string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/invoices/%s/payments", c.baseURL, url.PathEscape(invoiceNumber))

	payload, err := json.Marshal(applyPaymentRequest{
		Amount:         amount.StringFixed(2),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return decimal.Zero, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, domain.ErrTelecomUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, domain.ErrTelecomUnavailable
	}

	if err := c.mapStatus(resp.StatusCode, body, domain.ErrInvoiceNotFound, domain.ErrInvalidAmount); err != nil {
		return decimal.Zero, err
	}

	var dto applyPaymentResponse
	if err := json.Unmarshal(body, &dto); err != nil {
		return decimal.Zero, &domain.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	balance, err := decimal.NewFromString(dto.OutstandingBalance)
	if err != nil {
		return decimal.Zero, &domain.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return balance, nil
}

// mapStatus translates non-2xx responses into the gateway error contract.
// notFoundErr names the entity a 404 refers to on this endpoint.
// badRequestErr is the meaning of a 400 where the endpoint defines one;
// when nil, a 400 is an unexpected answer like any other.
func (c *TelecomClient) mapStatus(status int, body []byte, notFoundErr, badRequestErr error) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return notFoundErr
	case status == http.StatusBadRequest && badRequestErr != nil:
		return badRequestErr
	case status >= 500:
		// The remote may or may not have applied the request
		return domain.ErrTelecomUnavailable
	default:
		return &domain.UpstreamError{Status: status, Body: string(body)}
	}
}
