// Package payments talks to NOWPayments: a thin HTTP client for the
// endpoints the storefront proxies, and verification of the IPN callbacks
// the provider posts back.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("nowpayments: api key not configured")

// APIError is a non-2xx answer from NOWPayments.  Body is kept for logs
// only and never sent to clients.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("nowpayments: status %d", e.StatusCode)
}

const maxResponseBytes = 1 << 20

// Client calls the NOWPayments REST API with the server-held key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Status reports API availability.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/status", nil)
}

// Currencies lists the coins payments can be made in.
func (c *Client) Currencies(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/currencies", nil)
}

// Estimate converts amount from one currency to another.
func (c *Client) Estimate(ctx context.Context, amount decimal.Decimal, from, to string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("amount", amount.String())
	q.Set("currency_from", from)
	q.Set("currency_to", to)
	return c.get(ctx, "/estimate", q)
}

// GetPayment returns the provider's view of one payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (json.RawMessage, error) {
	return c.get(ctx, "/payment/"+url.PathEscape(paymentID), nil)
}

// PaymentRequest opens a crypto payment for an order.
type PaymentRequest struct {
	PriceAmount      json.Number `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	PayCurrency      string      `json:"pay_currency"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description,omitempty"`
	IPNCallbackURL   string      `json:"ipn_callback_url,omitempty"`
}

// Payment is the subset of the create-payment answer the order keeps.
type Payment struct {
	PaymentID     FlexString `json:"payment_id"`
	PaymentStatus string     `json:"payment_status"`
	PayAddress    string     `json:"pay_address"`
	PayAmount     FlexString `json:"pay_amount"`
	PayCurrency   string     `json:"pay_currency"`
	OrderID       string     `json:"order_id"`
}

// FlexString accepts a JSON string or number; NOWPayments is not
// consistent about which it sends for ids and amounts.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// CreatePayment opens a payment and returns both the decoded fields and
// the raw answer for the client.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (Payment, json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Payment{}, nil, err
	}
	raw, err := c.do(ctx, http.MethodPost, "/payment", nil, body)
	if err != nil {
		return Payment{}, nil, err
	}
	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payment{}, nil, fmt.Errorf("nowpayments: decode payment: %w", err)
	}
	return p, raw, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, q, nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("nowpayments: invalid json from %s", path)
	}
	return raw, nil
}
