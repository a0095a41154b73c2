package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONSortsKeysAndKeepsNumbers(t *testing.T) {
	out, err := canonicalJSON([]byte(`{"order_id":"o1","payment_id":5077125051,"pay_amount":0.00120000,"nested":{"b":1,"a":"<x>"}}`))
	require.NoError(t, err)
	require.Equal(t, `{"nested":{"a":"<x>","b":1},"order_id":"o1","pay_amount":0.00120000,"payment_id":5077125051}`, string(out))
}

func TestVerifyIPNSignature(t *testing.T) {
	body := []byte(`{"payment_status":"finished","payment_id":"p1","order_id":"o1"}`)
	sig, err := SignIPN(body, "ipn-secret")
	require.NoError(t, err)

	require.NoError(t, VerifyIPNSignature(body, sig, "ipn-secret"))

	// key order in transit does not matter
	reordered := []byte(`{"order_id":"o1","payment_id":"p1","payment_status":"finished"}`)
	require.NoError(t, VerifyIPNSignature(reordered, sig, "ipn-secret"))

	tampered := []byte(`{"payment_status":"finished","payment_id":"p1","order_id":"o2"}`)
	require.ErrorIs(t, VerifyIPNSignature(tampered, sig, "ipn-secret"), ErrBadSignature)
	require.ErrorIs(t, VerifyIPNSignature(body, sig, "other"), ErrBadSignature)
	require.ErrorIs(t, VerifyIPNSignature(body, "", "ipn-secret"), ErrBadSignature)
	require.ErrorIs(t, VerifyIPNSignature(body, "zz", "ipn-secret"), ErrBadSignature)
	require.ErrorIs(t, VerifyIPNSignature(body, sig, ""), ErrBadSignature)
	require.ErrorIs(t, VerifyIPNSignature([]byte("not json"), sig, "ipn-secret"), ErrBadSignature)
}

func TestParseIPNAcceptsNumericIDs(t *testing.T) {
	ipn, err := ParseIPN([]byte(`{"payment_id":5077125051,"payment_status":"finished","order_id":"o1","pay_amount":"0.5"}`))
	require.NoError(t, err)
	require.Equal(t, FlexString("5077125051"), ipn.PaymentID)
	require.Equal(t, FlexString("0.5"), ipn.PayAmount)
	require.Equal(t, "finished", ipn.PaymentStatus)
	require.Equal(t, "o1", ipn.OrderID)
}

func TestClientSendsKeyAndDecodesPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "k123", r.Header.Get("x-api-key"))
		switch r.URL.Path {
		case "/v1/status":
			_, _ = io.WriteString(w, `{"message":"OK"}`)
		case "/v1/estimate":
			require.Equal(t, "450", r.URL.Query().Get("amount"))
			require.Equal(t, "nok", r.URL.Query().Get("currency_from"))
			_, _ = io.WriteString(w, `{"estimated_amount":0.0011}`)
		case "/v1/payment":
			require.Equal(t, http.MethodPost, r.Method)
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "o1", req["order_id"])
			require.Equal(t, float64(450), req["price_amount"])
			_, _ = io.WriteString(w, `{"payment_id":"5745459419","payment_status":"waiting","pay_address":"bc1q","pay_amount":0.0011,"pay_currency":"btc","order_id":"o1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"nope"}`)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "k123")
	ctx := context.Background()

	raw, err := c.Status(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"OK"}`, string(raw))

	_, err = c.Estimate(ctx, decimal.RequireFromString("450"), "nok", "btc")
	require.NoError(t, err)

	p, raw, err := c.CreatePayment(ctx, PaymentRequest{PriceAmount: "450", PriceCurrency: "nok", PayCurrency: "btc", OrderID: "o1"})
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Equal(t, FlexString("5745459419"), p.PaymentID)
	require.Equal(t, FlexString("0.0011"), p.PayAmount)
	require.Equal(t, "bc1q", p.PayAddress)

	_, err = c.GetPayment(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientWithoutKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	require.False(t, c.Configured())
	_, err := c.Currencies(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}
