package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/payments"
	"github.com/iliyamo/storefront-api/internal/service"
)

// PaymentOrders is the order side of the payment flow.
type PaymentOrders interface {
	GetOrder(ctx context.Context, id string) (model.Order, error)
	ApplyPaymentUpdate(ctx context.Context, u service.PaymentUpdate) (model.Order, error)
	AttachCryptoPayment(ctx context.Context, orderID string, cp service.CryptoPayment) (model.Order, error)
}

// PaymentHandler proxies NOWPayments with the server-held key and receives
// its IPN callbacks.
type PaymentHandler struct {
	Client      *payments.Client
	Orders      PaymentOrders
	IPNSecret   string
	CallbackURL string
	Log         *slog.Logger
}

func NewPaymentHandler(client *payments.Client, orders PaymentOrders, ipnSecret, callbackURL string, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{Client: client, Orders: orders, IPNSecret: ipnSecret, CallbackURL: callbackURL, Log: log}
}

// upstream turns a provider failure into a client response without
// leaking the provider body.
func (h *PaymentHandler) upstream(c echo.Context, err error) error {
	if errors.Is(err, payments.ErrNotConfigured) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "crypto payments are not configured"})
	}
	var apiErr *payments.APIError
	if errors.As(err, &apiErr) {
		h.Log.Warn("nowpayments request failed", "status", apiErr.StatusCode, "body", apiErr.Body)
		if apiErr.StatusCode == http.StatusNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider error"})
	}
	h.Log.Error("nowpayments unreachable", "err", err)
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
}

func (h *PaymentHandler) Status(c echo.Context) error {
	raw, err := h.Client.Status(c.Request().Context())
	if err != nil {
		return h.upstream(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

func (h *PaymentHandler) Currencies(c echo.Context) error {
	raw, err := h.Client.Currencies(c.Request().Context())
	if err != nil {
		return h.upstream(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Estimate: ?amount=&currency_from=&currency_to=
func (h *PaymentHandler) Estimate(c echo.Context) error {
	amount := numericString(strings.TrimSpace(c.QueryParam("amount")))
	from := strings.ToLower(c.QueryParam("currency_from"))
	to := strings.ToLower(c.QueryParam("currency_to"))
	if err := c.Validate(&estimateQuery{Amount: amount, From: from, To: to}); err != nil {
		fields, _ := fieldErrors(err)
		return writeError(c, http.StatusBadRequest, "validation failed", fields)
	}
	raw, err := h.Client.Estimate(c.Request().Context(), amount.decimal(), from, to)
	if err != nil {
		return h.upstream(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

type estimateQuery struct {
	Amount numericString `json:"amount" validate:"required,numeric"`
	From   string        `json:"currency_from" validate:"required,alphanum,max=16"`
	To     string        `json:"currency_to" validate:"required,alphanum,max=16"`
}

type createPaymentReq struct {
	OrderID     string `json:"orderId" validate:"required"`
	PayCurrency string `json:"payCurrency" validate:"required,alphanum,max=16"`
}

// CreatePayment opens a crypto payment for an existing order.  The amount
// always comes from the stored order, never from the client.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req createPaymentReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if o.Status != model.StatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not awaiting payment"})
	}

	p, raw, err := h.Client.CreatePayment(ctx, payments.PaymentRequest{
		PriceAmount:      json.Number(o.TotalAmountKr.StringFixed(2)),
		PriceCurrency:    "nok",
		PayCurrency:      strings.ToLower(req.PayCurrency),
		OrderID:          o.ID,
		OrderDescription: "Order " + o.ID,
		IPNCallbackURL:   h.CallbackURL,
	})
	if err != nil {
		return h.upstream(c, err)
	}
	if _, err := h.Orders.AttachCryptoPayment(ctx, o.ID, service.CryptoPayment{
		PaymentID: string(p.PaymentID),
		Currency:  p.PayCurrency,
		Amount:    string(p.PayAmount),
		Address:   p.PayAddress,
	}); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSONBlob(http.StatusCreated, raw)
}

func (h *PaymentHandler) GetPayment(c echo.Context) error {
	raw, err := h.Client.GetPayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.upstream(c, err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Webhook receives NOWPayments IPN callbacks.  Unsigned or mis-signed
// calls are rejected before the body is trusted; with no IPN secret
// configured the endpoint is closed.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	if h.IPNSecret == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "webhook not configured"})
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read body"})
	}
	sig := c.Request().Header.Get(payments.SignatureHeader)
	if err := payments.VerifyIPNSignature(body, sig, h.IPNSecret); err != nil {
		h.Log.Warn("ipn rejected", "remote_ip", c.RealIP(), "err", err)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}
	ipn, err := payments.ParseIPN(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed JSON"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	o, err := h.Orders.ApplyPaymentUpdate(ctx, service.PaymentUpdate{
		OrderID:        ipn.OrderID,
		PaymentID:      string(ipn.PaymentID),
		ProviderStatus: ipn.PaymentStatus,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true, "orderId": o.ID, "status": o.Status, "paymentStatus": o.PaymentStatus})
}
