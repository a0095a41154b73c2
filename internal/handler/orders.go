package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/service"
)

// OrderService is the part of service.OrderManager the handlers use.
type OrderService interface {
	CreateOrder(ctx context.Context, in service.NewOrder) (model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	GetOrderByIDAndEmail(ctx context.Context, id, email string) (model.Order, error)
	TrackByToken(ctx context.Context, token string) (model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	UpdateOrder(ctx context.Context, id string, p model.OrderPatch) (model.Order, error)
	Stats(ctx context.Context) (model.OrderStats, error)
}

type OrderHandler struct {
	Orders OrderService
	Log    *slog.Logger
}

func NewOrderHandler(o OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{Orders: o, Log: log}
}

type createOrderReq struct {
	ProductID       string        `json:"productId" validate:"required"`
	SellerID        string        `json:"sellerId" validate:"required"`
	CustomerName    string        `json:"customerName" validate:"required,max=255"`
	CustomerEmail   string        `json:"customerEmail" validate:"required,email,max=255"`
	ShippingAddress string        `json:"shippingAddress" validate:"required,max=2000"`
	TotalAmountKr   numericString `json:"totalAmountKr" validate:"required,numeric"`
	CommissionKr    numericString `json:"commissionKr" validate:"required,numeric"`
	PaymentMethod   string        `json:"paymentMethod" validate:"required,oneof=crypto revolut gumroad stripe pending"`
	PromoCode       string        `json:"promoCode" validate:"max=64"`
}

// Create is the public checkout.
func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	o, err := h.Orders.CreateOrder(ctx, service.NewOrder{
		ProductID:       req.ProductID,
		SellerID:        req.SellerID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		TotalAmountKr:   req.TotalAmountKr.decimal(),
		CommissionKr:    req.CommissionKr.decimal(),
		PaymentMethod:   model.PaymentMethod(req.PaymentMethod),
		PromoCode:       req.PromoCode,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, o)
}

// Get returns one order to an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	o, err := h.Orders.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// List: GET /api/admin/orders?status=&limit=&offset=
func (h *OrderHandler) List(c echo.Context) error {
	f := model.OrderFilter{Status: model.OrderStatus(c.QueryParam("status"))}
	var err error
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.Offset, err = intQuery(c, "offset"); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	out, err := h.Orders.ListOrders(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func intQuery(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(name + " must be a non-negative integer")
	}
	return n, nil
}

type patchOrderReq struct {
	Status         *string `json:"status" validate:"omitempty,oneof=pending confirmed shipped completed cancelled returned"`
	PaymentStatus  *string `json:"paymentStatus" validate:"omitempty,oneof=pending completed failed expired"`
	PaymentMethod  *string `json:"paymentMethod" validate:"omitempty,oneof=crypto revolut gumroad stripe pending"`
	TrackingNumber *string `json:"trackingNumber" validate:"omitempty,max=128"`
	TrackingURL    *string `json:"trackingUrl" validate:"omitempty,url,max=1024"`
	CryptoCurrency *string `json:"cryptoCurrency" validate:"omitempty,max=16"`
	CryptoAmount   *string `json:"cryptoAmount" validate:"omitempty,max=64"`
	PaymentAddress *string `json:"paymentAddress" validate:"omitempty,max=255"`
	NOWPaymentsID  *string `json:"nowpaymentsId" validate:"omitempty,max=64"`
}

func (r patchOrderReq) patch() model.OrderPatch {
	p := model.OrderPatch{
		TrackingNumber: r.TrackingNumber,
		TrackingURL:    r.TrackingURL,
		CryptoCurrency: r.CryptoCurrency,
		CryptoAmount:   r.CryptoAmount,
		PaymentAddress: r.PaymentAddress,
		NOWPaymentsID:  r.NOWPaymentsID,
	}
	if r.Status != nil {
		s := model.OrderStatus(*r.Status)
		p.Status = &s
	}
	if r.PaymentStatus != nil {
		s := model.PaymentStatus(*r.PaymentStatus)
		p.PaymentStatus = &s
	}
	if r.PaymentMethod != nil {
		m := model.PaymentMethod(*r.PaymentMethod)
		p.PaymentMethod = &m
	}
	return p
}

// Update applies an admin edit to an order.
func (h *OrderHandler) Update(c echo.Context) error {
	var req patchOrderReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	p := req.patch()
	if p.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	o, err := h.Orders.UpdateOrder(ctx, c.Param("id"), p)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Track serves anonymous order tracking, either ?orderId=&email= or a
// signed ?token= from the confirmation mail.  Any mismatch is a 404 so the
// endpoint cannot be used to probe which order ids exist.
func (h *OrderHandler) Track(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		o   model.Order
		err error
	)
	if tok := c.QueryParam("token"); tok != "" {
		o, err = h.Orders.TrackByToken(ctx, tok)
	} else {
		id, email := c.QueryParam("orderId"), c.QueryParam("email")
		if id == "" || email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "orderId and email are required"})
		}
		o, err = h.Orders.GetOrderByIDAndEmail(ctx, id, email)
	}
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Stats feeds the admin dashboard.
func (h *OrderHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	st, err := h.Orders.Stats(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, st)
}
