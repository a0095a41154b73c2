package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/repository"
	"github.com/iliyamo/storefront-api/internal/utils"
)

// OrderStore is satisfied by repository.OrderRepo.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, id string) (model.Order, error)
	GetByIDAndEmail(ctx context.Context, id, email string) (model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	Update(ctx context.Context, id string, p model.OrderPatch) error
	Stats(ctx context.Context) (model.OrderStats, error)
}

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (model.Product, error)
}

type SellerLookup interface {
	GetByID(ctx context.Context, id string) (model.Seller, error)
}

// Notifier tells the outside world an order was placed.  QueuePublisher
// is the production implementation.
type Notifier interface {
	OrderPlaced(ctx context.Context, o model.Order) error
}

const (
	defaultOrderPage = 50
	maxOrderPage     = 200
	notifyTimeout    = 10 * time.Second
)

// OrderDeps wires an OrderManager.  Notifier may be nil.
type OrderDeps struct {
	Orders            OrderStore
	Products          ProductLookup
	Sellers           SellerLookup
	Promos            *PromoValidator
	Notifier          Notifier
	Log               *slog.Logger
	TrackingSecret    string
	StrictTransitions bool
}

// OrderManager owns order creation and every later change to an order.
type OrderManager struct {
	orders   OrderStore
	products ProductLookup
	sellers  SellerLookup
	promos   *PromoValidator
	notifier Notifier
	log      *slog.Logger
	secret   string
	strict   bool
	now      func() time.Time
}

func NewOrderManager(d OrderDeps) *OrderManager {
	return &OrderManager{
		orders:   d.Orders,
		products: d.Products,
		sellers:  d.Sellers,
		promos:   d.Promos,
		notifier: d.Notifier,
		log:      d.Log,
		secret:   d.TrackingSecret,
		strict:   d.StrictTransitions,
		now:      time.Now,
	}
}

// NewOrder is the checkout input.  Format checks (email syntax, numeric
// strings) happen at the HTTP boundary; CreateOrder checks presence,
// ranges and references.
type NewOrder struct {
	ProductID       string
	SellerID        string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	TotalAmountKr   decimal.Decimal
	CommissionKr    decimal.Decimal
	PaymentMethod   model.PaymentMethod
	PromoCode       string
}

func (in NewOrder) validate() *ValidationError {
	var verr ValidationError
	if strings.TrimSpace(in.ProductID) == "" {
		verr.add("productId", "required")
	}
	if strings.TrimSpace(in.SellerID) == "" {
		verr.add("sellerId", "required")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		verr.add("customerName", "required")
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		verr.add("customerEmail", "required")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		verr.add("shippingAddress", "required")
	}
	checkKr(&verr, "totalAmountKr", in.TotalAmountKr)
	checkKr(&verr, "commissionKr", in.CommissionKr)
	if in.CommissionKr.GreaterThan(in.TotalAmountKr) {
		verr.add("commissionKr", "must not exceed totalAmountKr")
	}
	if !in.PaymentMethod.Valid() {
		verr.add("paymentMethod", "unknown payment method")
	}
	return &verr
}

// maxKr is the first value a DECIMAL(12,2) column cannot hold.
var maxKr = decimal.New(1, 10)

// checkKr rejects amounts the money columns would round or overflow, so
// what CreateOrder returns is exactly what gets stored.
func checkKr(verr *ValidationError, field string, d decimal.Decimal) {
	switch {
	case d.IsNegative():
		verr.add(field, "must not be negative")
	case d.Exponent() < -2 && !d.Equal(d.Round(2)):
		verr.add(field, "must have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxKr):
		verr.add(field, "too large")
	}
}

// CreateOrder validates and stores a new pending order.  A promo code, if
// given, is redeemed before the insert; the confirmation notice is sent in
// the background and its failure never fails the checkout.
func (m *OrderManager) CreateOrder(ctx context.Context, in NewOrder) (model.Order, error) {
	verr := in.validate()
	if err := verr.orNil(); err != nil {
		return model.Order{}, err
	}
	if err := m.checkReferences(ctx, in, verr); err != nil {
		return model.Order{}, err
	}
	if err := verr.orNil(); err != nil {
		return model.Order{}, err
	}

	now := m.now().UTC().Truncate(time.Second)
	o := model.Order{
		ID:              uuid.NewString(),
		ProductID:       in.ProductID,
		SellerID:        in.SellerID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		TotalAmountKr:   in.TotalAmountKr,
		CommissionKr:    in.CommissionKr,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   model.PaymentPending,
		Status:          model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var redeemed string
	if in.PromoCode != "" {
		p, err := m.promos.Redeem(ctx, in.PromoCode)
		if errors.Is(err, ErrPromoNotFound) {
			return model.Order{}, &ValidationError{Fields: map[string]string{"promoCode": "unknown promo code"}}
		}
		if err != nil {
			return model.Order{}, err
		}
		redeemed = p.ID
		code := p.Code
		o.PromoCode = &code
	}

	if err := m.orders.Create(ctx, &o); err != nil {
		if redeemed != "" {
			m.releasePromo(redeemed)
		}
		if errors.Is(err, repository.ErrReference) {
			return model.Order{}, &ValidationError{Fields: map[string]string{"productId": "unknown product or seller"}}
		}
		return model.Order{}, err
	}
	m.log.Info("order created", "order_id", o.ID, "product_id", o.ProductID, "payment_method", o.PaymentMethod)

	if m.notifier != nil {
		go m.notify(o)
	}
	return o, nil
}

// releasePromo runs on a fresh context so a cancelled request still gives
// the use back.
func (m *OrderManager) releasePromo(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.promos.Release(ctx, id); err != nil {
		m.log.Error("promo use not released", "promo_id", id, "err", err)
	}
}

// checkReferences records unknown or mismatched product/seller ids in
// verr.  Only storage failures are returned.
func (m *OrderManager) checkReferences(ctx context.Context, in NewOrder, verr *ValidationError) error {
	prod, err := m.products.GetByID(ctx, in.ProductID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		verr.add("productId", "unknown product")
	case err != nil:
		return err
	}
	_, err = m.sellers.GetByID(ctx, in.SellerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		verr.add("sellerId", "unknown seller")
	case err != nil:
		return err
	}
	if prod.ID != "" && prod.SellerID != in.SellerID {
		verr.add("sellerId", "product does not belong to seller")
	}
	return nil
}

func (m *OrderManager) notify(o model.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := m.notifier.OrderPlaced(ctx, o); err != nil {
		m.log.Warn("order notification failed", "order_id", o.ID, "err", err)
	}
}

// GetOrder returns an order by id.
func (m *OrderManager) GetOrder(ctx context.Context, id string) (model.Order, error) {
	o, err := m.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// GetOrderByIDAndEmail backs anonymous tracking; both values must match
// the stored order exactly.
func (m *OrderManager) GetOrderByIDAndEmail(ctx context.Context, id, email string) (model.Order, error) {
	if id == "" || email == "" {
		return model.Order{}, ErrOrderNotFound
	}
	o, err := m.orders.GetByIDAndEmail(ctx, id, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// TrackByToken resolves a signed tracking link.  The id and email inside
// the token go through the same exact-match lookup as manual tracking.
func (m *OrderManager) TrackByToken(ctx context.Context, token string) (model.Order, error) {
	id, email, err := utils.ParseTrackingToken(m.secret, token)
	if err != nil {
		return model.Order{}, ErrOrderNotFound
	}
	return m.GetOrderByIDAndEmail(ctx, id, email)
}

// ListOrders pages through orders, newest first.
func (m *OrderManager) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	if f.Limit <= 0 {
		f.Limit = defaultOrderPage
	}
	if f.Limit > maxOrderPage {
		f.Limit = maxOrderPage
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return m.orders.List(ctx, f)
}

// UpdateOrder applies an admin edit.  By default any field may be
// overwritten regardless of the current status; with strict transitions
// on, a status change outside the transition table fails with
// ErrInvalidTransition.
func (m *OrderManager) UpdateOrder(ctx context.Context, id string, p model.OrderPatch) (model.Order, error) {
	var verr ValidationError
	if p.Status != nil && !p.Status.Valid() {
		verr.add("status", "unknown status")
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		verr.add("paymentStatus", "unknown payment status")
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		verr.add("paymentMethod", "unknown payment method")
	}
	if err := verr.orNil(); err != nil {
		return model.Order{}, err
	}

	if m.strict && p.Status != nil {
		cur, err := m.GetOrder(ctx, id)
		if err != nil {
			return model.Order{}, err
		}
		if !model.CanTransition(cur.Status, *p.Status) {
			return model.Order{}, ErrInvalidTransition
		}
	}
	return m.apply(ctx, id, p)
}

func (m *OrderManager) apply(ctx context.Context, id string, p model.OrderPatch) (model.Order, error) {
	if err := m.orders.Update(ctx, id, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, err
	}
	return m.GetOrder(ctx, id)
}

// PaymentUpdate is a provider callback reduced to what the order needs.
type PaymentUpdate struct {
	OrderID        string
	PaymentID      string
	ProviderStatus string
}

// ApplyPaymentUpdate records a provider status verbatim as the payment
// status and moves the order to the status MapPaymentStatus derives.  In
// strict mode a derived status the transition table forbids is skipped
// while the payment status is still recorded.
func (m *OrderManager) ApplyPaymentUpdate(ctx context.Context, u PaymentUpdate) (model.Order, error) {
	var verr ValidationError
	if u.OrderID == "" {
		verr.add("order_id", "required")
	}
	if u.ProviderStatus == "" {
		verr.add("payment_status", "required")
	}
	if err := verr.orNil(); err != nil {
		return model.Order{}, err
	}
	ps := model.PaymentStatus(u.ProviderStatus)
	status := MapPaymentStatus(u.ProviderStatus)
	p := model.OrderPatch{PaymentStatus: &ps, Status: &status}
	if u.PaymentID != "" {
		p.NOWPaymentsID = &u.PaymentID
	}

	if m.strict {
		cur, err := m.GetOrder(ctx, u.OrderID)
		if err != nil {
			return model.Order{}, err
		}
		if !model.CanTransition(cur.Status, status) {
			m.log.Warn("payment update skipped status change",
				"order_id", u.OrderID, "from", cur.Status, "to", status)
			p.Status = nil
		}
	}

	o, err := m.apply(ctx, u.OrderID, p)
	if err != nil {
		return model.Order{}, err
	}
	m.log.Info("payment status applied", "order_id", o.ID, "payment_status", o.PaymentStatus, "status", o.Status)
	return o, nil
}

// CryptoPayment is what NOWPayments returns when a payment is opened.
type CryptoPayment struct {
	PaymentID string
	Currency  string
	Amount    string
	Address   string
}

// AttachCryptoPayment stores the crypto payment details on an order and
// switches its payment method to crypto.
func (m *OrderManager) AttachCryptoPayment(ctx context.Context, orderID string, cp CryptoPayment) (model.Order, error) {
	method := model.MethodCrypto
	p := model.OrderPatch{
		PaymentMethod:  &method,
		CryptoCurrency: &cp.Currency,
		CryptoAmount:   &cp.Amount,
		PaymentAddress: &cp.Address,
	}
	if cp.PaymentID != "" {
		p.NOWPaymentsID = &cp.PaymentID
	}
	return m.apply(ctx, orderID, p)
}

// Stats summarizes orders for the dashboard.
func (m *OrderManager) Stats(ctx context.Context) (model.OrderStats, error) {
	return m.orders.Stats(ctx)
}
