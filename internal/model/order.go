package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order records one checkout of a single product.
//
// Fields:
//
//	ID              – UUID primary key.
//	ProductID       – purchased product.
//	SellerID        – seller owning the product at checkout time.
//	CustomerName, CustomerEmail, ShippingAddress – buyer details.
//	TotalAmountKr   – amount charged, after any promo discount.
//	CommissionKr    – shop share of TotalAmountKr.
//	PaymentMethod   – crypto | revolut | gumroad | stripe | pending.
//	PaymentStatus   – local status or the provider status verbatim.
//	Status          – lifecycle status, see OrderStatus.
//	PromoCode       – redeemed code, if any.
//	Tracking*       – shipping tracking, set by admins.
//	Crypto*, PaymentAddress, NOWPaymentsID – filled when a crypto payment
//	                  is opened with NOWPayments.
type Order struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	SellerID        string          `json:"sellerId"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	ShippingAddress string          `json:"shippingAddress"`
	TotalAmountKr   decimal.Decimal `json:"totalAmountKr"`
	CommissionKr    decimal.Decimal `json:"commissionKr"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Status          OrderStatus     `json:"status"`
	PromoCode       *string         `json:"promoCode"`
	TrackingNumber  *string         `json:"trackingNumber"`
	TrackingURL     *string         `json:"trackingUrl"`
	CryptoCurrency  *string         `json:"cryptoCurrency"`
	CryptoAmount    *string         `json:"cryptoAmount"`
	PaymentAddress  *string         `json:"paymentAddress"`
	NOWPaymentsID   *string         `json:"nowpaymentsId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderPatch lists every field an update may overwrite.  A nil pointer
// leaves the column untouched.
type OrderPatch struct {
	Status         *OrderStatus
	PaymentStatus  *PaymentStatus
	PaymentMethod  *PaymentMethod
	TrackingNumber *string
	TrackingURL    *string
	CryptoCurrency *string
	CryptoAmount   *string
	PaymentAddress *string
	NOWPaymentsID  *string
}

// Empty reports whether the patch would change nothing.
func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.PaymentStatus == nil && p.PaymentMethod == nil &&
		p.TrackingNumber == nil && p.TrackingURL == nil && p.CryptoCurrency == nil &&
		p.CryptoAmount == nil && p.PaymentAddress == nil && p.NOWPaymentsID == nil
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status OrderStatus // empty means any
	Limit  int
	Offset int
}

// OrderStats summarizes orders for the admin dashboard.
type OrderStats struct {
	ByStatus     map[OrderStatus]int `json:"byStatus"`
	TotalOrders  int                 `json:"totalOrders"`
	RevenueKr    decimal.Decimal     `json:"revenueKr"`
	CommissionKr decimal.Decimal     `json:"commissionKr"`
}
