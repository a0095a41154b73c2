package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a single catalog listing owned by one seller.  WearDays is a
// display modifier chosen by the buyer's filter in the storefront; it never
// changes the stored PriceKr.
type Product struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"sellerId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Material    string          `json:"material"`
	PriceKr     decimal.Decimal `json:"priceKr"`
	ImageURL    string          `json:"imageUrl"`
	IsAvailable bool            `json:"isAvailable"`
	WearDays    int             `json:"wearDays"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ProductPatch carries the mutable product fields; nil means unchanged.
type ProductPatch struct {
	Title       *string
	Description *string
	Size        *string
	Color       *string
	Material    *string
	PriceKr     *decimal.Decimal
	ImageURL    *string
	IsAvailable *bool
	WearDays    *int
}

// ProductFilter narrows public catalog listings.
type ProductFilter struct {
	SellerID  string
	Available *bool
}
