package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the share of a sale kept by the shop when a
// seller is created without an explicit rate.
var DefaultCommissionRate = decimal.RequireFromString("0.45")

// Seller is a person whose items are listed in the catalog.
type Seller struct {
	ID             string          `json:"id"`
	Alias          string          `json:"alias"`
	Location       string          `json:"location"`
	Age            int             `json:"age"`
	Bio            string          `json:"bio"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// SellerPatch carries the mutable seller fields; nil means unchanged.
type SellerPatch struct {
	Alias          *string
	Location       *string
	Age            *int
	Bio            *string
	CommissionRate *decimal.Decimal
	IsActive       *bool
}
