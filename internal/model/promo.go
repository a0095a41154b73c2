package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode is a fixed-amount discount.  Code is stored upper-cased and is
// unique.  MaxUsage, ValidFrom and ValidUntil are optional limits; a nil
// value means "no limit".
type PromoCode struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	DiscountKr  decimal.Decimal `json:"discountKr"`
	Description string          `json:"description"`
	MaxUsage    *int            `json:"maxUsage"`
	UsageCount  int             `json:"usageCount"`
	ValidFrom   *time.Time      `json:"validFrom"`
	ValidUntil  *time.Time      `json:"validUntil"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}
